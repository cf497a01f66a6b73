package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/learnadoodle/planner/internal/api/middleware"
	"github.com/learnadoodle/planner/internal/api/response"
)

// OpenAPIHandler serves the embedded OpenAPI document as JSON.
type OpenAPIHandler struct {
	rawYAML []byte

	once sync.Once
	json []byte
	etag string
	err  error
}

// NewOpenAPIHandler converts yamlSpec on first use.
func NewOpenAPIHandler(yamlSpec []byte) *OpenAPIHandler {
	return &OpenAPIHandler{rawYAML: yamlSpec}
}

func (h *OpenAPIHandler) load() {
	h.json, h.err = yaml.YAMLToJSON(h.rawYAML)
	if h.err == nil {
		sum := sha256.Sum256(h.json)
		h.etag = `"` + hex.EncodeToString(sum[:8]) + `"`
	}
}

// ServeHTTP writes the JSON document, answering 304 when the client's ETag matches.
func (h *OpenAPIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.once.Do(h.load)

	if h.err != nil {
		slog.Error("failed to convert OpenAPI spec to JSON", "error", h.err)
		response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to convert OpenAPI document", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("ETag", h.etag)
	w.Header().Set("Cache-Control", "public, max-age=300")
	if r.Header.Get("If-None-Match") == h.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.json); err != nil {
		slog.Error("failed to write OpenAPI response", "error", err)
	}
}
