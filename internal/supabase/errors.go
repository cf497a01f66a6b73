package supabase

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// APIError is a non-2xx answer from any Supabase service.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details string
	Hint    string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return "supabase: " + e.Message
	}
	if e.Code != "" {
		return fmt.Sprintf("supabase: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase: %d: %s", e.Status, e.Message)
}

// newAPIError decodes the body shapes used by PostgREST ({code,message,details,hint}),
// Storage ({statusCode,error,message}) and GoTrue ({error,error_description} or {msg}).
func newAPIError(status int, body []byte) *APIError {
	var raw struct {
		Code             json.RawMessage `json:"code"`
		Message          string          `json:"message"`
		Details          string          `json:"details"`
		Hint             string          `json:"hint"`
		Error            string          `json:"error"`
		ErrorDescription string          `json:"error_description"`
		Msg              string          `json:"msg"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, &raw); err != nil {
		apiErr.Message = http.StatusText(status)
		if len(body) > 0 && len(body) < 512 {
			apiErr.Message = string(body)
		}
		return apiErr
	}

	var code string
	if err := json.Unmarshal(raw.Code, &code); err == nil {
		apiErr.Code = code
	}
	apiErr.Details = raw.Details
	apiErr.Hint = raw.Hint

	switch {
	case raw.Message != "":
		apiErr.Message = raw.Message
	case raw.ErrorDescription != "":
		apiErr.Message = raw.ErrorDescription
	case raw.Msg != "":
		apiErr.Message = raw.Msg
	case raw.Error != "":
		apiErr.Message = raw.Error
	default:
		apiErr.Message = http.StatusText(status)
	}
	if apiErr.Code == "" && raw.Error != "" && raw.Error != apiErr.Message {
		apiErr.Code = raw.Error
	}
	return apiErr
}

// postgrestError matches the "(code) message" errors postgrest-go returns
// for 4xx and 5xx answers.
var postgrestError = regexp.MustCompile(`(?s)^\(([^)]*)\) (.*)$`)

// statusError converts an SDK error into *APIError when the call received a
// non-2xx status. Transport and decode errors are returned unchanged.
func statusError(cl *call, err error) error {
	status := cl.transport.status
	if status < 300 {
		return err
	}
	msg := err.Error()
	if m := postgrestError.FindStringSubmatch(msg); m != nil {
		return &APIError{Status: status, Code: m[1], Message: m[2]}
	}
	// gotrue-go: "response status code %d: <body>"
	if _, body, ok := strings.Cut(msg, ": "); ok && strings.HasPrefix(msg, "response status code") {
		return newAPIError(status, []byte(body))
	}
	return &APIError{Status: status, Message: msg}
}

// storageError converts a storage-go error into *APIError. Storage reports
// its status as a string field the SDK does not decode, so a missing object
// is recognised by its message.
func storageError(err error) error {
	var se *storage.StorageError
	if !errors.As(err, &se) {
		return err
	}
	apiErr := &APIError{Status: se.Status, Message: se.Message}
	if apiErr.Status == 0 && strings.Contains(strings.ToLower(se.Message), "not found") {
		apiErr.Status = http.StatusNotFound
	}
	if apiErr.Message == "" {
		apiErr.Message = "storage request failed"
	}
	return apiErr
}

// IsNotFound reports whether err is a 404 from Supabase, or a PostgREST
// "no rows" answer to a single-object request.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusNotFound || apiErr.Code == "PGRST116"
}

// IsUnauthorized reports whether err is a 401 or 403 from Supabase.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}
