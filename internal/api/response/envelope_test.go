package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnadoodle/planner/internal/api/response"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestNewMeta(t *testing.T) {
	t.Parallel()

	before := time.Now().UTC().Add(-time.Second)
	meta := response.NewMeta("")

	_, err := uuid.Parse(meta.RequestID)
	assert.NoError(t, err, "requestId should be a generated UUID")

	ts, err := time.Parse(time.RFC3339, meta.Timestamp)
	require.NoError(t, err)
	assert.False(t, ts.Before(before))

	assert.Equal(t, "plan-req-1", response.NewMeta("plan-req-1").RequestID)
}

func TestSuccess(t *testing.T) {
	t.Parallel()

	// Arrange
	w := httptest.NewRecorder()

	// Act
	response.Success(w, http.StatusCreated, map[string]int{"shifted": 4}, "req-ok")

	// Assert
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	env := decode(t, w)
	assert.Nil(t, env["error"])
	assert.Equal(t, float64(4), env["data"].(map[string]any)["shifted"])
	assert.Equal(t, "req-ok", env["meta"].(map[string]any)["requestId"])
}

func TestSuccessList(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()

	response.SuccessList(w, []string{"Maya", "Eli"}, 2, "req-list")

	assert.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Len(t, env["data"], 2)
	meta := env["meta"].(map[string]any)
	assert.Equal(t, float64(2), meta["total"])
	assert.Equal(t, "req-list", meta["requestId"])
	assert.NotEmpty(t, meta["timestamp"])
}

func TestErr(t *testing.T) {
	t.Parallel()

	// Arrange
	w := httptest.NewRecorder()

	// Act
	response.Err(w, http.StatusForbidden, response.CodeForbidden, "event does not belong to your family", "req-err")

	// Assert
	assert.Equal(t, http.StatusForbidden, w.Code)
	env := decode(t, w)
	assert.Nil(t, env["data"])

	apiErr := env["error"].(map[string]any)
	assert.Equal(t, response.CodeForbidden, apiErr["code"])
	assert.Equal(t, "event does not belong to your family", apiErr["message"])
	_, hasDetails := apiErr["details"]
	assert.False(t, hasDetails, "details are omitted when empty")
}

func TestErrWithDetails(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	details := []map[string]string{{"field": "week_start", "message": "must be a Monday"}}

	response.ErrWithDetails(w, http.StatusUnprocessableEntity, response.CodeValidation, "validation failed", details, "req-val")

	env := decode(t, w)
	apiErr := env["error"].(map[string]any)
	assert.Equal(t, response.CodeValidation, apiErr["code"])
	got := apiErr["details"].([]any)
	require.Len(t, got, 1)
	assert.Equal(t, "week_start", got[0].(map[string]any)["field"])
}
