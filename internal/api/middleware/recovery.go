package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/learnadoodle/planner/internal/api/response"
)

// Recovery turns a panic in a handler into a 500 envelope. http.ErrAbortHandler
// is re-raised so the server can drop the connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			requestID := GetRequestID(r.Context())
			slog.Error("panic recovered", "error", rec, "requestId", requestID,
				"method", r.Method, "path", r.URL.Path, "stack", string(debug.Stack()))
			response.Err(w, http.StatusInternalServerError, response.CodeInternal, "An unexpected error occurred", requestID)
		}()
		next.ServeHTTP(w, r)
	})
}
