package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/inkpress/inkpress-api/internal/platform/logger"
)

// ErrorResponse is the standard error body. The trace ID lets a client
// report a failure the operator can correlate with logs.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// RespondWithJSON writes a JSON response with the given status code.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "failed to encode JSON response", "error", err)
	}
}

// RespondWithError writes a sanitized JSON error response. The underlying
// error, when given, is logged but never sent to the client.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	traceID := GetTraceID(r.Context())

	level := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}

	attrs := []any{
		"status_code", status,
		"message", message,
		"trace_id", traceID,
		"path", r.URL.Path,
		"method", r.Method,
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	logger.FromContext(r.Context()).Log(r.Context(), level, "API error response", attrs...)

	RespondWithJSON(w, r, status, ErrorResponse{Error: message, TraceID: traceID})
}
