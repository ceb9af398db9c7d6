package middleware

import (
	"net/http"

	"github.com/inkpress/inkpress-api/internal/api/shared"
)

// TraceMiddleware attaches a trace ID to every request and echoes it in the
// X-Trace-ID response header for client-side correlation.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())
		w.Header().Set("X-Trace-ID", shared.GetTraceID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
