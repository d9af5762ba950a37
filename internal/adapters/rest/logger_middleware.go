package rest

import (
	"net/http"

	"trojmiasto-monitor/internal/contextkeys"
	"trojmiasto-monitor/internal/core/port"

	"github.com/google/uuid"
)

// LoggerMiddleware кладет в контекст запроса логгер с trace ID. Входящий
// X-Trace-Id сохраняется, иначе генерируется новый.
func LoggerMiddleware(logger port.LoggerPort) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get("X-Trace-Id")
			if traceID == "" {
				traceID = uuid.NewString()
			}

			requestLogger := logger.WithFields(port.Fields{
				"trace_id": traceID,
				"method":   r.Method,
				"path":     r.URL.Path,
			})

			ctx := contextkeys.ContextWithLogger(r.Context(), requestLogger)
			ctx = contextkeys.ContextWithTraceID(ctx, traceID)
			w.Header().Set("X-Trace-Id", traceID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
