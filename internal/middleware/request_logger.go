package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"vet-lab-report/internal/platform/logger"
)

// RequestLogger deja en el contexto un logger con request_id (de
// chimw.RequestID, que debe ir antes) y loguea una línea al terminar.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			reqLog := log.With(map[string]any{"request_id": chimw.GetReqID(r.Context())})
			ctx := logger.WithContext(r.Context(), reqLog)

			next.ServeHTTP(ww, r.WithContext(ctx))

			fields := map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if sid, ok := GetSessionID(r.Context()); ok {
				fields["session_id"] = sid
			}

			switch {
			case ww.Status() >= 500:
				reqLog.Error("request", fields)
			case r.URL.Path == "/health" || r.URL.Path == "/metrics":
				reqLog.Debug("request", fields)
			default:
				reqLog.Info("request", fields)
			}
		})
	}
}
