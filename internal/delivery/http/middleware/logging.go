package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// Logging emits one line per request, leveled by outcome so scoring-service
// failures surfaced as 5xx stand out in the stream.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"bytes", rw.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		}
		switch {
		case rw.statusCode >= http.StatusInternalServerError:
			slog.Error("HTTP request failed", attrs...)
		case rw.statusCode >= http.StatusBadRequest:
			slog.Warn("HTTP request rejected", attrs...)
		default:
			slog.Info("HTTP request", attrs...)
		}
	})
}
