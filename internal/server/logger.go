package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/safelanes/internal/metrics"
)

// RequestLogger is a middleware to log HTTP requests and record request metrics.
// It must wrap the ServeMux directly so the matched pattern is visible.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		metrics.ObserveHTTP(r.Method, r.Pattern, ww.statusCode, elapsed)

		event := log.Info()
		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			event = log.Debug()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.statusCode).
			Str("ip", r.RemoteAddr).
			Dur("duration", elapsed).
			Msg("Request processed")
	})
}

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before writing to the underlying response writer.
func (w *responseWriterWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *responseWriterWrapper) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
