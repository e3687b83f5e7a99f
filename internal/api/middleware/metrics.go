package middleware

import (
	"net/http"
	"time"
)

// RequestRecorder receives one observation per served request.
type RequestRecorder interface {
	RecordRequest(method string, status int, seconds float64)
}

// Metrics returns middleware that reports every request's status and latency.
func Metrics(rec RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			rec.RecordRequest(r.Method, rw.statusCode, time.Since(start).Seconds())
		})
	}
}
