package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/boothwise/pkg/metrics"
)

// MetricsMiddleware records request counts, latency and error classes for an
// endpoint. 202 and 200 are both successes; everything from 400 up is
// classified with the same names writeServiceError puts on the wire.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(start).Milliseconds())
		status := strconv.Itoa(wrapped.statusCode)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, durationMs)

		if wrapped.statusCode >= http.StatusBadRequest {
			class := errorClass(wrapped.statusCode)
			metrics.RecordErrorByEndpoint(endpoint, r.Method, class)
			metrics.RecordErrorByType(class, errorSeverity(wrapped.statusCode))
			metrics.RecordErrorLatency("http", class, durationMs)
		}
	}
}

func errorClass(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusTooManyRequests:
		return "backpressure"
	case http.StatusServiceUnavailable:
		return "unavailable"
	}
	if status >= http.StatusInternalServerError {
		return "internal"
	}
	return "client_error"
}

// errorSeverity ranks a failed status. A full queue is expected under load and
// a stopped service is an operator concern, so only unexplained 5xx are high.
func errorSeverity(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return "low"
	case status == http.StatusServiceUnavailable:
		return "medium"
	case status >= http.StatusInternalServerError:
		return "high"
	default:
		return "medium"
	}
}

// responseWriter captures the status written by the wrapped handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
