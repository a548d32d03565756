package middleware

import (
	"net/http"
	"strings"
	"time"
)

// HTTPRecorder receives per-request HTTP measurements.
type HTTPRecorder interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
	RequestStarted()
	RequestFinished()
}

// Metrics returns a middleware that records HTTP metrics.
func Metrics(recorder HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			recorder.RequestStarted()
			defer recorder.RequestFinished()

			// Wrap response writer to capture status code
			wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			recorder.ObserveHTTPRequest(r.Method, normalizePath(r.URL.Path), wrapped.statusCode, time.Since(start))
		})
	}
}

// normalizePath replaces the account id to avoid high cardinality:
// /clientes/42/extrato -> /clientes/:id/extrato
func normalizePath(path string) string {
	const prefix = "/clientes/"

	rest, ok := strings.CutPrefix(path, prefix)
	if !ok || rest == "" || rest[0] == '/' {
		return path
	}

	suffix := ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		suffix = rest[i:]
	}

	return prefix + ":id" + suffix
}
