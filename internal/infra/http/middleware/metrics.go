package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/studenttools/gateway/internal/metrics"
)

// Metrics records request counts and durations. The metrics endpoint
// itself is skipped to avoid self-scrape noise.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := &responseWriter{ResponseWriter: w}

			next.ServeHTTP(rw, r)

			status := rw.status
			if status == 0 {
				status = http.StatusOK
			}

			metrics.RequestsTotal.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
			metrics.RequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
		})
	}
}
