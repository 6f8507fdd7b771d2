package middleware

import (
	"net/http"

	"github.com/studenttools/gateway/internal/gateway/trafficfilter"
	"github.com/studenttools/gateway/internal/metrics"
	"github.com/studenttools/gateway/pkg/apierror"
	"github.com/studenttools/gateway/pkg/logger"
)

// TrafficFilter rejects scraper user agents and vulnerability probe
// paths before any stateful middleware runs, so blocked traffic never
// consumes rate limit or lockout state.
//
// Bots get an explicit 403. Probe paths get a plain 404 so the response
// is indistinguishable from a route that does not exist; the match is
// only visible in the server log.
func TrafficFilter(filter *trafficfilter.Filter, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sig, ok := filter.MatchUserAgent(r.Header.Get("User-Agent")); ok {
				metrics.RequestsBlocked.WithLabelValues(metrics.BlockReasonBot).Inc()
				log.Info("blocked bot",
					"signature", sig,
					"path", r.URL.Path,
					"client", ClientIdentity(r.Context()),
					"request_id", GetRequestID(r.Context()),
				)
				apierror.Forbidden("Access denied").WriteJSON(w)
				return
			}

			if pattern, ok := filter.MatchPath(r.URL.Path); ok {
				metrics.RequestsBlocked.WithLabelValues(metrics.BlockReasonSuspiciousPath).Inc()
				log.Warn("blocked suspicious path",
					"pattern", pattern,
					"path", r.URL.Path,
					"client", ClientIdentity(r.Context()),
					"request_id", GetRequestID(r.Context()),
				)
				http.NotFound(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
