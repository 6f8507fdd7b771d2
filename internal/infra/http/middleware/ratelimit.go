package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/studenttools/gateway/internal/gateway/ratelimit"
	"github.com/studenttools/gateway/internal/metrics"
	"github.com/studenttools/gateway/pkg/apierror"
	"github.com/studenttools/gateway/pkg/logger"
)

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	Limiter *ratelimit.Limiter
	Logger  *logger.Logger
	// SkipPaths bypass rate limiting entirely (health, metrics).
	SkipPaths []string
}

// RateLimit enforces per-client request limits on API routes.
// Auth endpoints get the strict limit; everything else under /api/
// gets the general limit. Non-API routes are not counted.
//
// Standard X-RateLimit-* headers are set on every counted response so
// clients can pace themselves before hitting the limit.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault()
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			category, counted := categoryForPath(r.URL.Path)
			if !counted {
				next.ServeHTTP(w, r)
				return
			}

			identity := ClientIdentity(r.Context())
			limited, status, err := cfg.Limiter.IsLimited(r.Context(), identity, category)
			if err != nil {
				// Fail open: a broken store should degrade to
				// unthrottled service, not an outage.
				log.Error("rate limit check failed",
					"error", err,
					"category", category,
					"client", identity,
				)
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, status)

			if limited {
				metrics.RequestsBlocked.WithLabelValues(metrics.BlockReasonRateLimit).Inc()
				metrics.RateLimitRejections.WithLabelValues(category).Inc()

				retryAfter := int(time.Until(status.ResetAt).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				log.Warn("rate limit exceeded",
					"category", category,
					"client", identity,
					"path", r.URL.Path,
				)
				apierror.TooManyRequests("Rate limit exceeded. Please try again later.").
					WriteJSONWithRequestID(w, GetRequestID(r.Context()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func categoryForPath(path string) (string, bool) {
	switch {
	case strings.HasPrefix(path, "/api/auth/"):
		return ratelimit.CategoryAuth, true
	case strings.HasPrefix(path, "/api/"):
		return ratelimit.CategoryAPI, true
	default:
		return "", false
	}
}

func setRateLimitHeaders(w http.ResponseWriter, status ratelimit.Status) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(status.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(status.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(status.ResetAt.Unix(), 10))
}
