// Package middleware provides HTTP middleware for the gateway pipeline.
package middleware

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/studenttools/gateway/pkg/logger"
)

type contextKey string

const (
	// RequestIDKey is the context key for the request ID.
	RequestIDKey contextKey = "request_id"
	// RequestIDHeader is the header carrying the request ID.
	RequestIDHeader = "X-Request-ID"
)

// RequestID adds a unique request ID to each request. An incoming
// X-Request-ID header is trusted if present so IDs survive proxy hops.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			w.Header().Set(RequestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture the status code
// and response size.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// LoggerConfig configures the request logging middleware.
type LoggerConfig struct {
	Logger *logger.Logger
	// SkipPaths are not logged (e.g. health checks, metrics).
	SkipPaths []string
	// SlowRequestThreshold logs successful requests slower than this at
	// warn level. Zero disables the check.
	SlowRequestThreshold time.Duration
}

// Logger logs each request with method, path, status, and duration.
func Logger(log *logger.Logger) func(http.Handler) http.Handler {
	return LoggerWithConfig(LoggerConfig{Logger: log})
}

// LoggerWithConfig logs requests with the given configuration.
func LoggerWithConfig(cfg LoggerConfig) func(http.Handler) http.Handler {
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

			start := time.Now()
			rw := &responseWriter{ResponseWriter: w}

			next.ServeHTTP(rw, r)

			status := rw.status
			if status == 0 {
				status = http.StatusOK
			}
			duration := time.Since(start)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration_ms", duration.Milliseconds(),
				"size", rw.size,
				"client", ClientIdentity(r.Context()),
				"request_id", GetRequestID(r.Context()),
			}

			switch {
			case status >= 500:
				log.Error("request", attrs...)
			case status >= 400:
				log.Warn("request", attrs...)
			case cfg.SlowRequestThreshold > 0 && duration > cfg.SlowRequestThreshold:
				log.Warn("slow request", attrs...)
			default:
				log.Info("request", attrs...)
			}
		})
	}
}

// RecoveryConfig configures the panic recovery middleware.
type RecoveryConfig struct {
	Logger *logger.Logger
	// IncludeStack controls whether stack traces are logged. Keep this
	// off in production.
	IncludeStack bool
}

// Recovery recovers from panics and returns a 500 error.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return RecoveryWithConfig(RecoveryConfig{Logger: log})
}

// RecoveryWithConfig recovers from panics with the given configuration.
func RecoveryWithConfig(cfg RecoveryConfig) func(http.Handler) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					attrs := []any{
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"request_id", GetRequestID(r.Context()),
					}
					if cfg.IncludeStack {
						attrs = append(attrs, "stack", string(debug.Stack()))
					}
					log.Error("panic recovered", attrs...)

					if w.Header().Get("Content-Type") == "" {
						w.Header().Set("Content-Type", "application/json")
					}
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"Internal server error"}}`))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
