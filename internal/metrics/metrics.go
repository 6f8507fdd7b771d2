package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Block reasons for RequestsBlocked.
const (
	BlockReasonBot            = "bot"
	BlockReasonSuspiciousPath = "suspicious_path"
	BlockReasonRateLimit      = "rate_limit"
	BlockReasonLockout        = "lockout"
)

// Login attempt outcomes for LoginAttemptsTotal.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeLocked  = "locked"
)

// Request metrics
var (
	// RequestsTotal tracks all requests passing through the gateway
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of requests by method and status",
		},
		[]string{"method", "status"},
	)

	// RequestDuration tracks request handling duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Request handling duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method"},
	)

	// RequestsBlocked tracks requests rejected before reaching a handler.
	// Reason is one of: "bot", "suspicious_path", "rate_limit", "lockout".
	RequestsBlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_blocked_total",
			Help: "Total number of requests blocked by the gateway by reason",
		},
		[]string{"reason"},
	)
)

// Rate limit metrics
var (
	// RateLimitRejections tracks rate limit rejections by category
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_rate_limit_rejections_total",
			Help: "Total number of rate limited requests by category",
		},
		[]string{"category"},
	)

	// RateLimitEntriesSwept tracks expired entries removed by the sweeper
	RateLimitEntriesSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_rate_limit_entries_swept_total",
			Help: "Total number of expired rate limit entries removed",
		},
	)
)

// Login metrics
var (
	// LoginAttemptsTotal tracks login attempts by outcome.
	// Outcome is one of: "success", "failure", "locked".
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_login_attempts_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)

	// LoginLockoutsTotal tracks lockouts triggered
	LoginLockoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_login_lockouts_total",
			Help: "Total number of login lockouts triggered",
		},
	)
)

// Token metrics
var (
	// TokensIssued tracks session tokens minted
	TokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_tokens_issued_total",
			Help: "Total number of session tokens issued",
		},
	)

	// TokenVerifyFailures tracks token verification failures by kind.
	// Kind is one of: "malformed_encoding", "malformed_structure",
	// "bad_timestamp", "bad_signature", "expired".
	TokenVerifyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_token_verify_failures_total",
			Help: "Total number of token verification failures by kind",
		},
		[]string{"kind"},
	)
)
