// Package loginguard tracks failed login attempts per identity and locks
// out identities that keep failing.
//
// An identity is Open until it accumulates the configured number of failures
// inside the lockout window, counted from its most recent failure. While
// Locked, the login handler must reject the attempt without evaluating
// credentials at all.
package loginguard

import (
	"context"
	"sync"
	"time"

	"github.com/studenttools/gateway/internal/gateway/ratelimit"
)

const keyPrefix = "login:"

// Decision reports whether an identity may attempt a login.
type Decision struct {
	Locked bool

	// RetryAfter is the remaining lockout time. Zero unless Locked.
	RetryAfter time.Duration
}

// RetryMinutes returns the remaining lockout rounded up to whole minutes,
// for the client-facing message.
func (d Decision) RetryMinutes() int {
	if d.RetryAfter <= 0 {
		return 0
	}
	return int((d.RetryAfter + time.Minute - 1) / time.Minute)
}

// Guard applies the lockout policy on top of a ratelimit.Store. Attempt
// records share the store's Entry shape: Count is the failure count and
// ResetAt is the moment the lockout window from the last failure ends.
type Guard struct {
	store       ratelimit.Store
	maxAttempts int
	lockout     time.Duration
	now         func() time.Time

	// mu serializes read-modify-write on failure records. Login traffic is
	// low-rate, so one lock across identities is not a contention concern,
	// and it must not cover the handler's fixed delay.
	mu sync.Mutex
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

// NewGuard creates a guard locking an identity out for the given duration
// after maxAttempts failures.
func NewGuard(store ratelimit.Store, maxAttempts int, lockout time.Duration, opts ...Option) *Guard {
	g := &Guard{
		store:       store,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check reports the identity's current state. A record whose window has
// fully elapsed since the last failure is discarded.
func (g *Guard) Check(ctx context.Context, identity string) (Decision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	e, found, err := g.store.Get(ctx, keyPrefix+identity)
	if err != nil {
		return Decision{}, err
	}
	if !found || !e.ResetAt.After(now) {
		if found {
			if err := g.store.Delete(ctx, keyPrefix+identity); err != nil {
				return Decision{}, err
			}
		}
		return Decision{}, nil
	}

	if e.Count >= g.maxAttempts {
		return Decision{Locked: true, RetryAfter: e.ResetAt.Sub(now)}, nil
	}
	return Decision{}, nil
}

// RecordFailure counts one failed attempt, restarting the lockout window
// from now. It returns true when this failure locked the identity out.
func (g *Guard) RecordFailure(ctx context.Context, identity string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	e, found, err := g.store.Get(ctx, keyPrefix+identity)
	if err != nil {
		return false, err
	}
	if !found || !e.ResetAt.After(now) {
		e = ratelimit.Entry{}
	}

	e.Count++
	e.ResetAt = now.Add(g.lockout)
	if err := g.store.Set(ctx, keyPrefix+identity, e); err != nil {
		return false, err
	}

	return e.Count == g.maxAttempts, nil
}

// Reset clears the identity's failure record after a successful login.
func (g *Guard) Reset(ctx context.Context, identity string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.store.Delete(ctx, keyPrefix+identity)
}
