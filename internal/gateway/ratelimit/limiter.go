package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Request categories. Auth endpoints get a strict window, everything else
// under the API prefix gets a generous one.
const (
	CategoryAuth = "auth"
	CategoryAPI  = "api"
)

// Rule defines a category's fixed window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Status describes the current window for one (identity, category) pair.
type Status struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter applies per-category fixed-window rules on top of a Store.
type Limiter struct {
	store Store
	rules map[string]Rule
}

// NewLimiter creates a limiter with the given per-category rules.
func NewLimiter(store Store, rules map[string]Rule) *Limiter {
	return &Limiter{store: store, rules: rules}
}

// DefaultRules returns the stock category rules: 5 auth requests per
// 15 minutes, 100 API requests per minute.
func DefaultRules() map[string]Rule {
	return map[string]Rule{
		CategoryAuth: {Limit: 5, Window: 15 * time.Minute},
		CategoryAPI:  {Limit: 100, Window: time.Minute},
	}
}

// Rule returns the rule for a category.
func (l *Limiter) Rule(category string) (Rule, bool) {
	r, ok := l.rules[category]
	return r, ok
}

func key(identity, category string) string {
	return category + ":" + identity
}

// IsLimited consumes one slot from the identity's window for the category
// and reports whether the request exceeded the limit. A limited request does
// not advance the counter.
func (l *Limiter) IsLimited(ctx context.Context, identity, category string) (bool, Status, error) {
	rule, ok := l.rules[category]
	if !ok {
		return false, Status{}, fmt.Errorf("ratelimit: unknown category %q", category)
	}

	e, limited, err := l.store.Hit(ctx, key(identity, category), rule.Limit, rule.Window)
	if err != nil {
		return false, Status{}, err
	}

	return limited, statusFor(rule, e), nil
}

// Peek reports the current window state without consuming a slot.
func (l *Limiter) Peek(ctx context.Context, identity, category string) (Status, error) {
	rule, ok := l.rules[category]
	if !ok {
		return Status{}, fmt.Errorf("ratelimit: unknown category %q", category)
	}

	e, found, err := l.store.Get(ctx, key(identity, category))
	if err != nil {
		return Status{}, err
	}
	if !found {
		return Status{Limit: rule.Limit, Remaining: rule.Limit}, nil
	}

	return statusFor(rule, e), nil
}

// Reset clears the identity's window for the category.
func (l *Limiter) Reset(ctx context.Context, identity, category string) error {
	return l.store.Delete(ctx, key(identity, category))
}

func statusFor(rule Rule, e Entry) Status {
	remaining := rule.Limit - e.Count
	if remaining < 0 {
		remaining = 0
	}
	return Status{Limit: rule.Limit, Remaining: remaining, ResetAt: e.ResetAt}
}
