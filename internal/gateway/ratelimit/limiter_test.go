package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(now *time.Time) *Limiter {
	store := NewMemoryStore(WithClock(func() time.Time { return *now }))
	return NewLimiter(store, DefaultRules())
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	assert.Equal(t, Rule{Limit: 5, Window: 15 * time.Minute}, rules[CategoryAuth])
	assert.Equal(t, Rule{Limit: 100, Window: time.Minute}, rules[CategoryAPI])
}

func TestLimiter_AuthCategory(t *testing.T) {
	now := time.Now()
	l := newTestLimiter(&now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		limited, status, err := l.IsLimited(ctx, "203.0.113.5", CategoryAuth)
		require.NoError(t, err)
		assert.False(t, limited)
		assert.Equal(t, 5-i-1, status.Remaining)
	}

	limited, status, err := l.IsLimited(ctx, "203.0.113.5", CategoryAuth)
	require.NoError(t, err)
	assert.True(t, limited)
	assert.Equal(t, 0, status.Remaining)
	assert.Equal(t, 5, status.Limit)

	// A different identity is unaffected.
	limited, _, err = l.IsLimited(ctx, "198.51.100.7", CategoryAuth)
	require.NoError(t, err)
	assert.False(t, limited)
}

func TestLimiter_APICategoryResets(t *testing.T) {
	now := time.Now()
	start := now
	l := newTestLimiter(&now)
	ctx := context.Background()

	// Exactly 100 requests pass, request 101 is rejected.
	for i := 0; i < 100; i++ {
		limited, _, err := l.IsLimited(ctx, "client", CategoryAPI)
		require.NoError(t, err)
		require.False(t, limited, "request %d should pass", i+1)
	}
	limited, _, err := l.IsLimited(ctx, "client", CategoryAPI)
	require.NoError(t, err)
	assert.True(t, limited)

	// After the window elapses the counter starts over.
	now = start.Add(61 * time.Second)
	limited, status, err := l.IsLimited(ctx, "client", CategoryAPI)
	require.NoError(t, err)
	assert.False(t, limited)
	assert.Equal(t, 99, status.Remaining)
}

func TestLimiter_CategoriesAreIndependent(t *testing.T) {
	now := time.Now()
	l := newTestLimiter(&now)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, err := l.IsLimited(ctx, "client", CategoryAuth)
		require.NoError(t, err)
	}
	limited, _, err := l.IsLimited(ctx, "client", CategoryAuth)
	require.NoError(t, err)
	require.True(t, limited)

	// Exhausting auth does not touch the api window.
	limited, status, err := l.IsLimited(ctx, "client", CategoryAPI)
	require.NoError(t, err)
	assert.False(t, limited)
	assert.Equal(t, 99, status.Remaining)
}

func TestLimiter_Peek(t *testing.T) {
	now := time.Now()
	l := newTestLimiter(&now)
	ctx := context.Background()

	// Peek on an unseen identity reports a full window and consumes nothing.
	status, err := l.Peek(ctx, "fresh", CategoryAuth)
	require.NoError(t, err)
	assert.Equal(t, 5, status.Remaining)

	_, _, err = l.IsLimited(ctx, "fresh", CategoryAuth)
	require.NoError(t, err)

	status, err = l.Peek(ctx, "fresh", CategoryAuth)
	require.NoError(t, err)
	assert.Equal(t, 4, status.Remaining)

	// Peek again: still 4, nothing consumed.
	status, err = l.Peek(ctx, "fresh", CategoryAuth)
	require.NoError(t, err)
	assert.Equal(t, 4, status.Remaining)
}

func TestLimiter_Reset(t *testing.T) {
	now := time.Now()
	l := newTestLimiter(&now)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, _, err := l.IsLimited(ctx, "client", CategoryAuth)
		require.NoError(t, err)
	}

	require.NoError(t, l.Reset(ctx, "client", CategoryAuth))

	limited, status, err := l.IsLimited(ctx, "client", CategoryAuth)
	require.NoError(t, err)
	assert.False(t, limited)
	assert.Equal(t, 4, status.Remaining)
}

func TestLimiter_UnknownCategory(t *testing.T) {
	now := time.Now()
	l := newTestLimiter(&now)
	ctx := context.Background()

	_, _, err := l.IsLimited(ctx, "client", "bogus")
	assert.Error(t, err)

	_, err = l.Peek(ctx, "client", "bogus")
	assert.Error(t, err)
}
