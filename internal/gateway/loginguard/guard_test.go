package loginguard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/studenttools/gateway/internal/gateway/ratelimit"
)

const (
	testMaxAttempts = 5
	testLockout     = 15 * time.Minute
)

func newTestGuard(now *time.Time) *Guard {
	clock := func() time.Time { return *now }
	store := ratelimit.NewMemoryStore(ratelimit.WithClock(clock))
	return NewGuard(store, testMaxAttempts, testLockout, WithClock(clock))
}

func TestGuard_OpenByDefault(t *testing.T) {
	now := time.Now()
	g := newTestGuard(&now)

	d, err := g.Check(context.Background(), "203.0.113.5")
	require.NoError(t, err)
	assert.False(t, d.Locked)
	assert.Zero(t, d.RetryAfter)
}

func TestGuard_LocksAfterMaxFailures(t *testing.T) {
	now := time.Now()
	g := newTestGuard(&now)
	ctx := context.Background()

	for i := 1; i < testMaxAttempts; i++ {
		locked, err := g.RecordFailure(ctx, "203.0.113.5")
		require.NoError(t, err)
		assert.False(t, locked, "failure %d should not lock", i)

		d, err := g.Check(ctx, "203.0.113.5")
		require.NoError(t, err)
		assert.False(t, d.Locked)
	}

	locked, err := g.RecordFailure(ctx, "203.0.113.5")
	require.NoError(t, err)
	assert.True(t, locked)

	d, err := g.Check(ctx, "203.0.113.5")
	require.NoError(t, err)
	assert.True(t, d.Locked)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, testLockout)
}

func TestGuard_WindowCountsFromLastFailure(t *testing.T) {
	start := time.Now()
	now := start
	g := newTestGuard(&now)
	ctx := context.Background()

	// Failures at t=0..4s, then a check at t=5s: locked with roughly 899s left.
	for i := 0; i < testMaxAttempts; i++ {
		now = start.Add(time.Duration(i) * time.Second)
		_, err := g.RecordFailure(ctx, "203.0.113.5")
		require.NoError(t, err)
	}

	now = start.Add(5 * time.Second)
	d, err := g.Check(ctx, "203.0.113.5")
	require.NoError(t, err)
	require.True(t, d.Locked)
	assert.Equal(t, testLockout-time.Second, d.RetryAfter)

	// At t=901s the window from the last failure (t=4s) has elapsed.
	now = start.Add(901 * time.Second)
	d, err = g.Check(ctx, "203.0.113.5")
	require.NoError(t, err)
	assert.False(t, d.Locked)
}

func TestGuard_StaleFailuresDiscarded(t *testing.T) {
	start := time.Now()
	now := start
	g := newTestGuard(&now)
	ctx := context.Background()

	// Four old failures, then one after the window: count restarts at 1.
	for i := 0; i < 4; i++ {
		_, err := g.RecordFailure(ctx, "client")
		require.NoError(t, err)
	}

	now = start.Add(testLockout + time.Second)
	locked, err := g.RecordFailure(ctx, "client")
	require.NoError(t, err)
	assert.False(t, locked)

	// Four more failures lock it, proving the count restarted.
	for i := 0; i < 3; i++ {
		locked, err = g.RecordFailure(ctx, "client")
		require.NoError(t, err)
		assert.False(t, locked)
	}
	locked, err = g.RecordFailure(ctx, "client")
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestGuard_Reset(t *testing.T) {
	now := time.Now()
	g := newTestGuard(&now)
	ctx := context.Background()

	for i := 0; i < testMaxAttempts; i++ {
		_, err := g.RecordFailure(ctx, "client")
		require.NoError(t, err)
	}
	d, err := g.Check(ctx, "client")
	require.NoError(t, err)
	require.True(t, d.Locked)

	require.NoError(t, g.Reset(ctx, "client"))

	d, err = g.Check(ctx, "client")
	require.NoError(t, err)
	assert.False(t, d.Locked)
}

func TestGuard_IdentitiesAreIndependent(t *testing.T) {
	now := time.Now()
	g := newTestGuard(&now)
	ctx := context.Background()

	for i := 0; i < testMaxAttempts; i++ {
		_, err := g.RecordFailure(ctx, "a")
		require.NoError(t, err)
	}

	d, err := g.Check(ctx, "b")
	require.NoError(t, err)
	assert.False(t, d.Locked)
}

func TestDecision_RetryMinutes(t *testing.T) {
	assert.Equal(t, 0, Decision{}.RetryMinutes())
	assert.Equal(t, 1, Decision{Locked: true, RetryAfter: time.Second}.RetryMinutes())
	assert.Equal(t, 15, Decision{Locked: true, RetryAfter: 15 * time.Minute}.RetryMinutes())
	assert.Equal(t, 15, Decision{Locked: true, RetryAfter: 14*time.Minute + 59*time.Second}.RetryMinutes())
}

func TestStaticVerifier(t *testing.T) {
	v := NewStaticVerifier("admin@example.com", "s3cret-passw0rd", false)

	assert.True(t, v.Matches("admin@example.com", "s3cret-passw0rd"))
	assert.False(t, v.Matches("admin@example.com", "wrong"))
	assert.False(t, v.Matches("other@example.com", "s3cret-passw0rd"))
	assert.False(t, v.Matches("", ""))
}

func TestStaticVerifier_Bcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-passw0rd"), bcrypt.MinCost)
	require.NoError(t, err)

	v := NewStaticVerifier("admin@example.com", string(hash), true)
	assert.True(t, v.Matches("admin@example.com", "s3cret-passw0rd"))
	assert.False(t, v.Matches("admin@example.com", "wrong"))
	assert.False(t, v.Matches("other@example.com", "s3cret-passw0rd"))
}
