package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Hit_FixedWindow(t *testing.T) {
	base := time.Now()
	current := base
	store := NewMemoryStore(WithClock(func() time.Time { return current }))
	ctx := context.Background()

	// First hit creates the window.
	e, limited, err := store.Hit(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, limited)
	assert.Equal(t, 1, e.Count)
	assert.Equal(t, base.Add(time.Minute), e.ResetAt)

	// Hits 2 and 3 pass.
	for want := 2; want <= 3; want++ {
		e, limited, err = store.Hit(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, limited)
		assert.Equal(t, want, e.Count)
	}

	// Hit 4 is limited and the count stays at the limit.
	e, limited, err = store.Hit(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, limited)
	assert.Equal(t, 3, e.Count)

	// The reset boundary itself is still inside the window.
	current = base.Add(time.Minute)
	_, limited, err = store.Hit(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, limited)

	// Past the boundary the window recreates from scratch.
	current = base.Add(time.Minute + time.Millisecond)
	e, limited, err = store.Hit(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, limited)
	assert.Equal(t, 1, e.Count)
	assert.Equal(t, current.Add(time.Minute), e.ResetAt)
}

func TestMemoryStore_GetSetDelete(t *testing.T) {
	base := time.Now()
	current := base
	store := NewMemoryStore(WithClock(func() time.Time { return current }))
	ctx := context.Background()

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	want := Entry{Count: 4, ResetAt: base.Add(time.Minute)}
	require.NoError(t, store.Set(ctx, "k", want))

	got, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	// Expired entries read as absent.
	current = base.Add(2 * time.Minute)
	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	current = base
	require.NoError(t, store.Delete(ctx, "k"))
	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, limited, err := store.Hit(ctx, "a", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, limited)

	_, limited, err = store.Hit(ctx, "a", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, limited)

	// A different key has its own window.
	_, limited, err = store.Hit(ctx, "b", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, limited)
}

func TestMemoryStore_Sweep(t *testing.T) {
	base := time.Now()
	current := base
	store := NewMemoryStore(WithClock(func() time.Time { return current }))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "live", Entry{Count: 1, ResetAt: base.Add(time.Hour)}))
	require.NoError(t, store.Set(ctx, "dead1", Entry{Count: 5, ResetAt: base.Add(time.Minute)}))
	require.NoError(t, store.Set(ctx, "dead2", Entry{Count: 2, ResetAt: base.Add(time.Minute)}))

	current = base.Add(2 * time.Minute)
	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, store.Len())

	_, found, err := store.Get(ctx, "live")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestMemoryStore_ConcurrentHits(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const limit = 100
	const attempts = 250

	var passed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, limited, err := store.Hit(ctx, "shared", limit, time.Minute)
			assert.NoError(t, err)
			if !limited {
				passed.Add(1)
			}
		}()
	}
	wg.Wait()

	// Exactly limit requests pass regardless of interleaving.
	assert.Equal(t, int64(limit), passed.Load())

	e, _, err := store.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, limit, e.Count)
}
