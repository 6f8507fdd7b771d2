package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

// MemoryStore is a sharded in-memory Store. Sharding keeps contention scoped
// to a fraction of the keyspace; the check-then-increment in Hit holds a
// single shard lock so concurrent hits on the same key cannot both pass the
// limit check.
type MemoryStore struct {
	shards [shardCount]*shard
	now    func() time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{now: time.Now}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]Entry)}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return s.shards[h.Sum32()%shardCount]
}

// Get returns the entry for key. Expired entries are reported as absent.
func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[key]
	if !ok || e.Expired(s.now()) {
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Set stores the entry for key.
func (s *MemoryStore) Set(_ context.Context, key string, e Entry) error {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.entries[key] = e
	return nil
}

// Delete removes the entry for key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	delete(sh.entries, key)
	return nil
}

// Hit runs one fixed-window check under the shard lock.
func (s *MemoryStore) Hit(_ context.Context, key string, limit int, window time.Duration) (Entry, bool, error) {
	now := s.now()

	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[key]
	if !ok || e.Expired(now) {
		e = Entry{Count: 1, ResetAt: now.Add(window)}
		sh.entries[key] = e
		return e, false, nil
	}

	if e.Count >= limit {
		// Do not increment past the limit.
		return e, true, nil
	}

	e.Count++
	sh.entries[key] = e
	return e, false, nil
}

// Sweep removes expired entries across all shards.
func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	now := s.now()
	removed := 0

	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, e := range sh.entries {
			if e.Expired(now) {
				delete(sh.entries, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed, nil
}

// Len reports the number of live entries. Used by tests and the sweeper log.
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}
