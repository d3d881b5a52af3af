package cache

import (
	"context"
	"hash/maphash"
	"sync"
)

// Synced guards a Cache with a single mutex held for the whole call,
// including the fetch on a miss. Concurrent misses on one key therefore
// reach the Fetcher once.
type Synced[K comparable, V any] struct {
	mu sync.Mutex
	c  *Cache[K, V]
}

func NewSynced[K comparable, V any](f Fetcher[K, V], opts ...Option[K, V]) (*Synced[K, V], error) {
	c, err := New(f, opts...)
	if err != nil {
		return nil, err
	}
	return &Synced[K, V]{c: c}, nil
}

func (s *Synced[K, V]) Get(ctx context.Context, key K) (V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Get(ctx, key)
}

func (s *Synced[K, V]) Lookup(ctx context.Context, key K) (V, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Lookup(ctx, key)
}

func (s *Synced[K, V]) Add(key K, value V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Add(key, value)
}

func (s *Synced[K, V]) Peek(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Peek(key)
}

func (s *Synced[K, V]) Contains(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Contains(key)
}

func (s *Synced[K, V]) Remove(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Remove(key)
}

func (s *Synced[K, V]) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Purge()
}

func (s *Synced[K, V]) Keys() []K {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Keys()
}

// Warm takes the lock per key so readers are not blocked for the whole warm-up.
func (s *Synced[K, V]) Warm(ctx context.Context, keys []K) int {
	loaded := 0
	for _, k := range keys {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.Get(ctx, k); err == nil {
			loaded++
		}
	}
	return loaded
}

func (s *Synced[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Len()
}

func (s *Synced[K, V]) Cap() int { return s.c.Cap() }

func (s *Synced[K, V]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Stats()
}

// Sharded spreads keys over several Synced caches by key hash so that a slow
// fetch only blocks its own shard. Recency and eviction are tracked per shard:
// the evicted entry is the least recently used one of the shard the new key
// lands in.
type Sharded[K comparable, V any] struct {
	seed   maphash.Seed
	shards []*Synced[K, V]
}

// NewSharded splits the configured capacity across n shards: the first
// capacity%n shards get one extra slot, so the total is exactly the
// configured capacity. Shards left with no slots fetch on every call.
// n below 1 is treated as 1.
func NewSharded[K comparable, V any](f Fetcher[K, V], n int, opts ...Option[K, V]) (*Sharded[K, V], error) {
	if n < 1 {
		n = 1
	}
	cfg := defaultConfig[K, V]()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.capacity < 0 {
		return nil, ErrInvalidCapacity
	}
	per, extra := cfg.capacity/n, cfg.capacity%n

	s := &Sharded[K, V]{
		seed:   maphash.MakeSeed(),
		shards: make([]*Synced[K, V], n),
	}
	for i := range s.shards {
		size := per
		if i < extra {
			size++
		}
		shard, err := NewSynced(f, append(opts[:len(opts):len(opts)], WithCapacity[K, V](size))...)
		if err != nil {
			return nil, err
		}
		s.shards[i] = shard
	}
	return s, nil
}

func (s *Sharded[K, V]) shard(key K) *Synced[K, V] {
	return s.shards[maphash.Comparable(s.seed, key)%uint64(len(s.shards))]
}

func (s *Sharded[K, V]) Get(ctx context.Context, key K) (V, error) {
	return s.shard(key).Get(ctx, key)
}

func (s *Sharded[K, V]) Lookup(ctx context.Context, key K) (V, bool, error) {
	return s.shard(key).Lookup(ctx, key)
}

func (s *Sharded[K, V]) Add(key K, value V) bool { return s.shard(key).Add(key, value) }

func (s *Sharded[K, V]) Peek(key K) (V, bool) { return s.shard(key).Peek(key) }

func (s *Sharded[K, V]) Contains(key K) bool { return s.shard(key).Contains(key) }

func (s *Sharded[K, V]) Remove(key K) bool { return s.shard(key).Remove(key) }

func (s *Sharded[K, V]) Purge() {
	for _, sh := range s.shards {
		sh.Purge()
	}
}

// Keys concatenates the per-shard recency orders.
func (s *Sharded[K, V]) Keys() []K {
	var keys []K
	for _, sh := range s.shards {
		keys = append(keys, sh.Keys()...)
	}
	return keys
}

func (s *Sharded[K, V]) Warm(ctx context.Context, keys []K) int {
	loaded := 0
	for _, k := range keys {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.Get(ctx, k); err == nil {
			loaded++
		}
	}
	return loaded
}

func (s *Sharded[K, V]) Len() int {
	n := 0
	for _, sh := range s.shards {
		n += sh.Len()
	}
	return n
}

func (s *Sharded[K, V]) Cap() int {
	n := 0
	for _, sh := range s.shards {
		n += sh.Cap()
	}
	return n
}

func (s *Sharded[K, V]) Stats() Stats {
	var st Stats
	for _, sh := range s.shards {
		st = st.add(sh.Stats())
	}
	return st
}
