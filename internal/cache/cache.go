package cache

import "context"

// Cache is an LRU cache in front of a Fetcher.
//
// Cache is not safe for concurrent use.
type Cache[K comparable, V any] struct {
	fetcher  Fetcher[K, V]
	capacity int
	onEvict  func(K, V)

	entries *recencyList[K, V]
	index   map[K]int32
	stats   Stats
}

// New creates an empty cache backed by f.
// The capacity is DefaultCapacity unless WithCapacity says otherwise.
func New[K comparable, V any](f Fetcher[K, V], opts ...Option[K, V]) (*Cache[K, V], error) {
	if f == nil {
		return nil, ErrNilFetcher
	}
	if fn, ok := f.(FetcherFunc[K, V]); ok && fn == nil {
		return nil, ErrNilFetcher
	}

	cfg := defaultConfig[K, V]()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.capacity < 0 {
		return nil, ErrInvalidCapacity
	}

	return &Cache[K, V]{
		fetcher:  f,
		capacity: cfg.capacity,
		onEvict:  cfg.onEvict,
		entries:  newRecencyList[K, V](cfg.capacity),
		index:    make(map[K]int32, min(cfg.capacity, 1<<10)),
	}, nil
}

// Get returns the value for key, fetching and caching it on a miss.
// A fetch error is returned as is and leaves the cache untouched.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, error) {
	v, _, err := c.Lookup(ctx, key)
	return v, err
}

// Lookup works like Get and also reports whether the value was served from
// the cache.
func (c *Cache[K, V]) Lookup(ctx context.Context, key K) (value V, hit bool, err error) {
	if h, ok := c.index[key]; ok {
		c.entries.moveToFront(h)
		c.stats.Hits++
		return c.entries.at(h).value, true, nil
	}

	c.stats.Misses++
	value, err = c.fetcher.Fetch(ctx, key)
	if err != nil {
		c.stats.FetchErrors++
		var zero V
		return zero, false, err
	}

	c.Add(key, value)
	return value, false, nil
}

// Add inserts or overwrites key as the most recently used entry, evicting
// the least recently used one when the cache is full. It reports whether an
// eviction happened. With zero capacity Add does nothing.
func (c *Cache[K, V]) Add(key K, value V) (evicted bool) {
	if c.capacity == 0 {
		return false
	}
	if h, ok := c.index[key]; ok {
		c.entries.at(h).value = value
		c.entries.moveToFront(h)
		return false
	}

	if c.entries.len() >= c.capacity {
		c.evictOldest()
		evicted = true
	}
	c.index[key] = c.entries.pushFront(key, value)
	return evicted
}

// Peek returns the cached value without updating its recency.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	if h, ok := c.index[key]; ok {
		return c.entries.at(h).value, true
	}
	var zero V
	return zero, false
}

// Contains reports whether key is cached without updating its recency.
func (c *Cache[K, V]) Contains(key K) bool {
	_, ok := c.index[key]
	return ok
}

// Remove drops key from the cache and reports whether it was present.
func (c *Cache[K, V]) Remove(key K) bool {
	h, ok := c.index[key]
	if !ok {
		return false
	}
	delete(c.index, key)
	c.entries.remove(h)
	return true
}

// Purge drops every entry, calling the eviction callback for each of them.
func (c *Cache[K, V]) Purge() {
	if c.onEvict != nil {
		c.entries.each(func(_ int32, e *entry[K, V]) bool {
			c.onEvict(e.key, e.value)
			return true
		})
	}
	clear(c.index)
	c.entries.reset()
}

// Keys returns the cached keys from the most to the least recently used.
func (c *Cache[K, V]) Keys() []K {
	keys := make([]K, 0, c.entries.len())
	c.entries.each(func(_ int32, e *entry[K, V]) bool {
		keys = append(keys, e.key)
		return true
	})
	return keys
}

// Warm loads keys through Get, skipping the ones the Fetcher fails on.
// It stops early when ctx is done and returns how many keys were loaded.
func (c *Cache[K, V]) Warm(ctx context.Context, keys []K) int {
	loaded := 0
	for _, k := range keys {
		if ctx.Err() != nil {
			break
		}
		if _, err := c.Get(ctx, k); err == nil {
			loaded++
		}
	}
	return loaded
}

func (c *Cache[K, V]) Len() int { return c.entries.len() }

func (c *Cache[K, V]) Cap() int { return c.capacity }

func (c *Cache[K, V]) Stats() Stats { return c.stats }

func (c *Cache[K, V]) evictOldest() {
	h := c.entries.back()
	if h == nilHandle {
		return
	}
	key, value := c.entries.remove(h)
	delete(c.index, key)
	c.stats.Evictions++
	if c.onEvict != nil {
		c.onEvict(key, value)
	}
}
