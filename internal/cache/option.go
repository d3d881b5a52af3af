package cache

// DefaultCapacity is used when WithCapacity is not given.
const DefaultCapacity = 1 << 10

type config[K comparable, V any] struct {
	capacity int
	onEvict  func(K, V)
}

func defaultConfig[K comparable, V any]() config[K, V] {
	return config[K, V]{capacity: DefaultCapacity}
}

// Option configures a Cache.
type Option[K comparable, V any] func(*config[K, V])

// WithCapacity sets the maximum number of cached entries.
// Zero disables caching: every Get goes to the Fetcher and nothing is kept.
func WithCapacity[K comparable, V any](n int) Option[K, V] {
	return func(c *config[K, V]) {
		c.capacity = n
	}
}

// OnEvict sets a callback invoked for every entry pushed out by capacity
// pressure or by Purge. Remove does not trigger it.
func OnEvict[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *config[K, V]) {
		c.onEvict = fn
	}
}
