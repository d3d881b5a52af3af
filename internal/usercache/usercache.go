// Package usercache caches user names in front of a user directory.
package usercache

import (
	"context"
	"reflect"
	"slices"

	"github.com/TemirB/usercache/internal/cache"
	"github.com/TemirB/usercache/internal/domain"
)

//go:generate mockgen -destination=directory_mock_test.go -package=usercache github.com/TemirB/usercache/internal/domain UserDirectory

type engine interface {
	Get(ctx context.Context, id uint32) (string, error)
	Lookup(ctx context.Context, id uint32) (string, bool, error)
	Add(id uint32, name string) bool
	Remove(id uint32) bool
	Purge()
	Keys() []uint32
	Warm(ctx context.Context, ids []uint32) int
	Len() int
	Cap() int
	Stats() cache.Stats
}

var (
	_ engine = (*cache.Synced[uint32, string])(nil)
	_ engine = (*cache.Sharded[uint32, string])(nil)
)

type options struct {
	capacity int
	shards   int
	onEvict  func(id uint32, name string)
}

type Option func(*options)

// WithCapacity sets how many users are kept. Zero turns caching off.
func WithCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithShards splits the cache into n independently locked shards.
func WithShards(n int) Option {
	return func(o *options) { o.shards = n }
}

// WithEvictHook is called for every user pushed out of the cache.
func WithEvictHook(fn func(id uint32, name string)) Option {
	return func(o *options) { o.onEvict = fn }
}

// UserCache is safe for concurrent use.
type UserCache struct {
	users engine
}

// New fails with domain.ErrNoDataSource when dir is missing.
func New(dir domain.UserDirectory, opts ...Option) (*UserCache, error) {
	if isNil(dir) {
		return nil, domain.ErrNoDataSource
	}

	o := options{capacity: cache.DefaultCapacity, shards: 1}
	for _, opt := range opts {
		opt(&o)
	}

	fetch := cache.FetcherFunc[uint32, string](dir.NameByID)
	cacheOpts := []cache.Option[uint32, string]{cache.WithCapacity[uint32, string](o.capacity)}
	if o.onEvict != nil {
		cacheOpts = append(cacheOpts, cache.OnEvict(o.onEvict))
	}

	var (
		users engine
		err   error
	)
	if o.shards > 1 {
		users, err = cache.NewSharded[uint32, string](fetch, o.shards, cacheOpts...)
	} else {
		users, err = cache.NewSynced[uint32, string](fetch, cacheOpts...)
	}
	if err != nil {
		return nil, err
	}
	return &UserCache{users: users}, nil
}

// GetUserByID returns the user's name, asking the directory on a miss.
// Directory errors, domain.ErrNotFound included, are returned unchanged.
func (u *UserCache) GetUserByID(ctx context.Context, id uint32) (string, error) {
	return u.users.Get(ctx, id)
}

// Lookup is GetUserByID that also reports a cache hit.
func (u *UserCache) Lookup(ctx context.Context, id uint32) (string, bool, error) {
	return u.users.Lookup(ctx, id)
}

// Refresh stores a name that is known to be current.
func (u *UserCache) Refresh(id uint32, name string) {
	u.users.Add(id, name)
}

// Invalidate forgets id so the next lookup goes to the directory.
func (u *UserCache) Invalidate(id uint32) bool {
	return u.users.Remove(id)
}

// Warm preloads ids listed most recent first, the order RecentLister
// returns them in. They are loaded oldest first so that the most recent id
// ends up as the most recently used entry.
func (u *UserCache) Warm(ctx context.Context, ids []uint32) int {
	ordered := slices.Clone(ids)
	slices.Reverse(ordered)
	return u.users.Warm(ctx, ordered)
}

func (u *UserCache) Purge() { u.users.Purge() }

func (u *UserCache) IDs() []uint32 { return u.users.Keys() }

func (u *UserCache) Len() int { return u.users.Len() }

func (u *UserCache) Cap() int { return u.users.Cap() }

func (u *UserCache) Stats() cache.Stats { return u.users.Stats() }

func isNil(dir domain.UserDirectory) bool {
	if dir == nil {
		return true
	}
	v := reflect.ValueOf(dir)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Interface, reflect.Slice, reflect.Chan:
		return v.IsNil()
	}
	return false
}
