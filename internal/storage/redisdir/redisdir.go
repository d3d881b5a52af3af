// Package redisdir reads and writes users kept in a single Redis hash,
// field = decimal user id, value = name.
package redisdir

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/TemirB/usercache/internal/domain"
)

var (
	ErrParseURL = errors.New("redisdir: failed to parse redis url")
	ErrNotReady = errors.New("redisdir: redis is not ready")
)

// hashClient is the subset of redis.Cmdable the directory uses.
type hashClient interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	HKeys(ctx context.Context, key string) *redis.StringSliceCmd
}

type Directory struct {
	client hashClient
	key    string
}

func New(client hashClient, key string) *Directory {
	return &Directory{client: client, key: key}
}

func (d *Directory) NameByID(ctx context.Context, id uint32) (string, error) {
	name, err := d.client.HGet(ctx, d.key, field(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("hget %s %d: %w", d.key, id, err)
	}
	return name, nil
}

func (d *Directory) Upsert(ctx context.Context, u domain.User) error {
	if err := d.client.HSet(ctx, d.key, field(u.ID), u.Name).Err(); err != nil {
		return fmt.Errorf("hset %s %d: %w", d.key, u.ID, err)
	}
	return nil
}

func (d *Directory) Delete(ctx context.Context, id uint32) error {
	if err := d.client.HDel(ctx, d.key, field(id)).Err(); err != nil {
		return fmt.Errorf("hdel %s %d: %w", d.key, id, err)
	}
	return nil
}

// RecentUserIDs returns the lowest ids: a hash keeps no write times.
// Fields that are not decimal ids are skipped.
func (d *Directory) RecentUserIDs(ctx context.Context, limit int) ([]uint32, error) {
	fields, err := d.client.HKeys(ctx, d.key).Result()
	if err != nil {
		return nil, fmt.Errorf("hkeys %s: %w", d.key, err)
	}

	ids := make([]uint32, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint32(id))
	}
	slices.Sort(ids)
	if limit >= 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func field(id uint32) string { return strconv.FormatUint(uint64(id), 10) }

// Connect parses rawURL and pings the server up to attempts times,
// waiting interval between tries.
func Connect(ctx context.Context, rawURL string, attempts int, interval time.Duration) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.Join(ErrParseURL, err)
	}

	attempts = max(attempts, 1)
	var lastErr error
	for i := range attempts {
		client := redis.NewClient(opts)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotReady, ctx.Err())
		case <-time.After(interval):
		}
	}
	return nil, errors.Join(ErrNotReady, lastErr)
}
