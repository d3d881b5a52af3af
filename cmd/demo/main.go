// Command demo walks a two-entry user cache through a fixed scenario and
// logs what each lookup returns.
package main

import (
	"context"
	"errors"
	"log"

	"go.uber.org/zap"

	"github.com/TemirB/usercache/internal/domain"
	"github.com/TemirB/usercache/internal/storage/memory"
	"github.com/TemirB/usercache/internal/usercache"
)

type step struct {
	label  string
	id     uint32
	remove bool
}

func main() {
	zl, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()
	table := memory.NewTable(map[uint32]string{
		1:  "Frank Sinatra",
		5:  "Darth Vader",
		10: "John Lennon",
	})

	users, err := usercache.New(table,
		usercache.WithCapacity(2),
		usercache.WithEvictHook(func(id uint32, name string) {
			zl.Info("evicted", zap.Uint32("user_id", id), zap.String("name", name))
		}),
	)
	if err != nil {
		zl.Fatal("build cache", zap.Error(err))
	}

	steps := []step{
		{label: "first request, miss", id: 1},
		{label: "second request, miss", id: 5},
		{label: "remove 1 from the table", id: 1, remove: true},
		{label: "still served from cache", id: 1},
		{label: "miss evicts the oldest entry", id: 10},
		{label: "remove 5 from the table", id: 5, remove: true},
		{label: "evicted and removed, not found", id: 5},
	}

	for i, s := range steps {
		l := zl.With(zap.Int("request", i+1), zap.String("step", s.label))
		if s.remove {
			_ = table.Delete(ctx, s.id)
			l.Info("table updated", zap.Uint32("user_id", s.id), zap.Int("rows", table.Len()))
			continue
		}

		name, hit, err := users.Lookup(ctx, s.id)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			l.Info("lookup", zap.Uint32("user_id", s.id), zap.Error(err))
		case err != nil:
			l.Fatal("lookup failed", zap.Uint32("user_id", s.id), zap.Error(err))
		default:
			l.Info("lookup",
				zap.Uint32("user_id", s.id),
				zap.String("name", name),
				zap.Bool("hit", hit),
				zap.Uint32s("cached", users.IDs()),
			)
		}
	}

	st := users.Stats()
	zl.Info("done",
		zap.Uint64("hits", st.Hits),
		zap.Uint64("misses", st.Misses),
		zap.Uint64("evictions", st.Evictions),
		zap.Float64("hit_ratio", st.HitRatio()),
	)
}
