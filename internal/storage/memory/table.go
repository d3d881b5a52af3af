// Package memory keeps users in a process-local table.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/TemirB/usercache/internal/domain"
)

// Table is a concurrency-safe id -> name map.
type Table struct {
	mu    sync.RWMutex
	names map[uint32]string
}

// NewTable copies seed into a new table.
func NewTable(seed map[uint32]string) *Table {
	names := make(map[uint32]string, len(seed))
	maps.Copy(names, seed)
	return &Table{names: names}
}

func (t *Table) NameByID(_ context.Context, id uint32) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	name, ok := t.names[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return name, nil
}

func (t *Table) Upsert(_ context.Context, u domain.User) error {
	t.mu.Lock()
	t.names[u.ID] = u.Name
	t.mu.Unlock()
	return nil
}

// Delete is idempotent.
func (t *Table) Delete(_ context.Context, id uint32) error {
	t.mu.Lock()
	delete(t.names, id)
	t.mu.Unlock()
	return nil
}

// RecentUserIDs has no notion of recency and returns the lowest ids.
func (t *Table) RecentUserIDs(_ context.Context, limit int) ([]uint32, error) {
	t.mu.RLock()
	ids := slices.Sorted(maps.Keys(t.names))
	t.mu.RUnlock()

	if limit >= 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.names)
}
