package observability

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInmemPush(t *testing.T) {
	tests := []struct {
		name     string
		max      int
		pushes   []string
		expected []string
	}{
		{
			name:     "within limit",
			max:      3,
			pushes:   []string{"a", "b", "c"},
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "oldest dropped",
			max:      2,
			pushes:   []string{"a", "b", "c"},
			expected: []string{"b", "c"},
		},
		{
			name:     "several overflows",
			max:      2,
			pushes:   []string{"a", "b", "c", "d", "e"},
			expected: []string{"d", "e"},
		},
		{
			name:     "nothing kept",
			max:      0,
			pushes:   []string{"a", "b"},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewInmem(tt.max)
			for _, k := range tt.pushes {
				m.push(&observe{Kind: k})
			}

			snap := m.Snapshot()
			kinds := []string{}
			for _, o := range snap.Recent {
				kinds = append(kinds, o.Kind)
			}
			require.Equal(t, tt.expected, kinds)
			require.Equal(t, len(tt.pushes), snap.Totals.Observations)
		})
	}
}

func TestInmemObserve(t *testing.T) {
	tests := []struct {
		name     string
		action   func(m *Inmem)
		expected observe
	}{
		{
			name:     "lookup",
			action:   func(m *Inmem) { m.ObserveLookup("source", 0.1, 3.2) },
			expected: observe{Kind: "lookup", Source: "source", Ms: 0.1, SourceMs: 3.2},
		},
		{
			name:     "upsert",
			action:   func(m *Inmem) { m.ObserveUpsert(1.5) },
			expected: observe{Kind: "upsert", SourceMs: 1.5},
		},
		{
			name:     "http",
			action:   func(m *Inmem) { m.ObserveHTTP("GET", "/users/{id}", 404, 2) },
			expected: observe{Kind: "http", Method: "GET", Route: "/users/{id}", Status: 404, Ms: 2},
		},
		{
			name:     "kafka",
			action:   func(m *Inmem) { m.ObserveKafka(7, true) },
			expected: observe{Kind: "kafka", Ms: 7, OK: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewInmem(4)
			tt.action(m)

			snap := m.Snapshot()
			require.Equal(t, []observe{tt.expected}, snap.Recent)
		})
	}
}

func TestInmemTotals(t *testing.T) {
	m := NewInmem(10)
	m.IncCacheHit()
	m.IncCacheHit()
	m.IncCacheMiss()
	m.IncEviction()
	m.ObserveKafka(1, true)
	m.ObserveKafka(1, false)
	m.ObserveKafka(1, false)

	require.Equal(t, Totals{
		CacheHits:    2,
		CacheMisses:  1,
		Evictions:    1,
		KafkaOK:      1,
		KafkaFailed:  2,
		Observations: 3,
	}, m.Snapshot().Totals)
}

func TestInmemConcurrent(t *testing.T) {
	m := NewInmem(100)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.push(&observe{Kind: strconv.Itoa(i)})
		}(i)
	}
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncCacheHit()
		}()
	}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncCacheMiss()
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	require.Len(t, snap.Recent, 50)
	require.Equal(t, 30, snap.Totals.CacheHits)
	require.Equal(t, 20, snap.Totals.CacheMisses)
}

func TestSnapshotIsACopy(t *testing.T) {
	m := NewInmem(2)
	m.ObserveUpsert(1)

	snap := m.Snapshot()
	snap.Recent[0].Kind = "changed"

	require.Equal(t, "upsert", m.Snapshot().Recent[0].Kind)
}
