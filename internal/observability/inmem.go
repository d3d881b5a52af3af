package observability

import (
	"slices"
	"sync"
)

type observe struct {
	Kind     string  `json:"kind"`
	Source   string  `json:"source,omitempty"`
	Method   string  `json:"method,omitempty"`
	Route    string  `json:"route,omitempty"`
	Status   int     `json:"status,omitempty"`
	Ms       float64 `json:"ms"`
	SourceMs float64 `json:"source_ms,omitempty"`
	OK       bool    `json:"ok,omitempty"`
}

type Totals struct {
	CacheHits    int `json:"cache_hits"`
	CacheMisses  int `json:"cache_misses"`
	Evictions    int `json:"evictions"`
	KafkaOK      int `json:"kafka_ok"`
	KafkaFailed  int `json:"kafka_failed"`
	Observations int `json:"observations"`
}

type Snapshot struct {
	Totals Totals    `json:"totals"`
	Recent []observe `json:"recent"`
}

// Inmem keeps running totals and the last max observations.
type Inmem struct {
	mu     sync.Mutex
	last   []*observe
	max    int
	totals Totals
}

func NewInmem(max int) *Inmem {
	return &Inmem{max: max}
}

func (m *Inmem) push(v *observe) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totals.Observations++
	if m.max <= 0 {
		return
	}
	if len(m.last) >= m.max {
		copy(m.last, m.last[1:])
		m.last[len(m.last)-1] = v
		return
	}
	m.last = append(m.last, v)
}

func (m *Inmem) ObserveLookup(source string, cacheMs, sourceMs float64) {
	m.push(&observe{Kind: "lookup", Source: source, Ms: cacheMs, SourceMs: sourceMs})
}

func (m *Inmem) ObserveUpsert(writeMs float64) {
	m.push(&observe{Kind: "upsert", SourceMs: writeMs})
}

func (m *Inmem) ObserveHTTP(method, route string, status int, durMs float64) {
	m.push(&observe{Kind: "http", Method: method, Route: route, Status: status, Ms: durMs})
}

func (m *Inmem) ObserveKafka(processMs float64, ok bool) {
	m.mu.Lock()
	if ok {
		m.totals.KafkaOK++
	} else {
		m.totals.KafkaFailed++
	}
	m.mu.Unlock()

	m.push(&observe{Kind: "kafka", Ms: processMs, OK: ok})
}

func (m *Inmem) IncCacheHit() {
	m.mu.Lock()
	m.totals.CacheHits++
	m.mu.Unlock()
}

func (m *Inmem) IncCacheMiss() {
	m.mu.Lock()
	m.totals.CacheMisses++
	m.mu.Unlock()
}

func (m *Inmem) IncEviction() {
	m.mu.Lock()
	m.totals.Evictions++
	m.mu.Unlock()
}

// Snapshot copies the totals and the recent observations, oldest first.
func (m *Inmem) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	recent := make([]observe, 0, len(m.last))
	for _, o := range slices.Clone(m.last) {
		recent = append(recent, *o)
	}
	return Snapshot{Totals: m.totals, Recent: recent}
}
