package service

import "github.com/TemirB/usercache/internal/cache"

type LookupSource string

const (
	SourceCache     LookupSource = "cache"
	SourceDirectory LookupSource = "source"
)

// LookupStats times a lookup. On a miss the fetch dominates, so the whole
// call is reported as SourceMs.
type LookupStats struct {
	Source   LookupSource
	CacheMs  float64
	SourceMs float64
}

type UpsertStats struct {
	WriteMs float64
}

type CacheStats struct {
	cache.Stats
	Len      int     `json:"len"`
	Cap      int     `json:"cap"`
	HitRatio float64 `json:"hit_ratio"`
}
