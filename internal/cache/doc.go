// Package cache implements a least-recently-used cache that sits in front of
// a slow or fallible data source.
//
// The engine combines two structures:
//   - a recency list ordered from most to least recently used entry
//   - a key index mapping every cached key to a stable handle into that list
//
// Both are kept consistent on every operation, which gives O(1) hits, misses
// and evictions. On a miss the engine calls its Fetcher exactly once and
// stores the result; errors from the Fetcher are returned unchanged.
//
// Cache is not safe for concurrent use. Wrap it with Synced (one lock around
// every call) or Sharded (one lock per key-hash shard) when several goroutines
// share it.
package cache
