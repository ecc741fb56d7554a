// Package cache is the shared read-through cache for composition text and
// S3 positions described in spec.md §5: populated lazily (or via a preload
// pass) and immutable after populate, built once per session. Backed by
// hashicorp/golang-lru/v2 (an AKJUS-bsc-erigon direct dependency, reused
// here rather than hand-rolling an LRU).
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hartonomous/substrate/internal/geometry"
	"github.com/hartonomous/substrate/internal/substrate"
)

// Entry is the cached view of a composition: its resolved text and its
// physicality's S3 position.
type Entry struct {
	Text     string
	Position geometry.S3Point
}

// PositionCache is a flat hash -> (point, text) map, per spec.md §9's
// "arena of compositions addressed by content-hash ids" design note.
type PositionCache struct {
	lru *lru.Cache[substrate.Hash, Entry]
}

// New creates a PositionCache holding up to capacity entries.
func New(capacity int) (*PositionCache, error) {
	l, err := lru.New[substrate.Hash, Entry](capacity)
	if err != nil {
		return nil, err
	}
	return &PositionCache{lru: l}, nil
}

// Get returns the cached entry for id, if present.
func (c *PositionCache) Get(id substrate.Hash) (Entry, bool) {
	return c.lru.Get(id)
}

// Put populates the cache for id. Once set, an entry is treated as
// immutable for the lifetime of the session (spec.md §5).
func (c *PositionCache) Put(id substrate.Hash, e Entry) {
	c.lru.Add(id, e)
}

// Len reports how many entries are currently cached.
func (c *PositionCache) Len() int {
	return c.lru.Len()
}
