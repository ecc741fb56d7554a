package main

import (
	"fmt"

	"github.com/hartonomous/substrate/internal/cache"
	"github.com/hartonomous/substrate/internal/config"
	"github.com/hartonomous/substrate/internal/graph"
	"github.com/hartonomous/substrate/internal/hashid"
	"github.com/hartonomous/substrate/internal/store"
	"github.com/hartonomous/substrate/internal/substrate"
)

const defaultCacheCapacity = 100_000

// openStore opens the configured sqlite store and wraps it in a fresh
// graph.Arena with the shared read-through position cache. One Arena per
// CLI invocation, per spec.md §5's "built once per session".
func openStore(cfg *config.Config) (*store.Store, *graph.Arena, error) {
	s, err := store.Open(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	posCache, err := cache.New(defaultCacheCapacity)
	if err != nil {
		s.Close()
		return nil, nil, fmt.Errorf("new cache: %w", err)
	}
	return s, graph.NewArena(s, posCache), nil
}

// newContent derives a Content record's identity from the tenant/user
// scope and source URI, the way a fresh ingest/extract CLI invocation
// names the artifact it is about to attribute evidence to.
func newContent(cfg *config.Config, sourceURI, contentType, mime string, size int64) substrate.Content {
	payload := hashid.Concat([]byte(cfg.TenantID), []byte(cfg.UserID), []byte(sourceURI))
	return substrate.Content{
		Hash:        hashid.H(hashid.TagContent, payload),
		Tenant:      cfg.TenantID,
		User:        cfg.UserID,
		ContentType: contentType,
		MIME:        mime,
		SourceURI:   sourceURI,
		Size:        size,
	}
}
