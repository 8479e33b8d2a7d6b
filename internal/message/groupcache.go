// /internal/message/groupcache.go
package message

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"raven-md/internal/transport"
	"raven-md/internal/wa"
)

// GroupCache caches normalized group metadata with a TTL. Concurrent cache
// misses for the same group collapse into a single fetch.
type GroupCache struct {
	fetcher transport.GroupFetcher
	ttl     time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
	sf      singleflight.Group
}

type cacheEntry struct {
	meta    *wa.GroupMetadata
	expires time.Time
}

func NewGroupCache(fetcher transport.GroupFetcher, ttl time.Duration) *GroupCache {
	return &GroupCache{
		fetcher: fetcher,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the group's metadata, fetching it at most once per TTL window.
func (c *GroupCache) Get(ctx context.Context, chatJID string) (*wa.GroupMetadata, error) {
	c.mu.RLock()
	entry, ok := c.entries[chatJID]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expires) {
		return entry.meta, nil
	}

	v, err, _ := c.sf.Do(chatJID, func() (interface{}, error) {
		meta, err := c.fetcher.GroupMetadata(ctx, chatJID)
		if err != nil {
			return nil, err
		}
		meta = normalizeMeta(meta)
		c.mu.Lock()
		c.entries[chatJID] = cacheEntry{meta: meta, expires: time.Now().Add(c.ttl)}
		c.mu.Unlock()
		return meta, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*wa.GroupMetadata), nil
}

// Invalidate drops a cached group, forcing a fetch on next use.
func (c *GroupCache) Invalidate(chatJID string) {
	c.mu.Lock()
	delete(c.entries, chatJID)
	c.mu.Unlock()
}

// normalizeMeta drops malformed participant entries and deduplicates by ID,
// keeping the first occurrence.
func normalizeMeta(meta *wa.GroupMetadata) *wa.GroupMetadata {
	if meta == nil {
		return nil
	}
	seen := make(map[string]bool, len(meta.Participants))
	out := make([]wa.Participant, 0, len(meta.Participants))
	for _, p := range meta.Participants {
		id := wa.Bare(p.ID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		p.ID = id
		out = append(out, p)
	}
	meta.Participants = out
	return meta
}
