// File path: internal/document/cache.go
package document

import (
	"sync"
	"time"
)

// MergeCache memoizes merge results per conversation. It is owned
// explicitly by the request host and passed by reference; invalidation is
// part of its contract so edit or snapshot mutations never serve stale
// merges to another request.
type MergeCache struct {
	mu   sync.RWMutex
	data map[string]mergeCacheEntry
	ttl  time.Duration
}

type mergeCacheEntry struct {
	result    MergeResult
	expiresAt time.Time
}

// NewMergeCache builds a cache whose entries expire after ttl.
func NewMergeCache(ttl time.Duration) *MergeCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &MergeCache{data: make(map[string]mergeCacheEntry), ttl: ttl}
}

// Get returns the cached merge for the conversation, if still fresh.
func (c *MergeCache) Get(conversationID string) (MergeResult, bool) {
	if c == nil {
		return MergeResult{}, false
	}
	c.mu.RLock()
	entry, ok := c.data[conversationID]
	c.mu.RUnlock()
	if !ok {
		return MergeResult{}, false
	}
	if time.Now().After(entry.expiresAt) {
		c.Invalidate(conversationID)
		return MergeResult{}, false
	}
	return entry.result, true
}

// Set stores the merge result for the conversation.
func (c *MergeCache) Set(conversationID string, result MergeResult) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.data[conversationID] = mergeCacheEntry{result: result, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops the cached merge for one conversation. Callers must
// invoke it on every edit save, edit delete, and snapshot mutation.
func (c *MergeCache) Invalidate(conversationID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.data, conversationID)
	c.mu.Unlock()
}
