package resolver

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/callcampaign-mcp/pkg/types"
)

// cacheEntry represents a cached result with expiration time
type cacheEntry struct {
	result    types.MatchResult
	expiresAt time.Time
}

// resultCache is an LRU of resolution results keyed by request hash
type resultCache struct {
	mu    sync.RWMutex
	lru   *lru.Cache[[32]byte, *cacheEntry]
	ttl   time.Duration
	clock func() time.Time
}

func newResultCache(size int, ttl time.Duration) (*resultCache, error) {
	cache, err := lru.New[[32]byte, *cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &resultCache{lru: cache, ttl: ttl, clock: time.Now}, nil
}

// get returns a deep copy of a live entry
func (c *resultCache) get(req types.SearchRequest) (types.MatchResult, bool) {
	key := requestKey(req)
	now := c.clock()

	c.mu.RLock()
	entry, found := c.lru.Get(key)
	if !found {
		c.mu.RUnlock()
		return types.MatchResult{}, false
	}

	if now.After(entry.expiresAt) {
		c.mu.RUnlock()

		c.mu.Lock()
		c.lru.Remove(key)
		c.mu.Unlock()
		return types.MatchResult{}, false
	}

	result := entry.result.Clone()
	c.mu.RUnlock()
	return result, true
}

// put stores a deep copy so callers cannot mutate cached clients
func (c *resultCache) put(req types.SearchRequest, result types.MatchResult) {
	entry := &cacheEntry{
		result:    result.Clone(),
		expiresAt: c.clock().Add(c.ttl),
	}

	c.mu.Lock()
	c.lru.Add(requestKey(req), entry)
	c.mu.Unlock()
}

func (c *resultCache) purge() {
	c.mu.Lock()
	c.lru.Purge()
	c.mu.Unlock()
}

// requestKey hashes the request after the same trimming the query builder
// applies, so requests that build identical filters share an entry.
func requestKey(req types.SearchRequest) [32]byte {
	var data strings.Builder
	fmt.Fprintf(&data, "%d", req.CampaignID)
	data.WriteString("|")
	data.WriteString(strings.TrimSpace(req.Name))
	data.WriteString("|")
	data.WriteString(strings.TrimSpace(req.FirstName))
	if start, ok := types.Fragment(req.PhoneFragmentStart); ok {
		data.WriteString("|start:")
		data.WriteString(start)
	}
	if end, ok := types.Fragment(req.PhoneFragmentEnd); ok {
		data.WriteString("|end:")
		data.WriteString(end)
	}
	return sha256.Sum256([]byte(data.String()))
}
