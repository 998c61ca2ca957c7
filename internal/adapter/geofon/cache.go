package geofon

import (
	"context"
	"sync"

	"github.com/couchcryptid/moment-tensor-etl/internal/domain"
	"github.com/couchcryptid/moment-tensor-etl/internal/observability"
)

// DocumentFetcher downloads bulletins by reference.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, ref domain.DocumentReference) ([]byte, error)
}

// CachedClient wraps a Client so repeated references within a run are
// downloaded once. Catalog requests are never cached.
type CachedClient struct {
	*Client
	docs    DocumentFetcher
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedClient creates a cache decorator holding up to maxEntries bulletins.
func NewCachedClient(inner *Client, maxEntries int, metrics *observability.Metrics) *CachedClient {
	return &CachedClient{
		Client:  inner,
		docs:    inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

// FetchDocument returns the cached body for ref or downloads it. Failures
// are not cached.
func (c *CachedClient) FetchDocument(ctx context.Context, ref domain.DocumentReference) ([]byte, error) {
	if body, ok := c.cache.get(string(ref)); ok {
		c.metrics.DocumentCache.WithLabelValues("hit").Inc()
		return body, nil
	}
	c.metrics.DocumentCache.WithLabelValues("miss").Inc()

	body, err := c.docs.FetchDocument(ctx, ref)
	if err != nil {
		return nil, err
	}
	c.cache.put(string(ref), body)
	return body, nil
}

// lruCache is a thread-safe LRU cache of bulletin bodies.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []byte
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.unlink(c.tail)
}
