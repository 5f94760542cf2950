package pdf

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/a3tai/mcp-pdf-forms/internal/pdf/forms"
)

const defaultCacheSize = 32

// ResultCache is a thread-safe LRU cache of parse results keyed by the
// SHA-256 of the document bytes.
type ResultCache struct {
	mutex    sync.Mutex
	capacity int
	items    map[string]*cacheNode
	head     *cacheNode // Most recently used
	tail     *cacheNode // Least recently used
	hits     int64
	misses   int64
}

type cacheNode struct {
	key   string
	value *forms.ParseResult
	prev  *cacheNode
	next  *cacheNode
}

// CacheStats provides statistics about cache performance
type CacheStats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRate  float64 `json:"hit_rate_percent"`
	Size     int     `json:"current_size"`
	Capacity int     `json:"max_capacity"`
}

// NewResultCache creates a cache holding at most capacity results
func NewResultCache(capacity int) *ResultCache {
	if capacity <= 0 {
		capacity = defaultCacheSize
	}

	cache := &ResultCache{
		capacity: capacity,
		items:    make(map[string]*cacheNode),
		head:     &cacheNode{},
		tail:     &cacheNode{},
	}
	cache.head.next = cache.tail
	cache.tail.prev = cache.head

	return cache
}

// DocumentKey returns the cache key of a document
func DocumentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get retrieves a result and marks it as recently used
func (c *ResultCache) Get(key string) (*forms.ParseResult, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if node, exists := c.items[key]; exists {
		c.moveToFront(node)
		c.hits++
		return node.value, true
	}

	c.misses++
	return nil, false
}

// Put adds or updates a result, evicting the least recently used entry
// when full.
func (c *ResultCache) Put(key string, value *forms.ParseResult) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if node, exists := c.items[key]; exists {
		node.value = value
		c.moveToFront(node)
		return
	}

	node := &cacheNode{key: key, value: value}
	c.addToFront(node)
	c.items[key] = node

	if len(c.items) > c.capacity {
		lru := c.tail.prev
		c.removeNode(lru)
		delete(c.items, lru.key)
	}
}

// Remove removes a key from the cache
func (c *ResultCache) Remove(key string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if node, exists := c.items[key]; exists {
		c.removeNode(node)
		delete(c.items, key)
		return true
	}
	return false
}

// Len returns the current number of cached results
func (c *ResultCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.items)
}

// Stats returns cache statistics
func (c *ResultCache) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	total := c.hits + c.misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(c.hits) / float64(total) * 100
	}

	return CacheStats{
		Hits:     c.hits,
		Misses:   c.misses,
		HitRate:  hitRate,
		Size:     len(c.items),
		Capacity: c.capacity,
	}
}

func (c *ResultCache) moveToFront(node *cacheNode) {
	c.removeNode(node)
	c.addToFront(node)
}

func (c *ResultCache) addToFront(node *cacheNode) {
	node.prev = c.head
	node.next = c.head.next
	c.head.next.prev = node
	c.head.next = node
}

func (c *ResultCache) removeNode(node *cacheNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
}
