package cache

import (
	"sync"
	"time"
)

// lruEntry is one node of the in-process tier: doubly-linked for O(1)
// eviction, with lazy TTL expiration.
type lruEntry struct {
	key       string
	value     []byte
	prev      *lruEntry
	next      *lruEntry
	expiresAt time.Time
}

// LRU is a thread-safe bounded LRU cache with per-entry TTL. Eviction
// policy is an explicit contract: least recently used goes first when
// capacity is reached, expired entries are dropped on access.
type LRU struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*lruEntry
	// head.next is most recently used, tail.prev least recently used.
	head *lruEntry
	tail *lruEntry
}

// NewLRU creates an LRU with the given capacity.
func NewLRU(capacity int) *LRU {
	if capacity <= 0 {
		capacity = 2048
	}
	c := &LRU{
		capacity: capacity,
		items:    make(map[string]*lruEntry, capacity),
		head:     &lruEntry{},
		tail:     &lruEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get returns the value and true when present and unexpired. Found
// entries move to the front.
func (c *LRU) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.remove(entry)
		return nil, false
	}
	c.moveToFront(entry)
	return entry.value, true
}

// Set adds or replaces an entry. At capacity the least recently used
// entry is evicted.
func (c *LRU) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := time.Now().Add(ttl)
	if entry, ok := c.items[key]; ok {
		entry.value = value
		entry.expiresAt = expires
		c.moveToFront(entry)
		return
	}

	if len(c.items) >= c.capacity {
		if lru := c.tail.prev; lru != c.head {
			c.remove(lru)
		}
	}

	entry := &lruEntry{key: key, value: value, expiresAt: expires}
	c.items[key] = entry
	c.pushFront(entry)
}

// Delete removes an entry if present.
func (c *LRU) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.items[key]; ok {
		c.remove(entry)
	}
}

// Len returns the number of entries, including not-yet-collected
// expired ones.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU) pushFront(entry *lruEntry) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *LRU) moveToFront(entry *lruEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.pushFront(entry)
}

func (c *LRU) remove(entry *lruEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(c.items, entry.key)
}
