package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
	Delete(key string)
	Clear()
}

type Item[V any] struct {
	Key        string
	Value      V
	Expiration time.Time
}

// Stats counts lookups since the cache was created.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Size   int    `json:"size"`
}

// LRUCache evicts the least recently used entry once capacity is reached,
// and treats entries older than ttl as absent.
type LRUCache[V any] struct {
	capacity  int
	items     map[string]*list.Element
	evictList *list.List
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	hits      uint64
	misses    uint64
}

func New[V any](capacity int, ttl time.Duration) *LRUCache[V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRUCache[V]{
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		ttl:       ttl,
		now:       time.Now,
	}
}

func (c *LRUCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}

	item := elem.Value.(*Item[V])
	if c.now().After(item.Expiration) {
		c.removeElement(elem)
		c.misses++
		return zero, false
	}

	c.evictList.MoveToFront(elem)
	c.hits++
	return item.Value, true
}

func (c *LRUCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiration := c.now().Add(c.ttl)

	if elem, ok := c.items[key]; ok {
		item := elem.Value.(*Item[V])
		item.Value = value
		item.Expiration = expiration
		c.evictList.MoveToFront(elem)
		return
	}

	elem := c.evictList.PushFront(&Item[V]{
		Key:        key,
		Value:      value,
		Expiration: expiration,
	})
	c.items[key] = elem

	if c.evictList.Len() > c.capacity {
		c.removeOldest()
	}
}

func (c *LRUCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

func (c *LRUCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.evictList.Init()
}

func (c *LRUCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

func (c *LRUCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Size: c.evictList.Len()}
}

func (c *LRUCache[V]) removeOldest() {
	if elem := c.evictList.Back(); elem != nil {
		c.removeElement(elem)
	}
}

func (c *LRUCache[V]) removeElement(elem *list.Element) {
	c.evictList.Remove(elem)
	delete(c.items, elem.Value.(*Item[V]).Key)
}

// CleanExpired drops expired entries and returns how many were removed.
func (c *LRUCache[V]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var toRemove []*list.Element
	for elem := c.evictList.Back(); elem != nil; elem = elem.Prev() {
		if now.After(elem.Value.(*Item[V]).Expiration) {
			toRemove = append(toRemove, elem)
		}
	}

	for _, elem := range toRemove {
		c.removeElement(elem)
	}
	return len(toRemove)
}

// StartCleanup runs CleanExpired every interval until ctx is done.
func (c *LRUCache[V]) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.CleanExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
}
