package index

import (
	"container/list"
	"sync"
)

const defaultLookupCacheSize = 512

// lookupCache is a bounded least-recently-used cache of type records. The
// front of order is the most recent entry.
type lookupCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List
}

type cacheEntry struct {
	key    string
	record TypeRecord
}

func newLookupCache(capacity int) *lookupCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &lookupCache{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

func (c *lookupCache) get(key string) (TypeRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return TypeRecord{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).record, true
}

func (c *lookupCache) put(key string, rec TypeRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		el.Value.(*cacheEntry).record = rec
		return
	}
	if c.order.Len() >= c.capacity {
		if back := c.order.Back(); back != nil {
			c.order.Remove(back)
			delete(c.items, back.Value.(*cacheEntry).key)
		}
	}
	c.items[key] = c.order.PushFront(&cacheEntry{key: key, record: rec})
}

func (c *lookupCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// clear drops every entry; a new Write invalidates all records.
func (c *lookupCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}
