package expression

import (
	"container/list"
	"sync"
	"time"
)

// editorEntry is a loaded editor and the UpdatedAt of the row it reflects.
type editorEntry struct {
	editor  *Editor
	version time.Time
}

type editorCacheItem struct {
	id    string
	entry editorEntry
}

// editorCache keeps the most recently used editors loaded.
type editorCache struct {
	capacity int
	mu       sync.Mutex
	items    map[string]*list.Element
	order    *list.List // front = most recently used
}

func newEditorCache(capacity int) *editorCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &editorCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

func (c *editorCache) get(id string) (editorEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[id]
	if !ok {
		return editorEntry{}, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*editorCacheItem).entry, true
}

func (c *editorCache) put(id string, entry editorEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[id]; ok {
		elem.Value.(*editorCacheItem).entry = entry
		c.order.MoveToFront(elem)
		return
	}
	c.items[id] = c.order.PushFront(&editorCacheItem{id: id, entry: entry})

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*editorCacheItem).id)
	}
}

func (c *editorCache) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[id]; ok {
		c.order.Remove(elem)
		delete(c.items, id)
	}
}

func (c *editorCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
