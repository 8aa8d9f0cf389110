package mathexpr

import (
	"container/list"
	"sync"
)

// DefaultCacheSize is the parse cache capacity used when none is given.
const DefaultCacheSize = 256

type cacheEntry struct {
	key  string
	node Node
}

// Cache is a thread-safe LRU cache of parsed expressions.
// Cached trees are shared between callers and must not be modified.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

// NewCache creates an LRU cache. A capacity <= 0 uses DefaultCacheSize.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the cached tree for text and marks it most recently used.
func (c *Cache) Get(text string) (Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[text]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry).node, true
}

// Set stores a tree, evicting the least recently used entry when full.
func (c *Cache) Set(text string, node Node) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[text]; ok {
		el.Value.(*cacheEntry).node = node
		c.ll.MoveToFront(el)
		return
	}
	if c.ll.Len() >= c.capacity {
		c.evictLocked()
	}
	c.items[text] = c.ll.PushFront(&cacheEntry{key: text, node: node})
}

// GetOrParse returns the cached tree for text, parsing and caching it on a miss.
// Parse errors are not cached.
func (c *Cache) GetOrParse(text string) (Node, error) {
	if node, ok := c.Get(text); ok {
		return node, nil
	}
	node, err := Parse(text)
	if err != nil {
		return nil, err
	}
	c.Set(text, node)
	return node, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}

// evictLocked must be called with c.mu held for writing.
func (c *Cache) evictLocked() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*cacheEntry).key)
}

// Engine parses and evaluates expressions through a shared parse cache.
// Safe for concurrent use.
type Engine struct {
	cache *Cache
}

// NewEngine creates an engine with a parse cache of the given capacity.
func NewEngine(cacheSize int) *Engine {
	return &Engine{cache: NewCache(cacheSize)}
}

// Parse returns the tree for text. The tree may be shared with other callers.
func (e *Engine) Parse(text string) (Node, error) {
	return e.cache.GetOrParse(text)
}

// Evaluate parses text (through the cache) and evaluates it against scope.
func (e *Engine) Evaluate(text string, scope Scope) (any, error) {
	node, err := e.cache.GetOrParse(text)
	if err != nil {
		return nil, err
	}
	return Eval(node, scope)
}

// CacheLen reports the number of cached parse trees.
func (e *Engine) CacheLen() int {
	return e.cache.Len()
}
