package compile

import (
	"sync"
	"sync/atomic"
	"time"
)

// CompileHook observes every compilation performed by a Cache.
type CompileHook func(id string, took time.Duration, err error)

// Cache memoizes compiled documents by identifier. The first Get of an
// identifier compiles it; concurrent callers for the same identifier wait for
// that single compilation and share its result, including a failure.
type Cache struct {
	compiler *Compiler
	hook     CompileHook

	mu       sync.Mutex
	entries  map[string]*entry
	compiles atomic.Int64
}

type entry struct {
	once sync.Once
	node *Node
	err  error
}

// NewCache returns an empty cache backed by c. hook may be nil.
func NewCache(c *Compiler, hook CompileHook) *Cache {
	return &Cache{compiler: c, hook: hook, entries: make(map[string]*entry)}
}

// Get returns the compiled node for document id.
func (c *Cache) Get(id string) (*Node, error) {
	c.mu.Lock()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{}
		c.entries[id] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		start := time.Now()
		e.node, e.err = c.compiler.Compile(id)
		c.compiles.Add(1)
		if c.hook != nil {
			c.hook(id, time.Since(start), e.err)
		}
	})
	return e.node, e.err
}

// Len returns the number of identifiers requested so far.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Compiles returns how many compilations the cache has run.
func (c *Cache) Compiles() int64 { return c.compiles.Load() }
