// Package cache memoizes parsed schedule text so repeated basket checks
// do not re-run the line parser for sections that were already seen.
package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/registrar/internal/domain/schedule"
	"github.com/okian/registrar/pkg/metrics"
)

// defaultMaxSize bounds the number of distinct schedule texts kept.
const defaultMaxSize = 10_000

// BlockCache stores parsed time blocks keyed by the raw schedule text.
type BlockCache interface {
	// Get returns the cached blocks for text, if present.
	Get(ctx context.Context, text string) ([]schedule.TimeBlock, bool)

	// Put stores blocks for text, evicting the oldest entry when full.
	Put(ctx context.Context, text string, blocks []schedule.TimeBlock)

	Size() int64
}

// node is one entry in the insertion-ordered list (head = newest).
type node struct {
	text   string
	blocks []schedule.TimeBlock
	prev   *node
	next   *node
}

func (n *node) reset() {
	n.text = ""
	n.blocks = nil
	n.prev = nil
	n.next = nil
}

// inMemoryCache is a FIFO-evicting map + doubly linked list.
// maxSize <= 0 disables eviction.
type inMemoryCache struct {
	mu       sync.RWMutex
	entries  map[string]*node
	head     *node
	tail     *node
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryCache creates a cache with the given options.
func NewInMemoryCache(opts ...Option) BlockCache {
	c := &inMemoryCache{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.entries = make(map[string]*node)
	c.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return c
}

func (c *inMemoryCache) Get(_ context.Context, text string) ([]schedule.TimeBlock, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, ok := c.entries[text]
	if !ok {
		metrics.RecordParseCacheMiss()
		return nil, false
	}
	metrics.RecordParseCacheHit()
	return n.blocks, true
}

func (c *inMemoryCache) Put(_ context.Context, text string, blocks []schedule.TimeBlock) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[text]; ok {
		n.blocks = blocks
		return
	}
	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	n := c.nodePool.Get().(*node)
	n.text = text
	n.blocks = blocks
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
	c.entries[text] = n
	c.size.Add(1)
	metrics.UpdateParseCacheSize(int(c.size.Load()))
}

// evictOldest drops the tail. Caller holds c.mu.
func (c *inMemoryCache) evictOldest() {
	old := c.tail
	if old == nil {
		return
	}
	c.tail = old.prev
	if c.tail != nil {
		c.tail.next = nil
	} else {
		c.head = nil
	}
	delete(c.entries, old.text)
	old.reset()
	c.nodePool.Put(old)
	c.size.Add(-1)
	metrics.RecordParseCacheEviction()
}

func (c *inMemoryCache) Size() int64 {
	return c.size.Load()
}

// Parse returns the blocks for text, consulting c first and filling it on a
// miss. A nil cache parses directly.
func Parse(ctx context.Context, c BlockCache, text string) []schedule.TimeBlock {
	if c == nil {
		return schedule.ParseScheduleText(text)
	}
	if blocks, ok := c.Get(ctx, text); ok {
		return blocks
	}
	blocks := schedule.ParseScheduleText(text)
	c.Put(ctx, text, blocks)
	return blocks
}
