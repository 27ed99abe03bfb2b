package ktlx

import "sync"

// segmentCache memoizes decoded segments by file path. It guarantees at most
// one decode in flight per path: the first requester runs the decode, later
// requesters block on the entry and share the result. Failed decodes are not
// retained, so a segment that appears on disk later can still be read.
type segmentCache struct {
	mu      sync.Mutex
	limit   int // max retained entries, 0 = unbounded
	entries map[string]*cacheEntry
	order   []string // insertion order, for eviction
}

type cacheEntry struct {
	ready chan struct{}
	done  bool
	mat   *Matrix
	err   error
}

func newSegmentCache(limit int) *segmentCache {
	return &segmentCache{
		limit:   limit,
		entries: make(map[string]*cacheEntry),
	}
}

// get returns the decoded segment for key, running decode if no other caller
// has it in flight or retained.
func (c *segmentCache) get(key string, decode func() (*Matrix, error)) (*Matrix, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		<-e.ready
		return e.mat, e.err
	}
	e := &cacheEntry{ready: make(chan struct{})}
	c.entries[key] = e
	c.order = append(c.order, key)
	c.mu.Unlock()

	mat, err := decode()

	c.mu.Lock()
	e.mat, e.err = mat, err
	e.done = true
	if err != nil {
		c.removeLocked(key)
	} else {
		c.evictLocked()
	}
	c.mu.Unlock()
	close(e.ready)

	return mat, err
}

// evictLocked drops the oldest finished entries until the retained count is
// within the limit. In-flight entries are never dropped.
func (c *segmentCache) evictLocked() {
	if c.limit <= 0 {
		return
	}
	for i := 0; len(c.order) > c.limit && i < len(c.order); {
		key := c.order[i]
		if e := c.entries[key]; e != nil && e.done {
			c.removeLocked(key)
			continue
		}
		i++
	}
}

func (c *segmentCache) removeLocked(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// len reports the number of retained entries.
func (c *segmentCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
