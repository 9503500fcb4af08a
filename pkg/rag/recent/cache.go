package recent

import (
	"sync"

	"lecture-rag-be/internal/entity"
)

const DefaultCapacity = 10

// Cache is a fixed-capacity FIFO of the most recently seen fragments,
// shared by every session. The oldest fragment is evicted first.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	items    []entity.Fragment
	head     int
	size     int
}

func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		items:    make([]entity.Fragment, capacity),
	}
}

func (c *Cache) Add(f entity.Fragment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tail := (c.head + c.size) % c.capacity
	c.items[tail] = f
	if c.size < c.capacity {
		c.size++
		return
	}
	c.head = (c.head + 1) % c.capacity
}

// Attach records the stored point id on the cached copy of a tracked chunk.
// It reports false when the chunk is no longer cached.
func (c *Cache) Attach(sessionKey string, chunkNumber int, pointId string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := 0; i < c.size; i++ {
		idx := (c.head + i) % c.capacity
		f := &c.items[idx]
		if f.SessionKey == sessionKey && f.ChunkNumber != nil && *f.ChunkNumber == chunkNumber {
			f.PointId = pointId
			return true
		}
	}
	return false
}

// Snapshot returns the cached fragments, newest first.
func (c *Cache) Snapshot() []entity.Fragment {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]entity.Fragment, 0, c.size)
	for i := c.size - 1; i >= 0; i-- {
		out = append(out, c.items[(c.head+i)%c.capacity])
	}
	return out
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

func (c *Cache) Capacity() int {
	return c.capacity
}
