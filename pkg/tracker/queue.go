package tracker

import (
	"context"
	"sync"

	"lecture-rag-be/internal/entity"
)

// Queue is the FIFO hand-off between request handlers and the drain worker.
// A chunk counts as pending for its session from Push until Done, so waiters
// also see chunks that are popped but still being persisted.
type Queue struct {
	mu      sync.Mutex
	items   []entity.ChunkRecord
	pending map[entity.SessionKey]int
	changed chan struct{}
}

func NewQueue() *Queue {
	return &Queue{
		pending: make(map[entity.SessionKey]int),
		changed: make(chan struct{}),
	}
}

// Push appends chunks without blocking.
func (q *Queue) Push(chunks ...entity.ChunkRecord) {
	if len(chunks) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for _, c := range chunks {
		q.items = append(q.items, c)
		q.pending[c.SessionKey]++
	}
	q.notifyLocked()
}

// Pop blocks until a chunk is available or ctx is done.
func (q *Queue) Pop(ctx context.Context) (entity.ChunkRecord, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			c := q.items[0]
			q.items[0] = entity.ChunkRecord{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return c, nil
		}
		changed := q.changed
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return entity.ChunkRecord{}, ctx.Err()
		case <-changed:
		}
	}
}

// Done marks a popped chunk of the session as finished.
func (q *Queue) Done(key entity.SessionKey) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending[key] <= 1 {
		delete(q.pending, key)
	} else {
		q.pending[key]--
	}
	q.notifyLocked()
}

// WaitIdle blocks until the session has no pending chunks or ctx is done.
func (q *Queue) WaitIdle(ctx context.Context, key entity.SessionKey) error {
	for {
		q.mu.Lock()
		if q.pending[key] == 0 {
			q.mu.Unlock()
			return nil
		}
		changed := q.changed
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// Len is the number of chunks waiting to be popped.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pending is the number of chunks of the session queued or in flight.
func (q *Queue) Pending(key entity.SessionKey) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending[key]
}

func (q *Queue) notifyLocked() {
	close(q.changed)
	q.changed = make(chan struct{})
}
