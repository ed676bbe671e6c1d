// Package queue carries fire notices from the game loop to the workers.
//
// Enqueue never blocks: a full or closed queue drops the notice and reports
// false, so dispatch on the frame loop is never held up by consumers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/beatclash/internal/domain/model"
	"github.com/okian/beatclash/pkg/metrics"
)

const defaultQueueCapacity = 4096

// Queue provides non-blocking enqueue and channel-based dequeue.
type Queue interface {
	// Enqueue adds a notice. Returns false if it was dropped.
	Enqueue(ctx context.Context, f model.Fire) bool

	// Dequeue returns the receive side. It is closed when the queue is closed
	// and drained.
	Dequeue(ctx context.Context) <-chan model.Fire

	// Len returns the number of queued notices.
	Len(ctx context.Context) int

	// Close stops accepting notices. Queued notices can still be drained.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	fires    chan model.Fire
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.fires = make(chan model.Fire, q.capacity)

	metrics.UpdateFireQueueCapacity(q.capacity)
	metrics.UpdateFireQueueSize(0)
	return q
}

// Enqueue adds f without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, f model.Fire) bool { //nolint:gocritic // hugeParam: notices travel by value
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordFireDropped()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if ctx.Err() != nil {
		metrics.RecordFireDropped()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	}

	select {
	case q.fires <- f:
		metrics.RecordFireEnqueued()
		metrics.UpdateFireQueueSize(len(q.fires))
		return true
	default:
		metrics.RecordFireDropped()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan model.Fire {
	return q.fires
}

// Len returns the number of queued notices.
func (q *InMemoryQueue) Len(_ context.Context) int {
	n := len(q.fires)
	metrics.UpdateFireQueueSize(n)
	return n
}

// Capacity returns the queue bound.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close stops the queue. It is safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.fires)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
