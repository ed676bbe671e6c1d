package queue

import (
	"context"
	"sync/atomic"

	"github.com/okian/beatclash/internal/domain/model"
	"github.com/okian/beatclash/pkg/logger"
)

// Sink hands dispatcher fire notices to a Queue.
type Sink struct {
	q       Queue
	log     logger.Logger
	dropped atomic.Int64
}

// NewSink wraps q.
func NewSink(q Queue, opts ...SinkOption) *Sink {
	s := &Sink{q: q, log: logger.NamedOrNop("fire-sink")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fire enqueues f. A dropped notice is counted and logged, never retried.
func (s *Sink) Fire(ctx context.Context, f model.Fire) { //nolint:gocritic // hugeParam: notices travel by value
	if s.q.Enqueue(ctx, f) {
		return
	}
	s.dropped.Add(1)
	if s.q.IsClosed() {
		s.log.Warn(ctx, "fire notice dropped", logger.String("id", f.ID), logger.Error(ErrStopped))
		return
	}
	s.log.Warn(ctx, "fire notice dropped", logger.String("id", f.ID), logger.String("reason", "queue full"))
}

// Dropped returns the number of notices the queue refused.
func (s *Sink) Dropped() int64 {
	return s.dropped.Load()
}
