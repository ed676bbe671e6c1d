package queue

import "github.com/okian/beatclash/pkg/logger"

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum number of queued notices.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// SinkOption applies a configuration option to the Sink.
type SinkOption func(*Sink)

// WithSinkLogger sets the logger used to report dropped notices.
func WithSinkLogger(l logger.Logger) SinkOption {
	return func(s *Sink) {
		if l != nil {
			s.log = l
		}
	}
}
