// Package worker drains fire notices and applies them to a resolver.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/beatclash/internal/domain/model"
	"github.com/okian/beatclash/internal/domain/scoring"
	"github.com/okian/beatclash/pkg/logger"
	"github.com/okian/beatclash/pkg/metrics"
)

const (
	defaultWorkerCount  = 1
	poolShutdownTimeout = 5 * time.Second
)

// Queue defines how workers receive notices.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Fire
}

// Resolver applies a notice. scoring.Ledger satisfies it.
type Resolver interface {
	Apply(ctx context.Context, f model.Fire) (scoring.Result, error)
}

// Worker processes notices until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is cancelled, Shutdown is called or
	// the queue is closed and drained.
	Run(ctx context.Context)

	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	resolver Resolver
	name     string
	logger   logger.Logger

	processed int64
	mu        sync.Mutex

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(queue Queue, resolver Resolver, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		resolver: resolver,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.NamedOrNop("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run drains the queue.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	fires := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case f, ok := <-fires:
			if !ok {
				return
			}
			if err := w.process(ctx, f); err != nil {
				w.logger.Error(ctx, "error applying fire notice", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker and waits for Run to return.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns the number of notices applied by this worker.
func (w *InMemoryWorker) Processed() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.processed
}

func (w *InMemoryWorker) process(ctx context.Context, f model.Fire) error { //nolint:gocritic // hugeParam: notices travel by value
	res, err := w.resolver.Apply(ctx, f)
	if errors.Is(err, scoring.ErrDuplicate) {
		w.logger.Debug(ctx, "duplicate fire notice ignored", logger.String("id", f.ID))
		return nil
	}
	if err != nil {
		metrics.RecordErrorByComponent("worker", "apply_error")
		return fmt.Errorf("apply fire %s: %w", f.ID, err)
	}

	w.mu.Lock()
	w.processed++
	w.mu.Unlock()

	w.logger.Debug(ctx, "fire notice applied",
		logger.String("id", f.ID),
		logger.Int("owner", res.OwnerID),
		logger.Float64("delta", res.Delta),
		logger.Float64("total", res.Total))
	return nil
}

// Pool runs several workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. Counts below one use a
// single worker.
func NewPool(workerCount int, queue Queue, resolver Resolver, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.NamedOrNop("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(queue, resolver, wopts...)
	}
	return p
}

// Start runs every worker on its own goroutine.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Processed returns the number of notices applied by all workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Drain closes the queue and waits for the workers to apply what is left.
func (p *Pool) Drain(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	return p.wait(ctx)
}

// Shutdown stops all workers without draining.
func (p *Pool) Shutdown(ctx context.Context) error {
	for _, w := range p.workers {
		w.shutdownOnce.Do(func() { close(w.shutdown) })
	}
	return p.wait(ctx)
}

func (p *Pool) wait(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-waitCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker %d: %w", i, waitCtx.Err())
		}
	}
	return nil
}
