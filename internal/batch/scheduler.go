// Package batch accumulates work items into fixed-size batches and hands
// them to a bounded worker pool for concurrent processing.
package batch

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hostpulse/agent/internal/domain"
)

const (
	// DefaultSize is the flush threshold when none is configured.
	DefaultSize = 1000

	defaultWorkers = 4
	bufferPoolSize = 8
)

// Result carries the outcome of one dispatched batch. Seq numbers batches in
// dispatch order; completion order is not guaranteed.
type Result[R any] struct {
	Seq   int
	Items []R
	Err   error
}

// Config controls batching behavior.
type Config struct {
	// Size is the number of items that triggers a flush.
	Size int
	// Workers bounds how many batches are processed concurrently.
	Workers int
}

func (c Config) withDefaults() Config {
	if c.Size <= 0 {
		c.Size = DefaultSize
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	return c
}

// Scheduler buffers submitted items and dispatches full batches to a worker
// pool. Each item passes through a pure transform; the optional sink then
// receives the transformed batch (e.g. to ship it over the network). Every
// dispatched batch produces exactly one Result on the Results channel, so
// the caller must drain it.
type Scheduler[T, R any] struct {
	cfg       Config
	transform func(T) R
	sink      func(context.Context, []R) error

	group   *errgroup.Group
	gctx    context.Context
	results chan Result[R]
	buffers *Pool[[]T]

	mu     sync.Mutex
	buf    []T
	seq    int
	closed bool
}

// New creates a scheduler. The transform must be pure; sink may be nil when
// results are consumed solely through the Results channel. The context bounds
// the lifetime of sink invocations.
func New[T, R any](ctx context.Context, cfg Config, transform func(T) R, sink func(context.Context, []R) error) *Scheduler[T, R] {
	cfg = cfg.withDefaults()
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(cfg.Workers)

	return &Scheduler[T, R]{
		cfg:       cfg,
		transform: transform,
		sink:      sink,
		group:     group,
		gctx:      gctx,
		results:   make(chan Result[R], cfg.Workers),
		buffers:   NewPool[[]T](bufferPoolSize),
		buf:       make([]T, 0, cfg.Size),
	}
}

// Results delivers one entry per dispatched batch.
func (s *Scheduler[T, R]) Results() <-chan Result[R] {
	return s.results
}

// Submit adds one item, dispatching the buffer if it reached the configured
// size. Submission never blocks on batch processing beyond the worker limit.
func (s *Scheduler[T, R]) Submit(item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSchedulerClosed{}
	}

	s.buf = append(s.buf, item)
	if len(s.buf) >= s.cfg.Size {
		s.dispatchLocked()
	}
	return nil
}

// Flush dispatches the partial buffer, if any, without closing the
// scheduler. Lets a timer bound how long items sit in a slow-filling buffer.
func (s *Scheduler[T, R]) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || len(s.buf) == 0 {
		return
	}
	s.dispatchLocked()
}

// Close flushes the partial remainder, waits for all in-flight batches, and
// closes the Results channel. Further Submit calls fail.
func (s *Scheduler[T, R]) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSchedulerClosed{}
	}
	s.closed = true
	if len(s.buf) > 0 {
		s.dispatchLocked()
	}
	s.mu.Unlock()

	err := s.group.Wait()
	close(s.results)
	return err
}

// dispatchLocked hands the current buffer to the worker pool and installs a
// fresh one. Callers must hold s.mu.
func (s *Scheduler[T, R]) dispatchLocked() {
	items := s.buf
	seq := s.seq
	s.seq++

	if recycled, ok := s.buffers.Get(); ok {
		s.buf = recycled[:0]
	} else {
		s.buf = make([]T, 0, s.cfg.Size)
	}

	s.group.Go(func() error {
		out := make([]R, len(items))
		for i, item := range items {
			out[i] = s.transform(item)
		}

		var err error
		if s.sink != nil {
			err = s.sink(s.gctx, out)
		}
		s.buffers.Put(items[:0])

		// A failed batch is reported, not retried; it must not abort
		// the pool or the sibling batches.
		s.results <- Result[R]{Seq: seq, Items: out, Err: err}
		return nil
	})
}

// Process submits an ordered sequence and closes the scheduler. Convenience
// wrapper for one-shot inputs.
func (s *Scheduler[T, R]) Process(items []T) error {
	for _, item := range items {
		if err := s.Submit(item); err != nil {
			return err
		}
	}
	return s.Close()
}
