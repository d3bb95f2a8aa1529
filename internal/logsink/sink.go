// Package logsink persists log records without ever blocking the caller.
// Records are buffered and written by a single background goroutine; when
// the buffer is full new records are dropped.
package logsink

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

type Entry struct {
	Level     string
	Message   string
	Context   map[string]any
	Stack     string
	CreatedAt time.Time
}

type Writer interface {
	WriteLog(ctx context.Context, e Entry) error
}

type Sink struct {
	w       Writer
	entries chan Entry

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	started atomic.Bool
	dropped atomic.Int64
}

func New(w Writer, buffer int) *Sink {
	if buffer <= 0 {
		buffer = 1
	}

	return &Sink{
		w:       w,
		entries: make(chan Entry, buffer),
		done:    make(chan struct{}),
	}
}

// Start launches the background writer.
func (s *Sink) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}

	go s.drain()
}

// Enqueue buffers e and reports whether it was accepted.
func (s *Sink) Enqueue(e Entry) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.entries <- e:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Dropped returns how many entries were discarded because the buffer was
// full.
func (s *Sink) Dropped() int64 {
	return s.dropped.Load()
}

// Close stops accepting entries and waits until the buffered ones are
// written or ctx ends.
func (s *Sink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.entries)
	}
	s.mu.Unlock()

	if !s.started.Load() {
		return nil
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("draining log sink: %w", ctx.Err())
	}
}

func (s *Sink) drain() {
	defer close(s.done)

	for e := range s.entries {
		// The sink cannot log its own failures through slog without feeding
		// them back into itself.
		if err := s.w.WriteLog(context.Background(), e); err != nil {
			fmt.Fprintf(os.Stderr, "logsink: write failed: %v\n", err)
		}
	}
}
