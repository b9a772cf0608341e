package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hejijunhao/triage/internal/model"
	"github.com/hejijunhao/triage/internal/output"
)

const (
	defaultBufferSize   = 64
	defaultDrainTimeout = 5 * time.Second
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("async output: closed")

// Option configures an Async wrapper.
type Option func(*Async)

// WithBufferSize sets the queue capacity. Default: 64.
func WithBufferSize(n int) Option {
	return func(a *Async) { a.bufSize = n }
}

// WithOnError sets the callback invoked when the inner output's Write fails.
// Default: logs a warning via slog.
func WithOnError(f func(error)) Option {
	return func(a *Async) { a.errFunc = f }
}

// WithDropOnFull makes Write return immediately, dropping the report, when
// the queue is full.
func WithDropOnFull() Option {
	return func(a *Async) { a.dropOnFull = true }
}

// WithDrainTimeout bounds how long Close waits for queued reports.
// Default: 5s.
func WithDrainTimeout(d time.Duration) Option {
	return func(a *Async) { a.drainTimeout = d }
}

type item struct {
	ctx    context.Context
	report model.Report
}

// Async hands reports to a background goroutine that writes them to the
// wrapped output, so request handlers do not wait on slow destinations.
// Inner write errors go to the error callback.
type Async struct {
	inner        output.Output
	ch           chan item
	done         chan struct{}
	errFunc      func(error)
	bufSize      int
	dropOnFull   bool
	drainTimeout time.Duration

	mu     sync.RWMutex // guards closed against sends on a closed channel
	closed bool
}

// New wraps an output.Output. The drain goroutine starts immediately.
func New(inner output.Output, opts ...Option) *Async {
	a := &Async{
		inner:        inner,
		bufSize:      defaultBufferSize,
		drainTimeout: defaultDrainTimeout,
		errFunc:      func(err error) { slog.Warn("async output write error", "error", err) },
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ch = make(chan item, a.bufSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

// Write queues the report. It blocks while the queue is full unless
// WithDropOnFull is set. The inner write runs with ctx's values but
// without its cancellation.
func (a *Async) Write(ctx context.Context, report model.Report) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}

	it := item{ctx: context.WithoutCancel(ctx), report: report}
	if a.dropOnFull {
		select {
		case a.ch <- it:
		default:
			slog.Warn("async output queue full, dropping report",
				"run_id", report.RunID, "source", report.SourceFile)
		}
		return nil
	}
	select {
	case a.ch <- it:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting reports, waits for the queue to drain (bounded by
// the drain timeout) and closes the inner output. Safe to call twice.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.ch)
	a.mu.Unlock()

	select {
	case <-a.done:
	case <-time.After(a.drainTimeout):
		slog.Warn("async output drain timed out")
	}
	return a.inner.Close()
}

func (a *Async) drain() {
	defer close(a.done)
	for it := range a.ch {
		if err := a.inner.Write(it.ctx, it.report); err != nil {
			a.errFunc(err)
		}
	}
}
