package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ironsheep/chart-a11y-mcp/internal/logutil"
)

// ErrBusy is reported when a detection request is dropped because another
// one is still queued or running.
var ErrBusy = errors.New("detection already in progress")

type job struct {
	ctx  context.Context
	fn   func(ctx context.Context)
	done chan struct{}
}

// Worker runs inference off the event loop, one job at a time. A job
// submitted while another is queued or running is dropped, not queued.
type Worker struct {
	jobs chan job
	busy atomic.Bool
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewWorker starts the worker goroutine.
func NewWorker() *Worker {
	w := &Worker{jobs: make(chan job, 1)}
	w.wg.Add(1)
	go w.run()
	return w
}

func (w *Worker) run() {
	defer w.wg.Done()
	for j := range w.jobs {
		w.exec(j)
		w.busy.Store(false)
		if j.done != nil {
			close(j.done)
		}
	}
}

func (w *Worker) exec(j job) {
	defer func() {
		if r := recover(); r != nil {
			logutil.Errorf("Worker: job panicked: %v", r)
		}
	}()
	j.fn(j.ctx)
}

// Submit hands fn to the worker. It returns false, without running fn, when
// a job is already queued or in flight or the worker is closed.
func (w *Worker) Submit(ctx context.Context, fn func(ctx context.Context)) bool {
	return w.submit(job{ctx: ctx, fn: fn}) == nil
}

// Run submits fn and waits until the worker is free again. It returns
// ErrBusy when another job holds the worker and ErrClosed after Close.
func (w *Worker) Run(ctx context.Context, fn func(ctx context.Context)) error {
	done := make(chan struct{})
	if err := w.submit(job{ctx: ctx, fn: fn, done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) submit(j job) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if !w.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	select {
	case w.jobs <- j:
		return nil
	default:
		w.busy.Store(false)
		return ErrBusy
	}
}

// Busy reports whether a job is queued or running.
func (w *Worker) Busy() bool { return w.busy.Load() }

// Close stops the worker after the current job finishes. Later submissions
// are refused.
func (w *Worker) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
