// Package capture supplies screenshots to the detection pipeline.
//
// A Capturer produces one Frame per call. Limited wraps any Capturer with
// the pipeline's rate limit: requests arriving inside the minimum interval,
// or while another capture is outstanding, are refused with ErrNoFrame
// instead of being queued.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/ironsheep/chart-a11y-mcp/internal/logutil"
)

var (
	// ErrNoFrame is returned when no screenshot could be produced for a
	// request.
	ErrNoFrame = errors.New("capture: no frame")

	// ErrThrottled marks requests refused by the rate limit. It wraps
	// ErrNoFrame.
	ErrThrottled = fmt.Errorf("capture throttled: %w", ErrNoFrame)
)

// Frame is one screenshot.
type Frame struct {
	// Image holds the pixels. Its bounds start at (0,0).
	Image image.Image

	// Screen is where the image sits on the virtual screen. Detection
	// rectangles are offset by Screen.Min to become screen coordinates.
	Screen image.Rectangle

	// Source names the backend and input, e.g. "screen" or a file path.
	Source string

	Time time.Time
}

// Capturer produces screenshots.
type Capturer interface {
	Capture(ctx context.Context) (Frame, error)
}

// Func adapts a function to Capturer.
type Func func(ctx context.Context) (Frame, error)

// Capture calls f(ctx).
func (f Func) Capture(ctx context.Context) (Frame, error) { return f(ctx) }

// Limited rate-limits an inner Capturer.
//
// Limited is safe for concurrent use.
type Limited struct {
	inner       Capturer
	minInterval time.Duration

	mu       sync.Mutex
	last     time.Time
	inflight bool

	now func() time.Time
}

// DefaultMinInterval is the shortest time between two accepted captures.
const DefaultMinInterval = 1000 * time.Millisecond

// NewLimited wraps inner. A non-positive minInterval uses DefaultMinInterval.
func NewLimited(inner Capturer, minInterval time.Duration) *Limited {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &Limited{inner: inner, minInterval: minInterval, now: time.Now}
}

// MinInterval returns the configured interval.
func (l *Limited) MinInterval() time.Duration { return l.minInterval }

// acquire claims the capture slot or reports why it cannot.
func (l *Limited) acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inflight {
		return fmt.Errorf("capture in progress: %w", ErrThrottled)
	}
	now := l.now()
	if !l.last.IsZero() && now.Sub(l.last) < l.minInterval {
		return fmt.Errorf("capture requested %v after the previous one: %w", now.Sub(l.last).Round(time.Millisecond), ErrThrottled)
	}
	l.last = now
	l.inflight = true
	return nil
}

func (l *Limited) release() {
	l.mu.Lock()
	l.inflight = false
	l.mu.Unlock()
}

// Capture runs the inner capture if the rate limit allows it. Failures of
// the inner capturer are wrapped with ErrNoFrame.
func (l *Limited) Capture(ctx context.Context) (Frame, error) {
	if err := l.acquire(); err != nil {
		return Frame{}, err
	}
	defer l.release()

	f, err := l.inner.Capture(ctx)
	if err != nil {
		if errors.Is(err, ErrNoFrame) {
			return Frame{}, err
		}
		return Frame{}, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	if f.Image == nil {
		return Frame{}, fmt.Errorf("capturer returned an empty frame: %w", ErrNoFrame)
	}
	return f, nil
}

// CaptureAsync delivers exactly one callback. A rejected request is called
// back immediately on the calling goroutine; an accepted one is called back
// from a new goroutine when the capture finishes.
func (l *Limited) CaptureAsync(ctx context.Context, cb func(Frame, error)) {
	if err := l.acquire(); err != nil {
		logutil.Debugf("capture: %v", err)
		cb(Frame{}, err)
		return
	}
	go func() {
		f, err := l.inner.Capture(ctx)
		if err == nil && f.Image == nil {
			err = fmt.Errorf("capturer returned an empty frame: %w", ErrNoFrame)
		} else if err != nil && !errors.Is(err, ErrNoFrame) {
			err = fmt.Errorf("%w: %v", ErrNoFrame, err)
		}
		l.release()
		cb(f, err)
	}()
}
