package capture

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/kbinani/screenshot"
)

// Screen captures the desktop with github.com/kbinani/screenshot.
type Screen struct {
	// Display selects one display by index. A negative value captures the
	// union of all active displays.
	Display int
}

// NewScreen returns a Screen capturing every display.
func NewScreen() *Screen { return &Screen{Display: -1} }

// Bounds returns the virtual-screen rectangle Capture would grab.
func (s *Screen) Bounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	if s.Display >= 0 {
		if s.Display >= n {
			return image.Rectangle{}, fmt.Errorf("display %d out of range (%d active)", s.Display, n)
		}
		return screenshot.GetDisplayBounds(s.Display), nil
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	return union, nil
}

// Capture grabs the configured display area.
func (s *Screen) Capture(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	bounds, err := s.Bounds()
	if err != nil {
		return Frame{}, err
	}
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to capture screen: %w", err)
	}
	return Frame{
		Image:  img,
		Screen: bounds,
		Source: "screen",
		Time:   time.Now(),
	}, nil
}
