package capture

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/ironsheep/chart-a11y-mcp/internal/imaging"
)

// File serves screenshots from image files or frames stored in an
// imaging.FrameCache. It stands in for the host's screen capture when the
// pipeline runs headless.
type File struct {
	cache *imaging.FrameCache

	mu     sync.Mutex
	source string
	origin image.Point
}

// NewFile creates a File backed by cache. A nil cache gets a private one.
func NewFile(cache *imaging.FrameCache) *File {
	if cache == nil {
		cache = imaging.NewFrameCache()
	}
	return &File{cache: cache}
}

// Cache returns the backing frame cache.
func (f *File) Cache() *imaging.FrameCache { return f.cache }

// SetSource selects the frame returned by Capture: a file path or a cache
// key. origin places the frame on the virtual screen. An empty source means
// the most recent frame in the cache.
func (f *File) SetSource(source string, origin image.Point) {
	f.mu.Lock()
	f.source, f.origin = source, origin
	f.mu.Unlock()
}

// Source returns the selected source and origin.
func (f *File) Source() (string, image.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.source, f.origin
}

// Capture returns the selected frame.
func (f *File) Capture(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	source, origin := f.Source()

	var img image.Image
	if source == "" {
		key, latest, ok := f.cache.Latest()
		if !ok {
			return Frame{}, fmt.Errorf("no frame loaded: %w", ErrNoFrame)
		}
		source, img = key, latest
	} else if cached, ok := f.cache.Get(source); ok {
		img = cached
	} else {
		loaded, err := f.cache.Load(source)
		if err != nil {
			return Frame{}, err
		}
		img = loaded
	}

	b := img.Bounds()
	return Frame{
		Image:  img,
		Screen: image.Rectangle{Min: origin, Max: origin.Add(b.Size())},
		Source: source,
		Time:   time.Now(),
	}, nil
}
