package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FrameCache holds decoded screenshots keyed by source.
//
// Frames come from two places: files loaded with Load (keyed by their path)
// and captured frames stored with Put (keyed by whatever name the capturer
// chose). The most recently stored or loaded frame is tracked so a detection
// pass can run against "the last screenshot" without naming it.
//
// FrameCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Frames stay in memory until removed with Evict or Clear. Screenshots are
// large; callers capturing continuously should Evict stale keys.
type FrameCache struct {
	mu     sync.RWMutex
	frames map[string]image.Image
	latest string
}

// NewFrameCache creates an empty cache.
func NewFrameCache() *FrameCache {
	return &FrameCache{
		frames: make(map[string]image.Image),
	}
}

// Load returns the frame decoded from path, reading the file only on the
// first request.
//
// Parameters:
//   - path: File path of a PNG, JPEG, or GIF screenshot.
//
// Returns:
//   - image.Image: The decoded frame.
//   - error: Non-nil if the file cannot be opened or decoded.
func (c *FrameCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	img, ok := c.frames[path]
	c.mu.RUnlock()
	if ok {
		c.touch(path)
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err = image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.Put(path, img)
	return img, nil
}

// Put stores a frame under key and marks it as the latest.
func (c *FrameCache) Put(key string, img image.Image) {
	c.mu.Lock()
	c.frames[key] = img
	c.latest = key
	c.mu.Unlock()
}

// Get returns the frame stored under key.
func (c *FrameCache) Get(key string) (image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.frames[key]
	return img, ok
}

// Latest returns the most recently stored or loaded frame and its key.
func (c *FrameCache) Latest() (string, image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.frames[c.latest]
	return c.latest, img, ok
}

// Clear drops every frame.
func (c *FrameCache) Clear() {
	c.mu.Lock()
	c.frames = make(map[string]image.Image)
	c.latest = ""
	c.mu.Unlock()
}

// Evict drops one frame. Evicting an unknown key does nothing.
func (c *FrameCache) Evict(key string) {
	c.mu.Lock()
	delete(c.frames, key)
	if c.latest == key {
		c.latest = ""
	}
	c.mu.Unlock()
}

// Len returns the number of cached frames.
func (c *FrameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.frames)
}

func (c *FrameCache) touch(key string) {
	c.mu.Lock()
	c.latest = key
	c.mu.Unlock()
}

// FrameInfo describes a cached frame.
type FrameInfo struct {
	// Key is the cache key (file path or capture name).
	Key string `json:"key"`

	// Width and Height are the frame dimensions in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is "png", "jpeg", "gif" for files and "capture" for frames
	// stored by a capturer.
	Format string `json:"format"`

	// HasAlpha indicates an alpha channel in the decoded pixel type.
	HasAlpha bool `json:"has_alpha"`
}

// DescribeFrame builds FrameInfo for img.
//
// # Format Detection
//
// The format is derived from the key's extension:
//   - ".png" -> "png"
//   - ".jpg", ".jpeg" -> "jpeg"
//   - ".gif" -> "gif"
//   - anything else -> "capture"
func DescribeFrame(key string, img image.Image) FrameInfo {
	format := "capture"
	switch strings.ToLower(filepath.Ext(key)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	}

	hasAlpha := false
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
	}

	b := img.Bounds()
	return FrameInfo{
		Key:      key,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Format:   format,
		HasAlpha: hasAlpha,
	}
}
