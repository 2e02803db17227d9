package a11y

import (
	"image"
	"sync"
)

// Tapper injects a synthetic tap at absolute screen coordinates into the app
// underneath the panel. It reports whether the host accepted the gesture.
type Tapper interface {
	SynthesizeTap(x, y int) bool
}

// Announcer speaks text through the host's screen reader.
type Announcer interface {
	Announce(text string)
}

// TapperFunc adapts a function to Tapper.
type TapperFunc func(x, y int) bool

// SynthesizeTap calls f(x, y).
func (f TapperFunc) SynthesizeTap(x, y int) bool { return f(x, y) }

// AnnouncerFunc adapts a function to Announcer.
type AnnouncerFunc func(text string)

// Announce calls f(text).
func (f AnnouncerFunc) Announce(text string) { f(text) }

// Recorder is an in-memory host for headless use. It accepts or rejects taps
// according to Accept and keeps everything it was asked to do until drained.
type Recorder struct {
	mu            sync.Mutex
	accept        bool
	taps          []image.Point
	announcements []string
}

// NewRecorder creates a Recorder that accepts taps when accept is true.
func NewRecorder(accept bool) *Recorder {
	return &Recorder{accept: accept}
}

// SetAccept changes whether future taps are accepted.
func (r *Recorder) SetAccept(accept bool) {
	r.mu.Lock()
	r.accept = accept
	r.mu.Unlock()
}

// SynthesizeTap records the tap.
func (r *Recorder) SynthesizeTap(x, y int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.taps = append(r.taps, image.Pt(x, y))
	return r.accept
}

// Announce records the text.
func (r *Recorder) Announce(text string) {
	r.mu.Lock()
	r.announcements = append(r.announcements, text)
	r.mu.Unlock()
}

// Drain returns and clears the recorded taps and announcements.
func (r *Recorder) Drain() (taps []image.Point, announcements []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	taps, announcements = r.taps, r.announcements
	r.taps, r.announcements = nil, nil
	return taps, announcements
}
