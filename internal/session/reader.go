package session

import (
	"time"
)

// ReadMode is what the reader is currently narrating.
type ReadMode int

const (
	ReadIdle ReadMode = iota
	ReadSummary
	ReadAuto
)

func (m ReadMode) String() string {
	switch m {
	case ReadSummary:
		return "summary"
	case ReadAuto:
		return "auto"
	default:
		return "idle"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m ReadMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// readItem is one queued announcement. Items with a node move focus to it
// before speaking.
type readItem struct {
	text    string
	node    int
	hasNode bool
}

// reader paces a queue of announcements on the loop's clock. Every start or
// stop bumps gen so a callback scheduled for an older queue does nothing.
type reader struct {
	clock Clock
	speak func(readItem)

	mode     ReadMode
	queue    []readItem
	interval time.Duration
	stop     func() bool
	gen      uint64
}

func newReader(clock Clock, speak func(readItem)) *reader {
	return &reader{clock: clock, speak: speak}
}

// start replaces whatever is being read. The first item is spoken
// immediately.
func (r *reader) start(mode ReadMode, items []readItem, interval time.Duration) {
	r.cancel()
	if len(items) == 0 {
		return
	}
	r.mode, r.queue, r.interval = mode, items, interval
	r.step(r.gen)
}

func (r *reader) cancel() {
	r.gen++
	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
	r.mode, r.queue = ReadIdle, nil
}

func (r *reader) step(gen uint64) {
	if gen != r.gen || len(r.queue) == 0 {
		return
	}
	r.stop = nil
	item := r.queue[0]
	r.queue = r.queue[1:]
	r.speak(item)
	if gen != r.gen {
		return
	}
	if len(r.queue) == 0 {
		r.mode = ReadIdle
		return
	}
	r.stop = r.clock.AfterFunc(r.interval, func() { r.step(gen) })
}

// remaining returns how many items are still queued.
func (r *reader) remaining() int { return len(r.queue) }
