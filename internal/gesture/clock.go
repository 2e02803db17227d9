package gesture

import (
	"sort"
	"sync"
	"time"
)

// Scheduler runs a callback after a delay. The returned stop function
// cancels the callback and reports whether it was still pending.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// PostScheduler delivers timer callbacks through Post, so they run on the
// goroutine that owns the recognizer. A nil Post runs callbacks on the timer
// goroutine.
type PostScheduler struct {
	Post func(func())
}

// AfterFunc implements Scheduler using time.AfterFunc.
func (s PostScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	post := s.Post
	t := time.AfterFunc(d, func() {
		if post != nil {
			post(f)
			return
		}
		f()
	})
	return t.Stop
}

// VirtualClock is a Scheduler driven by explicit time, for replaying
// recorded pointer streams and for tests.
type VirtualClock struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*virtualTimer
}

type virtualTimer struct {
	due     time.Duration
	seq     int
	f       func()
	stopped bool
}

// Now returns the current virtual time.
func (c *VirtualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules f at Now()+d.
func (c *VirtualClock) AfterFunc(d time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &virtualTimer{due: c.now + d, seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if t.stopped {
			return false
		}
		t.stopped = true
		return true
	}
}

// AdvanceTo moves the clock forward to t, running every timer due at or
// before t in due order. Callbacks run without the clock lock held and may
// schedule further timers. Moving backwards is ignored.
func (c *VirtualClock) AdvanceTo(t time.Duration) {
	for {
		c.mu.Lock()
		if t < c.now {
			c.mu.Unlock()
			return
		}
		next := c.popDue(t)
		if next == nil {
			c.now = t
			c.mu.Unlock()
			return
		}
		c.now = next.due
		c.mu.Unlock()
		next.f()
	}
}

// Advance moves the clock forward by d.
func (c *VirtualClock) Advance(d time.Duration) {
	c.AdvanceTo(c.Now() + d)
}

// Pending returns the number of timers that have neither fired nor been
// stopped.
func (c *VirtualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// popDue removes and returns the earliest live timer due at or before t.
// Must be called with c.mu held.
func (c *VirtualClock) popDue(t time.Duration) *virtualTimer {
	live := c.timers[:0]
	for _, vt := range c.timers {
		if !vt.stopped {
			live = append(live, vt)
		}
	}
	c.timers = live
	if len(c.timers) == 0 {
		return nil
	}
	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].due != c.timers[j].due {
			return c.timers[i].due < c.timers[j].due
		}
		return c.timers[i].seq < c.timers[j].seq
	})
	first := c.timers[0]
	if first.due > t {
		return nil
	}
	first.stopped = true
	c.timers = c.timers[1:]
	return first
}

// Replay feeds events to m in order, advancing clock to each event's time
// first so pending timers fire where they belong. The clock then runs on for
// settle after the last event.
func Replay(m *Machine, clock *VirtualClock, events []PointerEvent, settle time.Duration) {
	var last time.Duration
	for _, ev := range events {
		clock.AdvanceTo(ev.Time)
		m.Handle(ev)
		last = ev.Time
	}
	clock.AdvanceTo(last + settle)
}
