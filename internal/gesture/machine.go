package gesture

import (
	"math"
	"time"
)

// Config holds recognizer thresholds. Lengths marked dp are scaled by
// Density; lengths marked px are not.
type Config struct {
	SwipeThreshold   float64       // dp, mean multi-finger displacement
	ScrollThreshold  float64       // px, accumulated single-finger travel
	TouchSlop        float64       // dp, movement that cancels tap and long press
	DoubleTapSlop    float64       // px, distance between the taps of a double tap
	TapTimeout       time.Duration // longest multi-finger tap
	DoubleTapTimeout time.Duration
	LongPressTimeout time.Duration
	MaxPointers      int // pointers with a recorded start position
	Density          float64
}

// DefaultConfig returns the thresholds used on a density 1.0 display.
func DefaultConfig() Config {
	return Config{
		SwipeThreshold:   100,
		ScrollThreshold:  50,
		TouchSlop:        8,
		DoubleTapSlop:    100,
		TapTimeout:       250 * time.Millisecond,
		DoubleTapTimeout: 300 * time.Millisecond,
		LongPressTimeout: 500 * time.Millisecond,
		MaxPointers:      10,
		Density:          1,
	}
}

type pointerState struct {
	x, y     float64
	sx, sy   float64
	hasStart bool
}

// Machine turns a pointer event stream into gestures.
//
// Gestures that stay single-pointer from first down to last up go through
// the tap / double tap / long press / scroll recognizer. Once a second
// pointer lands the gesture belongs to the multi-finger path for the rest of
// its life: an N-finger swipe fires as soon as the mean displacement of the
// tracked pointers crosses SwipeThreshold, and a short N-finger tap that
// follows another within DoubleTapTimeout fires an N-finger double tap.
// A swipe always wins; after it fires the gesture emits nothing more.
//
// The long-press timer is the only scheduled callback. Machine is not safe
// for concurrent use; timer callbacks must be delivered on the goroutine
// calling Handle.
type Machine struct {
	cfg   Config
	sched Scheduler
	emit  func(Event)

	pointers    map[int]*pointerState
	maxPointers int
	startTime   time.Duration
	swiped      bool

	// single-pointer recognizer
	single      bool
	downX       float64
	downY       float64
	lastX       float64
	lastY       float64
	accX        float64
	accY        float64
	moved       bool
	scrolled    bool
	longPressed bool
	pressSeq    uint64
	stopPress   func() bool

	lastTapUp   time.Duration
	lastTapX    float64
	lastTapY    float64
	hasLastTap  bool
	lastMultiUp time.Duration
	lastMultiN  int
}

// NewMachine creates a Machine. emit receives every recognized gesture.
func NewMachine(cfg Config, sched Scheduler, emit func(Event)) *Machine {
	def := DefaultConfig()
	if cfg.Density <= 0 {
		cfg.Density = def.Density
	}
	if cfg.MaxPointers <= 0 {
		cfg.MaxPointers = def.MaxPointers
	}
	if cfg.LongPressTimeout <= 0 {
		cfg.LongPressTimeout = def.LongPressTimeout
	}
	if emit == nil {
		emit = func(Event) {}
	}
	return &Machine{
		cfg:      cfg,
		sched:    sched,
		emit:     emit,
		pointers: make(map[int]*pointerState),
	}
}

// Config returns the active thresholds.
func (m *Machine) Config() Config { return m.cfg }

// ActivePointers returns the number of pointers currently down.
func (m *Machine) ActivePointers() int { return len(m.pointers) }

// Handle consumes one pointer event.
func (m *Machine) Handle(ev PointerEvent) {
	switch ev.Action {
	case ActionDown:
		if len(m.pointers) > 0 {
			m.pointerDown(ev)
			return
		}
		m.firstDown(ev)
	case ActionPointerDown:
		if len(m.pointers) == 0 {
			m.firstDown(ev)
			return
		}
		m.pointerDown(ev)
	case ActionMove:
		m.move(ev)
	case ActionPointerUp, ActionUp:
		if len(m.pointers) <= 1 {
			m.lastUp(ev)
			return
		}
		delete(m.pointers, ev.Pointer)
	case ActionCancel:
		m.Reset()
	}
}

// Reset drops all transient state and double-tap memory without emitting.
func (m *Machine) Reset() {
	m.resetGesture()
	m.hasLastTap = false
	m.lastMultiN = 0
}

func (m *Machine) resetGesture() {
	m.cancelLongPress()
	m.pointers = make(map[int]*pointerState)
	m.maxPointers = 0
	m.swiped = false
	m.single = false
	m.moved, m.scrolled, m.longPressed = false, false, false
	m.accX, m.accY = 0, 0
}

func (m *Machine) firstDown(ev PointerEvent) {
	m.resetGesture()
	m.pointers[ev.Pointer] = &pointerState{x: ev.X, y: ev.Y, sx: ev.X, sy: ev.Y, hasStart: true}
	m.maxPointers = 1
	m.startTime = ev.Time

	m.single = true
	m.downX, m.downY = ev.X, ev.Y
	m.lastX, m.lastY = ev.X, ev.Y
	if m.hasLastTap && ev.Time-m.lastTapUp >= m.cfg.DoubleTapTimeout {
		m.hasLastTap = false
	}
	m.armLongPress(ev.Time)
}

func (m *Machine) pointerDown(ev PointerEvent) {
	p := &pointerState{x: ev.X, y: ev.Y}
	if m.tracked() < m.cfg.MaxPointers {
		p.sx, p.sy, p.hasStart = ev.X, ev.Y, true
	}
	m.pointers[ev.Pointer] = p
	m.maxPointers = max(m.maxPointers, len(m.pointers))

	if m.single {
		m.single = false
		m.hasLastTap = false
		m.cancelLongPress()
	}
}

func (m *Machine) tracked() int {
	n := 0
	for _, p := range m.pointers {
		if p.hasStart {
			n++
		}
	}
	return n
}

func (m *Machine) move(ev PointerEvent) {
	p, ok := m.pointers[ev.Pointer]
	if !ok {
		return
	}
	p.x, p.y = ev.X, ev.Y

	if m.swiped {
		return
	}
	if len(m.pointers) >= 2 {
		m.checkSwipe(ev.Time)
		return
	}
	if m.single {
		m.singleMove(ev)
	}
}

func (m *Machine) checkSwipe(t time.Duration) {
	var sumX, sumY float64
	n := 0
	for _, p := range m.pointers {
		if !p.hasStart {
			continue
		}
		sumX += p.x - p.sx
		sumY += p.y - p.sy
		n++
	}
	if n == 0 {
		return
	}
	dx, dy := sumX/float64(n), sumY/float64(n)
	if math.Hypot(dx, dy) <= m.cfg.SwipeThreshold*m.cfg.Density {
		return
	}
	m.swiped = true
	m.lastMultiN = 0
	cx, cy := m.centroid()
	m.emit(Event{
		Kind:      KindSwipe,
		X:         cx,
		Y:         cy,
		Direction: DirectionOf(dx, dy),
		Fingers:   m.maxPointers,
		Time:      t,
	})
}

func (m *Machine) centroid() (float64, float64) {
	var x, y float64
	for _, p := range m.pointers {
		x += p.x
		y += p.y
	}
	n := float64(len(m.pointers))
	return x / n, y / n
}

func (m *Machine) singleMove(ev PointerEvent) {
	if !m.moved && math.Hypot(ev.X-m.downX, ev.Y-m.downY) > m.cfg.TouchSlop*m.cfg.Density {
		m.moved = true
		m.cancelLongPress()
	}
	dx, dy := ev.X-m.lastX, ev.Y-m.lastY
	m.lastX, m.lastY = ev.X, ev.Y
	if m.longPressed {
		return
	}

	m.accX += dx
	m.accY += dy
	if abs(m.accX) > m.cfg.ScrollThreshold || abs(m.accY) > m.cfg.ScrollThreshold {
		dir := DirectionOf(m.accX, m.accY)
		m.accX, m.accY = 0, 0
		m.scrolled = true
		m.emit(Event{Kind: KindScroll, X: ev.X, Y: ev.Y, Direction: dir, Fingers: 1, Time: ev.Time})
	}
}

func (m *Machine) lastUp(ev PointerEvent) {
	if len(m.pointers) == 0 {
		return
	}
	if p, ok := m.pointers[ev.Pointer]; ok {
		p.x, p.y = ev.X, ev.Y
	}

	switch {
	case m.single:
		m.singleUp(ev)
	case m.swiped:
	default:
		m.multiUp(ev)
	}
	m.resetGesture()
}

func (m *Machine) singleUp(ev PointerEvent) {
	m.cancelLongPress()
	if m.longPressed || m.scrolled || m.moved {
		m.hasLastTap = false
		return
	}

	if m.hasLastTap && m.startTime-m.lastTapUp < m.cfg.DoubleTapTimeout &&
		math.Hypot(m.downX-m.lastTapX, m.downY-m.lastTapY) < m.cfg.DoubleTapSlop {
		m.hasLastTap = false
		m.emit(Event{Kind: KindDoubleTap, X: m.downX, Y: m.downY, Fingers: 1, Time: ev.Time})
		return
	}

	m.hasLastTap = true
	m.lastTapUp = ev.Time
	m.lastTapX, m.lastTapY = m.downX, m.downY
	m.emit(Event{Kind: KindTap, X: m.downX, Y: m.downY, Fingers: 1, Time: ev.Time})
}

func (m *Machine) multiUp(ev PointerEvent) {
	n := m.maxPointers
	if ev.Time-m.startTime >= m.cfg.TapTimeout {
		m.lastMultiN = 0
		return
	}
	if m.lastMultiN == n && ev.Time-m.lastMultiUp < m.cfg.DoubleTapTimeout {
		m.lastMultiN = 0
		cx, cy := m.centroid()
		m.emit(Event{Kind: KindMultiDoubleTap, X: cx, Y: cy, Fingers: n, Time: ev.Time})
		return
	}
	m.lastMultiUp = ev.Time
	m.lastMultiN = n
}

func (m *Machine) armLongPress(down time.Duration) {
	m.cancelLongPress()
	if m.sched == nil {
		return
	}
	m.pressSeq++
	seq := m.pressSeq
	due := down + m.cfg.LongPressTimeout
	m.stopPress = m.sched.AfterFunc(m.cfg.LongPressTimeout, func() {
		m.fireLongPress(seq, due)
	})
}

func (m *Machine) cancelLongPress() {
	m.pressSeq++
	if m.stopPress != nil {
		m.stopPress()
		m.stopPress = nil
	}
}

func (m *Machine) fireLongPress(seq uint64, due time.Duration) {
	if seq != m.pressSeq || !m.single || m.moved || m.scrolled || len(m.pointers) != 1 {
		return
	}
	m.stopPress = nil
	m.longPressed = true
	m.hasLastTap = false
	m.emit(Event{Kind: KindLongPress, X: m.downX, Y: m.downY, Fingers: 1, Time: due})
}
