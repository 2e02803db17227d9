package gesture

import (
	"testing"
	"time"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func down(id int, x, y float64, t int) PointerEvent {
	return PointerEvent{Action: ActionDown, Pointer: id, X: x, Y: y, Time: ms(t)}
}

func pdown(id int, x, y float64, t int) PointerEvent {
	return PointerEvent{Action: ActionPointerDown, Pointer: id, X: x, Y: y, Time: ms(t)}
}

func move(id int, x, y float64, t int) PointerEvent {
	return PointerEvent{Action: ActionMove, Pointer: id, X: x, Y: y, Time: ms(t)}
}

func pup(id int, x, y float64, t int) PointerEvent {
	return PointerEvent{Action: ActionPointerUp, Pointer: id, X: x, Y: y, Time: ms(t)}
}

func up(id int, x, y float64, t int) PointerEvent {
	return PointerEvent{Action: ActionUp, Pointer: id, X: x, Y: y, Time: ms(t)}
}

// run replays events through a default Machine and returns what it emitted.
func run(t *testing.T, cfg Config, events []PointerEvent, settle time.Duration) []Event {
	t.Helper()
	var got []Event
	clock := &VirtualClock{}
	m := NewMachine(cfg, clock, func(e Event) { got = append(got, e) })
	Replay(m, clock, events, settle)
	return got
}

func keys(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Key()
	}
	return out
}

func assertKeys(t *testing.T, got []Event, want ...string) {
	t.Helper()
	gk := keys(got)
	if len(gk) != len(want) {
		t.Fatalf("events: got %v, want %v", gk, want)
	}
	for i := range want {
		if gk[i] != want[i] {
			t.Errorf("event %d: got %s, want %s", i, gk[i], want[i])
		}
	}
}

func TestMachine_TwoFingerSwipeDown(t *testing.T) {
	got := run(t, DefaultConfig(), []PointerEvent{
		down(0, 100, 100, 0),
		pdown(1, 120, 100, 10),
		move(0, 100, 150, 50), move(1, 120, 150, 50),
		move(0, 100, 200, 100), move(1, 120, 200, 100),
		move(0, 100, 250, 150), move(1, 120, 250, 150),
		pup(1, 120, 250, 160),
		up(0, 100, 250, 170),
	}, 0)

	assertKeys(t, got, "TWO_FINGER_SWIPE_DOWN")
	if got[0].Fingers != 2 || got[0].Direction != DirDown {
		t.Errorf("swipe: got %+v", got[0])
	}
	if got[0].Time != ms(150) {
		t.Errorf("swipe time: got %v, want 150ms", got[0].Time)
	}
}

func TestMachine_SwipeDirections(t *testing.T) {
	tests := []struct {
		name   string
		dx, dy float64
		want   string
	}{
		{"left", -150, 10, "TWO_FINGER_SWIPE_LEFT"},
		{"right", 150, -20, "TWO_FINGER_SWIPE_RIGHT"},
		{"up", 5, -150, "TWO_FINGER_SWIPE_UP"},
		{"down", 0, 150, "TWO_FINGER_SWIPE_DOWN"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := run(t, DefaultConfig(), []PointerEvent{
				down(0, 300, 300, 0),
				pdown(1, 400, 300, 5),
				move(0, 300+tc.dx, 300+tc.dy, 60),
				move(1, 400+tc.dx, 300+tc.dy, 60),
				pup(1, 400+tc.dx, 300+tc.dy, 70),
				up(0, 300+tc.dx, 300+tc.dy, 80),
			}, 0)
			assertKeys(t, got, tc.want)
		})
	}
}

func TestMachine_ThreeFingerSwipeUsesMaxPointers(t *testing.T) {
	got := run(t, DefaultConfig(), []PointerEvent{
		down(0, 100, 500, 0),
		pdown(1, 200, 500, 5),
		pdown(2, 300, 500, 8),
		move(0, 100, 380, 60), move(1, 200, 380, 60), move(2, 300, 380, 60),
		pup(2, 300, 380, 70), pup(1, 200, 380, 71), up(0, 100, 380, 72),
	}, 0)
	assertKeys(t, got, "THREE_FINGER_SWIPE_UP")
}

func TestMachine_SwipeThresholdScalesWithDensity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Density = 2
	events := []PointerEvent{
		down(0, 100, 100, 0),
		pdown(1, 120, 100, 10),
		move(0, 100, 250, 100), move(1, 120, 250, 100),
		pup(1, 120, 250, 400), up(0, 100, 250, 410),
	}
	if got := run(t, cfg, events, 0); len(got) != 0 {
		t.Errorf("150px at density 2 should not swipe: got %v", keys(got))
	}
}

func TestMachine_TwoFingerDoubleTap(t *testing.T) {
	got := run(t, DefaultConfig(), []PointerEvent{
		down(0, 100, 100, 0),
		pdown(1, 200, 100, 5),
		move(0, 103, 102, 30),
		pup(1, 200, 100, 60),
		up(0, 103, 102, 70),

		down(0, 101, 99, 150),
		pdown(1, 201, 99, 155),
		pup(1, 201, 99, 200),
		up(0, 101, 99, 220),
	}, 0)
	assertKeys(t, got, "TWO_FINGER_DOUBLE_TAP")
	if got[0].Fingers != 2 {
		t.Errorf("fingers: got %d, want 2", got[0].Fingers)
	}
}

func TestMachine_MultiTapCorrelation(t *testing.T) {
	twoTap := func(start int) []PointerEvent {
		return []PointerEvent{
			down(0, 100, 100, start),
			pdown(1, 200, 100, start+5),
			pup(1, 200, 100, start+50),
			up(0, 100, 100, start+60),
		}
	}
	threeTap := []PointerEvent{
		down(0, 100, 100, 150),
		pdown(1, 200, 100, 152),
		pdown(2, 300, 100, 154),
		pup(2, 300, 100, 190), pup(1, 200, 100, 191), up(0, 100, 100, 200),
	}

	tests := []struct {
		name   string
		events []PointerEvent
	}{
		{"single two finger tap", twoTap(0)},
		{"second tap too late", append(twoTap(0), twoTap(400)...)},
		{"finger count differs", append(twoTap(0), threeTap...)},
		{"first tap too slow", append([]PointerEvent{
			down(0, 100, 100, 0), pdown(1, 200, 100, 5), pup(1, 200, 100, 280), up(0, 100, 100, 290),
		}, twoTap(350)...)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := run(t, DefaultConfig(), tc.events, 0); len(got) != 0 {
				t.Errorf("got %v, want nothing", keys(got))
			}
		})
	}

	// Three taps in a row: the third starts a new correlation.
	triple := append(append(twoTap(0), twoTap(100)...), twoTap(200)...)
	assertKeys(t, run(t, DefaultConfig(), triple, 0), "TWO_FINGER_DOUBLE_TAP")
}

func TestMachine_LongPress(t *testing.T) {
	got := run(t, DefaultConfig(), []PointerEvent{
		down(0, 240, 360, 0),
	}, ms(600))

	assertKeys(t, got, "LONG_PRESS")
	if got[0].X != 240 || got[0].Y != 360 || got[0].Time != ms(500) {
		t.Errorf("long press: got %+v", got[0])
	}
}

func TestMachine_LongPressThenUpIsNotTap(t *testing.T) {
	got := run(t, DefaultConfig(), []PointerEvent{
		down(0, 240, 360, 0),
		move(0, 243, 361, 300),
		up(0, 243, 361, 600),
	}, 0)
	assertKeys(t, got, "LONG_PRESS")
}

func TestMachine_LongPressCancelled(t *testing.T) {
	tests := []struct {
		name   string
		events []PointerEvent
	}{
		{"lifted early", []PointerEvent{down(0, 10, 10, 0), up(0, 10, 10, 200)}},
		{"moved past slop", []PointerEvent{down(0, 10, 10, 0), move(0, 30, 10, 100)}},
		{"second finger", []PointerEvent{down(0, 10, 10, 0), pdown(1, 80, 10, 100)}},
		{"cancelled", []PointerEvent{down(0, 10, 10, 0), {Action: ActionCancel, Time: ms(100)}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, e := range run(t, DefaultConfig(), tc.events, ms(1000)) {
				if e.Kind == KindLongPress {
					t.Errorf("unexpected long press: %+v", e)
				}
			}
		})
	}
}

func TestMachine_ScrollOnce(t *testing.T) {
	var got []Event
	clock := &VirtualClock{}
	m := NewMachine(DefaultConfig(), clock, func(e Event) { got = append(got, e) })
	Replay(m, clock, []PointerEvent{
		down(0, 500, 500, 0),
		move(0, 500, 520, 20),
		move(0, 500, 540, 40),
		move(0, 500, 560, 60),
	}, 0)

	assertKeys(t, got, "SCROLL_DOWN")
	if m.accX != 0 || m.accY != 0 {
		t.Errorf("accumulator after scroll: got (%v,%v), want (0,0)", m.accX, m.accY)
	}

	Replay(m, clock, []PointerEvent{up(0, 500, 560, 100)}, ms(1000))
	assertKeys(t, got, "SCROLL_DOWN")
}

func TestMachine_ScrollRepeatsAndFollowsTravel(t *testing.T) {
	got := run(t, DefaultConfig(), []PointerEvent{
		down(0, 500, 500, 0),
		move(0, 500, 440, 20),
		move(0, 500, 380, 40),
		move(0, 420, 380, 60),
		up(0, 420, 380, 80),
	}, 0)
	assertKeys(t, got, "SCROLL_UP", "SCROLL_UP", "SCROLL_LEFT")
}

func TestMachine_ScrollThresholdIsExclusive(t *testing.T) {
	got := run(t, DefaultConfig(), []PointerEvent{
		down(0, 0, 0, 0),
		move(0, 50, 0, 20),
		up(0, 50, 0, 40),
	}, 0)
	if len(got) != 0 {
		t.Errorf("50px should not scroll: got %v", keys(got))
	}
}

func TestMachine_TapAndDoubleTap(t *testing.T) {
	got := run(t, DefaultConfig(), []PointerEvent{
		down(0, 300, 300, 0),
		up(0, 301, 300, 60),
		down(0, 310, 305, 200),
		up(0, 310, 305, 250),
		down(0, 300, 300, 1000),
		up(0, 300, 300, 1050),
	}, 0)
	assertKeys(t, got, "TAP", "DOUBLE_TAP", "TAP")
	if got[1].X != 310 || got[1].Y != 305 {
		t.Errorf("double tap position: got (%v,%v), want (310,305)", got[1].X, got[1].Y)
	}
}

func TestMachine_DoubleTapNeedsProximity(t *testing.T) {
	got := run(t, DefaultConfig(), []PointerEvent{
		down(0, 100, 100, 0), up(0, 100, 100, 50),
		down(0, 400, 400, 150), up(0, 400, 400, 200),
	}, 0)
	assertKeys(t, got, "TAP", "TAP")
}

func TestMachine_CancelClearsDoubleTapMemory(t *testing.T) {
	got := run(t, DefaultConfig(), []PointerEvent{
		down(0, 100, 100, 0), up(0, 100, 100, 50),
		{Action: ActionCancel, Time: ms(80)},
		down(0, 100, 100, 150), up(0, 100, 100, 200),
	}, 0)
	assertKeys(t, got, "TAP", "TAP")
}

func TestMachine_SecondFingerDisarmsSinglePath(t *testing.T) {
	got := run(t, DefaultConfig(), []PointerEvent{
		down(0, 100, 100, 0),
		pdown(1, 200, 100, 400),
		pup(1, 200, 100, 450),
		move(0, 100, 300, 500),
		up(0, 100, 300, 600),
	}, ms(1000))
	if len(got) != 0 {
		t.Errorf("got %v, want nothing", keys(got))
	}
}

func TestMachine_PointerCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPointers = 2
	var got []Event
	clock := &VirtualClock{}
	m := NewMachine(cfg, clock, func(e Event) { got = append(got, e) })
	Replay(m, clock, []PointerEvent{
		down(0, 100, 100, 0),
		pdown(1, 200, 100, 5),
		pdown(2, 300, 100, 10),
		// Only the untracked third pointer moves.
		move(2, 300, 600, 50),
	}, 0)
	if len(got) != 0 {
		t.Errorf("untracked pointer should not swipe: got %v", keys(got))
	}
	if m.ActivePointers() != 3 {
		t.Errorf("active pointers: got %d, want 3", m.ActivePointers())
	}
}

func TestDirectionOf(t *testing.T) {
	tests := []struct {
		dx, dy float64
		want   Direction
	}{
		{10, 0, DirRight},
		{-10, 3, DirLeft},
		{0, 10, DirDown},
		{2, -10, DirUp},
		{5, 5, DirDown},
		{0, 0, DirUp},
	}
	for _, tc := range tests {
		if got := DirectionOf(tc.dx, tc.dy); got != tc.want {
			t.Errorf("DirectionOf(%v,%v): got %v, want %v", tc.dx, tc.dy, got, tc.want)
		}
	}
}

func TestEventKey(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{Event{Kind: KindTap}, "TAP"},
		{Event{Kind: KindDoubleTap}, "DOUBLE_TAP"},
		{Event{Kind: KindLongPress}, "LONG_PRESS"},
		{Event{Kind: KindScroll, Direction: DirRight}, "SCROLL_RIGHT"},
		{Event{Kind: KindSwipe, Fingers: 2, Direction: DirDown}, "TWO_FINGER_SWIPE_DOWN"},
		{Event{Kind: KindMultiDoubleTap, Fingers: 3}, "THREE_FINGER_DOUBLE_TAP"},
		{Event{Kind: KindSwipe, Fingers: 12, Direction: DirLeft}, "12_FINGER_SWIPE_LEFT"},
	}
	for _, tc := range tests {
		if got := tc.ev.Key(); got != tc.want {
			t.Errorf("Key(): got %s, want %s", got, tc.want)
		}
	}
}

func TestParseAction(t *testing.T) {
	for i, name := range actionNames {
		a, err := ParseAction(name)
		if err != nil || a != Action(i) {
			t.Errorf("ParseAction(%q): got (%v,%v)", name, a, err)
		}
	}
	if _, err := ParseAction("hover"); err == nil {
		t.Error("ParseAction(hover) should fail")
	}
}
