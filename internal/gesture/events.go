package gesture

import (
	"fmt"
	"strings"
	"time"
)

// Action is the lifecycle stage of a pointer event.
type Action int

const (
	// ActionDown is the first pointer touching down.
	ActionDown Action = iota
	// ActionPointerDown is an additional pointer touching down.
	ActionPointerDown
	// ActionMove reports a new position for one pointer.
	ActionMove
	// ActionPointerUp is a pointer lifting while others remain down.
	ActionPointerUp
	// ActionUp is the last pointer lifting.
	ActionUp
	// ActionCancel aborts the gesture.
	ActionCancel
)

var actionNames = [...]string{"down", "pointer_down", "move", "pointer_up", "up", "cancel"}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// ParseAction converts a name such as "pointer_down" to an Action.
func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range actionNames {
		if s == name {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pointer action: %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// PointerEvent is one raw input sample. Each event describes a single
// pointer; a frame in which several pointers move is a run of ActionMove
// events sharing one Time.
type PointerEvent struct {
	Action  Action        `json:"action"`
	Pointer int           `json:"pointer"`
	X       float64       `json:"x"`
	Y       float64       `json:"y"`
	Time    time.Duration `json:"time"` // monotonic, since an arbitrary origin
}

// Kind identifies a recognized gesture.
type Kind int

const (
	KindTap Kind = iota
	KindDoubleTap
	KindLongPress
	KindScroll
	KindSwipe          // N-finger swipe, N ≥ 2
	KindMultiDoubleTap // N-finger double tap, N ≥ 2
)

var kindNames = [...]string{"tap", "double_tap", "long_press", "scroll", "swipe", "multi_double_tap"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Direction is the dominant axis and sign of a movement.
type Direction int

const (
	DirNone Direction = iota
	DirLeft
	DirRight
	DirUp
	DirDown
)

func (d Direction) String() string {
	switch d {
	case DirLeft:
		return "LEFT"
	case DirRight:
		return "RIGHT"
	case DirUp:
		return "UP"
	case DirDown:
		return "DOWN"
	default:
		return "NONE"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// DirectionOf classifies (dx, dy) by its dominant axis. Ties go to the
// vertical axis. Screen y grows downward.
func DirectionOf(dx, dy float64) Direction {
	if abs(dx) > abs(dy) {
		if dx > 0 {
			return DirRight
		}
		return DirLeft
	}
	if dy > 0 {
		return DirDown
	}
	return DirUp
}

// Event is a recognized gesture.
type Event struct {
	Kind      Kind          `json:"kind"`
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
	Direction Direction     `json:"direction,omitempty"`
	Fingers   int           `json:"fingers"`
	Time      time.Duration `json:"time"`
}

var fingerWords = [...]string{"ZERO", "ONE", "TWO", "THREE", "FOUR", "FIVE", "SIX", "SEVEN", "EIGHT", "NINE", "TEN"}

func fingerWord(n int) string {
	if n >= 0 && n < len(fingerWords) {
		return fingerWords[n]
	}
	return fmt.Sprintf("%d", n)
}

// Key returns the binding key of the event, for example "DOUBLE_TAP",
// "SCROLL_DOWN" or "THREE_FINGER_SWIPE_LEFT".
func (e Event) Key() string {
	switch e.Kind {
	case KindTap:
		return "TAP"
	case KindDoubleTap:
		return "DOUBLE_TAP"
	case KindLongPress:
		return "LONG_PRESS"
	case KindScroll:
		return "SCROLL_" + e.Direction.String()
	case KindSwipe:
		return fingerWord(e.Fingers) + "_FINGER_SWIPE_" + e.Direction.String()
	case KindMultiDoubleTap:
		return fingerWord(e.Fingers) + "_FINGER_DOUBLE_TAP"
	default:
		return "UNKNOWN"
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
