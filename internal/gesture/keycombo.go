package gesture

import (
	"fmt"
	"strings"
	"time"
)

// Key is a hardware key watched for shortcut combos.
type Key int

const (
	KeyVolumeUp Key = iota
	KeyVolumeDown
)

func (k Key) String() string {
	if k == KeyVolumeUp {
		return "UP"
	}
	return "DOWN"
}

// ParseKey accepts "up"/"volume_up" and "down"/"volume_down".
func ParseKey(s string) (Key, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "volume_up":
		return KeyVolumeUp, nil
	case "down", "volume_down":
		return KeyVolumeDown, nil
	}
	return 0, fmt.Errorf("unknown key: %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(b []byte) error {
	v, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// KeyEvent is one key transition. Repeat counts auto-repeat downs while the
// key is held.
type KeyEvent struct {
	Key    Key           `json:"key"`
	Down   bool          `json:"down"`
	Repeat int           `json:"repeat"`
	Time   time.Duration `json:"time"`
}

// ComboPattern selects which key sequence toggles chart mode.
type ComboPattern string

const (
	// ComboBoth is up then down, or down then up.
	ComboBoth ComboPattern = "BOTH"
	// ComboDouble is the same key pressed twice.
	ComboDouble ComboPattern = "DOUBLE"
	// ComboLong is either key held for LongPress.
	ComboLong ComboPattern = "LONG"
)

// ParseComboPattern validates a pattern name, case-insensitively.
func ParseComboPattern(s string) (ComboPattern, error) {
	p := ComboPattern(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case ComboBoth, ComboDouble, ComboLong:
		return p, nil
	}
	return "", fmt.Errorf("unknown combo pattern: %q", s)
}

// ComboConfig configures a KeyCombo.
type ComboConfig struct {
	Pattern   ComboPattern
	Window    time.Duration // presses older than this are forgotten
	LongPress time.Duration
	Cooldown  time.Duration // minimum time between triggers
}

// DefaultComboConfig returns the BOTH pattern with a 500ms window.
func DefaultComboConfig() ComboConfig {
	return ComboConfig{
		Pattern:   ComboBoth,
		Window:    500 * time.Millisecond,
		LongPress: 500 * time.Millisecond,
		Cooldown:  800 * time.Millisecond,
	}
}

type keyHit struct {
	key Key
	t   time.Duration
}

type keyState struct {
	down     bool
	longDone bool
	stop     func() bool
}

// KeyCombo recognizes the configured volume-key pattern and calls trigger
// when it matches, at most once per Cooldown.
type KeyCombo struct {
	cfg     ComboConfig
	sched   Scheduler
	trigger func(ComboPattern)

	hits        []keyHit
	keys        [2]keyState
	lastTrigger time.Duration
	triggered   bool
}

// NewKeyCombo creates a recognizer. sched is needed only for ComboLong.
func NewKeyCombo(cfg ComboConfig, sched Scheduler, trigger func(ComboPattern)) *KeyCombo {
	def := DefaultComboConfig()
	if cfg.Pattern == "" {
		cfg.Pattern = def.Pattern
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.LongPress <= 0 {
		cfg.LongPress = def.LongPress
	}
	if cfg.Cooldown < 0 {
		cfg.Cooldown = def.Cooldown
	}
	if trigger == nil {
		trigger = func(ComboPattern) {}
	}
	return &KeyCombo{cfg: cfg, sched: sched, trigger: trigger}
}

// Config returns the active configuration.
func (k *KeyCombo) Config() ComboConfig { return k.cfg }

// Handle consumes one key event and reports whether it triggered.
func (k *KeyCombo) Handle(ev KeyEvent) bool {
	if ev.Key != KeyVolumeUp && ev.Key != KeyVolumeDown {
		return false
	}
	st := &k.keys[ev.Key]

	if !ev.Down {
		if st.stop != nil {
			st.stop()
			st.stop = nil
		}
		st.down = false
		return false
	}

	fired := false
	switch {
	case !st.down:
		st.down, st.longDone = true, false
		if k.cfg.Pattern == ComboLong && k.sched != nil {
			key, due := ev.Key, ev.Time+k.cfg.LongPress
			st.stop = k.sched.AfterFunc(k.cfg.LongPress, func() { k.fireLong(key, due) })
		}
	case ev.Repeat > 0 && !st.longDone && k.cfg.Pattern == ComboLong &&
		ev.Time-k.pressTime(ev.Key) >= k.cfg.LongPress:
		st.longDone = true
		fired = k.fire(ComboLong, ev.Time)
	}

	if ev.Repeat == 0 {
		k.hits = append(k.hits, keyHit{key: ev.Key, t: ev.Time})
		k.prune(ev.Time)
		switch k.cfg.Pattern {
		case ComboBoth:
			if k.lastTwoDiffer() {
				fired = k.fire(ComboBoth, ev.Time) || fired
			}
		case ComboDouble:
			if k.lastTwoSame() {
				fired = k.fire(ComboDouble, ev.Time) || fired
			}
		}
	}
	return fired
}

func (k *KeyCombo) pressTime(key Key) time.Duration {
	for i := len(k.hits) - 1; i >= 0; i-- {
		if k.hits[i].key == key {
			return k.hits[i].t
		}
	}
	return 0
}

func (k *KeyCombo) prune(now time.Duration) {
	i := 0
	for i < len(k.hits) && now-k.hits[i].t > k.cfg.Window {
		i++
	}
	k.hits = k.hits[i:]
}

func (k *KeyCombo) lastTwoDiffer() bool {
	n := len(k.hits)
	return n >= 2 && k.hits[n-2].key != k.hits[n-1].key
}

func (k *KeyCombo) lastTwoSame() bool {
	n := len(k.hits)
	return n >= 2 && k.hits[n-2].key == k.hits[n-1].key
}

func (k *KeyCombo) fireLong(key Key, due time.Duration) {
	st := &k.keys[key]
	st.stop = nil
	if !st.down || st.longDone {
		return
	}
	st.longDone = true
	k.fire(ComboLong, due)
}

func (k *KeyCombo) fire(p ComboPattern, now time.Duration) bool {
	if p != k.cfg.Pattern {
		return false
	}
	if k.triggered && now-k.lastTrigger < k.cfg.Cooldown {
		return false
	}
	k.triggered = true
	k.lastTrigger = now
	k.hits = k.hits[:0]
	k.trigger(p)
	return true
}
