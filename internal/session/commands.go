package session

import (
	"fmt"
	"sort"
	"strings"
)

// Command is an action the user can trigger by gesture, voice or key.
type Command string

const (
	CmdNone     Command = ""
	CmdExplore  Command = "explore"  // focus and announce the element under the finger
	CmdActivate Command = "activate" // tap the focused element in the app underneath
	CmdRepeat   Command = "repeat"   // announce the element again
	CmdNext     Command = "next"
	CmdPrevious Command = "previous"
	CmdSummary  Command = "summary" // start or stop reading the chart summary
	CmdAuto     Command = "auto"    // start or stop reading every element in turn
	CmdEnter    Command = "enter"
	CmdExit     Command = "exit"
	CmdToggle   Command = "toggle"
)

var allCommands = []Command{
	CmdExplore, CmdActivate, CmdRepeat, CmdNext, CmdPrevious,
	CmdSummary, CmdAuto, CmdEnter, CmdExit, CmdToggle,
}

// ParseCommand validates a command name. "none" and "" unbind.
func ParseCommand(s string) (Command, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "none" {
		return CmdNone, nil
	}
	for _, c := range allCommands {
		if string(c) == s {
			return c, nil
		}
	}
	return CmdNone, fmt.Errorf("unknown command: %q", s)
}

// Bindings maps gesture keys (gesture.Event.Key) to commands.
type Bindings map[string]Command

// DefaultBindings returns the built-in gesture map.
func DefaultBindings() Bindings {
	return Bindings{
		"TAP":                     CmdExplore,
		"DOUBLE_TAP":              CmdActivate,
		"LONG_PRESS":              CmdRepeat,
		"SCROLL_DOWN":             CmdNext,
		"SCROLL_RIGHT":            CmdNext,
		"SCROLL_UP":               CmdPrevious,
		"SCROLL_LEFT":             CmdPrevious,
		"TWO_FINGER_SWIPE_DOWN":   CmdExit,
		"TWO_FINGER_DOUBLE_TAP":   CmdSummary,
		"THREE_FINGER_DOUBLE_TAP": CmdAuto,
	}
}

// ParseBindings applies "KEY=command" pairs separated by commas or
// semicolons on top of a copy of base.
func ParseBindings(list string, base Bindings) (Bindings, error) {
	out := make(Bindings, len(base))
	for k, v := range base {
		out[k] = v
	}
	for _, pair := range splitList(list) {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("binding %q: want KEY=command", pair)
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		cmd, err := ParseCommand(val)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
		if cmd == CmdNone {
			delete(out, key)
			continue
		}
		out[key] = cmd
	}
	return out, nil
}

// Keys returns the bound gesture keys in sorted order.
func (b Bindings) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// VoicePhrases maps spoken phrases to commands.
type VoicePhrases map[string]Command

// DefaultVoicePhrases returns English phrases plus the Chinese phrases the
// feature shipped with.
func DefaultVoicePhrases() VoicePhrases {
	return VoicePhrases{
		"previous":      CmdPrevious,
		"back":          CmdPrevious,
		"next":          CmdNext,
		"repeat":        CmdRepeat,
		"say again":     CmdRepeat,
		"summary":       CmdSummary,
		"read summary":  CmdSummary,
		"auto":          CmdAuto,
		"read all":      CmdAuto,
		"exit":          CmdExit,
		"close chart":   CmdExit,
		"open chart":    CmdEnter,
		"上一个":           CmdPrevious,
		"下一个":           CmdNext,
		"重复朗读":          CmdRepeat,
		"播放摘要":          CmdSummary,
		"自动播报":          CmdAuto,
		"退出":            CmdExit,
	}
}

// ParseVoicePhrases applies "phrase=command" pairs on top of a copy of base.
func ParseVoicePhrases(list string, base VoicePhrases) (VoicePhrases, error) {
	out := make(VoicePhrases, len(base))
	for k, v := range base {
		out[k] = v
	}
	for _, pair := range splitList(list) {
		phrase, val, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("voice phrase %q: want phrase=command", pair)
		}
		phrase = normalizePhrase(phrase)
		cmd, err := ParseCommand(val)
		if err != nil {
			return nil, fmt.Errorf("voice phrase %q: %w", phrase, err)
		}
		if cmd == CmdNone {
			delete(out, phrase)
			continue
		}
		out[phrase] = cmd
	}
	return out, nil
}

// Match returns the command whose phrase occurs in text. The longest
// matching phrase wins so "read summary" beats "summary".
func (v VoicePhrases) Match(text string) Command {
	text = normalizePhrase(text)
	if text == "" {
		return CmdNone
	}
	best, bestLen := CmdNone, 0
	for phrase, cmd := range v {
		p := normalizePhrase(phrase)
		if p == "" || !strings.Contains(text, p) {
			continue
		}
		if len(p) > bestLen || (len(p) == bestLen && string(cmd) < string(best)) {
			best, bestLen = cmd, len(p)
		}
	}
	return best
}

func normalizePhrase(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '!', '?', '。', '，', '！', '？', '、':
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func splitList(list string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ';' || r == '\n' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
