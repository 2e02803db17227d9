package session

import (
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in      string
		want    Command
		wantErr bool
	}{
		{"explore", CmdExplore, false},
		{" Next ", CmdNext, false},
		{"SUMMARY", CmdSummary, false},
		{"none", CmdNone, false},
		{"", CmdNone, false},
		{"jump", CmdNone, true},
	}
	for _, tc := range tests {
		got, err := ParseCommand(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseCommand(%q) error: got %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("ParseCommand(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseBindings(t *testing.T) {
	b, err := ParseBindings("three_finger_swipe_up=exit; LONG_PRESS=none,DOUBLE_TAP = repeat", DefaultBindings())
	if err != nil {
		t.Fatalf("ParseBindings: %v", err)
	}
	if got := b["THREE_FINGER_SWIPE_UP"]; got != CmdExit {
		t.Errorf("added binding: got %q, want exit", got)
	}
	if _, ok := b["LONG_PRESS"]; ok {
		t.Error("LONG_PRESS=none should remove the binding")
	}
	if got := b["DOUBLE_TAP"]; got != CmdRepeat {
		t.Errorf("overridden binding: got %q, want repeat", got)
	}
	if got := b["TWO_FINGER_SWIPE_DOWN"]; got != CmdExit {
		t.Errorf("default binding: got %q, want exit", got)
	}

	if def := DefaultBindings(); def["LONG_PRESS"] != CmdRepeat {
		t.Error("ParseBindings must not modify its base")
	}
}

func TestParseBindings_Errors(t *testing.T) {
	for _, spec := range []string{"TAP", "TAP=fly"} {
		if _, err := ParseBindings(spec, nil); err == nil {
			t.Errorf("ParseBindings(%q): expected an error", spec)
		}
	}
}

func TestBindings_Keys(t *testing.T) {
	keys := Bindings{"TAP": CmdExplore, "DOUBLE_TAP": CmdActivate, "LONG_PRESS": CmdRepeat}.Keys()
	want := []string{"DOUBLE_TAP", "LONG_PRESS", "TAP"}
	if !sameStrings(keys, want) {
		t.Errorf("Keys: got %v, want %v", keys, want)
	}
}

func TestVoicePhrases_Match(t *testing.T) {
	v := DefaultVoicePhrases()
	tests := []struct {
		text string
		want Command
	}{
		{"next", CmdNext},
		{"Next!", CmdNext},
		{"please read summary now", CmdSummary},
		{"go back", CmdPrevious},
		{"上一个", CmdPrevious},
		{"播放摘要。", CmdSummary},
		{"自动播报", CmdAuto},
		{"close chart please", CmdExit},
		{"hello", CmdNone},
		{"", CmdNone},
	}
	for _, tc := range tests {
		if got := v.Match(tc.text); got != tc.want {
			t.Errorf("Match(%q): got %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestVoicePhrases_LongestWins(t *testing.T) {
	v := VoicePhrases{"read": CmdRepeat, "read all": CmdAuto}
	if got := v.Match("read all of it"); got != CmdAuto {
		t.Errorf("Match: got %q, want auto", got)
	}
}

func TestParseVoicePhrases(t *testing.T) {
	v, err := ParseVoicePhrases("weiter=next, Stop Reading = summary, back=none", DefaultVoicePhrases())
	if err != nil {
		t.Fatalf("ParseVoicePhrases: %v", err)
	}
	if got := v.Match("weiter bitte"); got != CmdNext {
		t.Errorf("custom phrase: got %q, want next", got)
	}
	if got := v.Match("stop reading"); got != CmdSummary {
		t.Errorf("normalized phrase: got %q, want summary", got)
	}
	if got := v.Match("back"); got != CmdNone {
		t.Errorf("removed phrase: got %q, want none", got)
	}
	if _, err := ParseVoicePhrases("hello", nil); err == nil {
		t.Error("expected an error for a pair without '='")
	}
}
