package tui

import "testing"

func TestKeyName(t *testing.T) {
	tests := []struct {
		ev   KeyEvent
		want string
	}{
		{KeyEvent{ControlKey: ControlKeyNone, Runes: []rune{'a'}}, "a"},
		{KeyEvent{ControlKey: ControlKeyNone, Runes: []rune{'A'}}, "A"},
		{KeyEvent{ControlKey: ControlKeyNone, Runes: []rune{' '}}, "space"},
		{KeyEvent{ControlKey: ControlKeyNone, Runes: []rune{'x'}, Alt: true}, "alt+x"},
		{KeyEvent{ControlKey: ControlKeyNone, Runes: []rune("ab"), Paste: true}, ""},
		{KeyEvent{ControlKey: ControlKeyCtrlA}, "ctrl+a"},
		{KeyEvent{ControlKey: ControlKeyCtrlS}, "ctrl+s"},
		{KeyEvent{ControlKey: ControlKeyTab}, "tab"},
		{KeyEvent{ControlKey: ControlKeyEnter}, "enter"},
		{KeyEvent{ControlKey: ControlKeyEsc}, "esc"},
		{KeyEvent{ControlKey: ControlKeyBackspace}, "backspace"},
		{KeyEvent{ControlKey: ControlKeyBackspace, Alt: true}, "alt+backspace"},
		{KeyEvent{ControlKey: ControlKeyCtrlEnd}, "ctrl+end"},
		{KeyEvent{ControlKey: ControlKeyCtrlShiftLeft, Alt: true}, "alt+ctrl+shift+left"},
		{KeyEvent{ControlKey: ControlKeyPgDown}, "pgdown"},
		{KeyEvent{ControlKey: ControlKeyF12}, "f12"},
	}
	for _, tt := range tests {
		if got := KeyName(tt.ev); got != tt.want {
			t.Errorf("KeyName(%+v) = %q, want %q", tt.ev, got, tt.want)
		}
	}
}

func TestParseKeyName(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"ctrl+s", "ctrl+s", true},
		{"Ctrl+S", "ctrl+s", true},
		{"control+a", "ctrl+a", true},
		{"Escape", "esc", true},
		{"ctrl+[", "esc", true},
		{"ctrl+i", "tab", true},
		{"Return", "enter", true},
		{"PageDown", "pgdown", true},
		{"F1", "f1", true},
		{"shift+ctrl+up", "ctrl+shift+up", true},
		{"alt+shift+ctrl+left", "alt+ctrl+shift+left", true},
		{"meta+x", "alt+x", true},
		{"shift+a", "A", true},
		{"shift+tab", "shift+tab", true},
		{"q", "q", true},
		{"+", "+", true},
		{"alt++", "alt++", true},
		{"space", "space", true},
		{"", "", false},
		{"hyper+a", "", false},
		{"ctrl+tab", "", false},
		{"f99", "", false},
		{"notakey", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseKeyName(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseKeyName(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseKeyNameRoundTripsKeyName(t *testing.T) {
	for k := controlKeySequenceStart; k < controlKeySequenceEnd; k++ {
		for _, alt := range []bool{false, true} {
			name := KeyName(KeyEvent{ControlKey: k, Alt: alt})
			got, ok := ParseKeyName(name)
			if !ok || got != name {
				t.Errorf("ParseKeyName(%q) = (%q, %v)", name, got, ok)
			}
		}
	}
}
