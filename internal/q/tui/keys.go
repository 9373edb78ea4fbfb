package tui

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// ControlKey represents a control key pressed by the user. Values - other than ControlKeyNone - correspond either to ASCII control bytes (0x00-0x1f, 0x7f) or to
// higher-valued identifiers for CSI-based key sequences.
type ControlKey int

const (
	ControlKeyNone ControlKey = -1 // ControlKeyNone indicates no control key was pressed.
)

const (
	ControlKeyCtrlAt           ControlKey = 0x00 // ctrl+@
	ControlKeyCtrlA            ControlKey = 0x01
	ControlKeyCtrlB            ControlKey = 0x02
	ControlKeyCtrlC            ControlKey = 0x03
	ControlKeyCtrlD            ControlKey = 0x04
	ControlKeyCtrlE            ControlKey = 0x05
	ControlKeyCtrlF            ControlKey = 0x06
	ControlKeyCtrlG            ControlKey = 0x07
	ControlKeyCtrlH            ControlKey = 0x08
	ControlKeyCtrlI            ControlKey = 0x09
	ControlKeyCtrlJ            ControlKey = 0x0a
	ControlKeyCtrlK            ControlKey = 0x0b
	ControlKeyCtrlL            ControlKey = 0x0c
	ControlKeyCtrlM            ControlKey = 0x0d
	ControlKeyCtrlN            ControlKey = 0x0e
	ControlKeyCtrlO            ControlKey = 0x0f
	ControlKeyCtrlP            ControlKey = 0x10
	ControlKeyCtrlQ            ControlKey = 0x11
	ControlKeyCtrlR            ControlKey = 0x12
	ControlKeyCtrlS            ControlKey = 0x13
	ControlKeyCtrlT            ControlKey = 0x14
	ControlKeyCtrlU            ControlKey = 0x15
	ControlKeyCtrlV            ControlKey = 0x16
	ControlKeyCtrlW            ControlKey = 0x17
	ControlKeyCtrlX            ControlKey = 0x18
	ControlKeyCtrlY            ControlKey = 0x19
	ControlKeyCtrlZ            ControlKey = 0x1a
	ControlKeyCtrlOpenBracket  ControlKey = 0x1b
	ControlKeyCtrlBackslash    ControlKey = 0x1c
	ControlKeyCtrlCloseBracket ControlKey = 0x1d
	ControlKeyCtrlCaret        ControlKey = 0x1e
	ControlKeyCtrlUnderscore   ControlKey = 0x1f
	ControlKeyCtrlQuestionMark ControlKey = 0x7f
)

const (
	ControlKeyBreak     = ControlKeyCtrlC
	ControlKeyEnter     = ControlKeyCtrlM
	ControlKeyBackspace = ControlKeyCtrlQuestionMark
	ControlKeyTab       = ControlKeyCtrlI
	ControlKeyEsc       = ControlKeyCtrlOpenBracket
)

const (
	controlKeySequenceStart ControlKey = 0x100
)

const (
	ControlKeyUp ControlKey = controlKeySequenceStart + iota
	ControlKeyDown
	ControlKeyRight
	ControlKeyLeft
	ControlKeyShiftUp
	ControlKeyShiftDown
	ControlKeyShiftRight
	ControlKeyShiftLeft
	ControlKeyCtrlUp
	ControlKeyCtrlDown
	ControlKeyCtrlRight
	ControlKeyCtrlLeft
	ControlKeyCtrlShiftUp
	ControlKeyCtrlShiftDown
	ControlKeyCtrlShiftRight
	ControlKeyCtrlShiftLeft
	ControlKeyHome
	ControlKeyEnd
	ControlKeyShiftHome
	ControlKeyShiftEnd
	ControlKeyCtrlHome
	ControlKeyCtrlEnd
	ControlKeyCtrlShiftHome
	ControlKeyCtrlShiftEnd
	ControlKeyPgUp
	ControlKeyPgDown
	ControlKeyCtrlPgUp
	ControlKeyCtrlPgDown
	ControlKeyInsert
	ControlKeyDelete
	ControlKeyShiftTab
	ControlKeyF1
	ControlKeyF2
	ControlKeyF3
	ControlKeyF4
	ControlKeyF5
	ControlKeyF6
	ControlKeyF7
	ControlKeyF8
	ControlKeyF9
	ControlKeyF10
	ControlKeyF11
	ControlKeyF12
	controlKeySequenceEnd
)

// KeyEvent is sent when the user presses keys or pastes text.
type KeyEvent struct {
	ControlKey ControlKey
	Runes      []rune
	Alt        bool
	Paste      bool
}

// IsRunes reports whether the key event consists of non-control runes.
func (k KeyEvent) IsRunes() bool {
	return k.ControlKey == ControlKeyNone && len(k.Runes) > 0
}

func (k KeyEvent) Rune() rune {
	if len(k.Runes) > 0 {
		return k.Runes[0]
	}
	return 0
}

// sequenceKeyNames names the CSI-based keys, indexed from controlKeySequenceStart.
var sequenceKeyNames = [...]string{
	"up", "down", "right", "left",
	"shift+up", "shift+down", "shift+right", "shift+left",
	"ctrl+up", "ctrl+down", "ctrl+right", "ctrl+left",
	"ctrl+shift+up", "ctrl+shift+down", "ctrl+shift+right", "ctrl+shift+left",
	"home", "end", "shift+home", "shift+end",
	"ctrl+home", "ctrl+end", "ctrl+shift+home", "ctrl+shift+end",
	"pgup", "pgdown", "ctrl+pgup", "ctrl+pgdown",
	"insert", "delete", "shift+tab",
	"f1", "f2", "f3", "f4", "f5", "f6", "f7", "f8", "f9", "f10", "f11", "f12",
}

// String returns the canonical name of k (ex: "ctrl+a", "enter", "pgdown"). ControlKeyNone and unknown values return "".
func (k ControlKey) String() string {
	switch {
	case k == ControlKeyTab:
		return "tab"
	case k == ControlKeyEnter:
		return "enter"
	case k == ControlKeyEsc:
		return "esc"
	case k == ControlKeyBackspace:
		return "backspace"
	case k == ControlKeyCtrlAt:
		return "ctrl+@"
	case k >= ControlKeyCtrlA && k <= ControlKeyCtrlZ:
		return "ctrl+" + string(rune('a'+int(k)-1))
	case k == ControlKeyCtrlBackslash:
		return "ctrl+\\"
	case k == ControlKeyCtrlCloseBracket:
		return "ctrl+]"
	case k == ControlKeyCtrlCaret:
		return "ctrl+^"
	case k == ControlKeyCtrlUnderscore:
		return "ctrl+_"
	case k >= controlKeySequenceStart && k < controlKeySequenceEnd:
		return sequenceKeyNames[k-controlKeySequenceStart]
	}
	return ""
}

// KeyName returns the canonical binding name of ev: modifiers in the order alt, ctrl, shift, followed by the key (ex: "ctrl+s", "alt+x", "f1", "space",
// "alt+ctrl+left"). Pastes and multi-rune events have no name and return "".
func KeyName(ev KeyEvent) string {
	if ev.Paste {
		return ""
	}
	var base string
	if ev.ControlKey == ControlKeyNone {
		if len(ev.Runes) != 1 {
			return ""
		}
		base = runeKeyName(ev.Runes[0])
	} else {
		base = ev.ControlKey.String()
	}
	if base == "" {
		return ""
	}
	if ev.Alt {
		return "alt+" + base
	}
	return base
}

func runeKeyName(r rune) string {
	if r == ' ' {
		return "space"
	}
	if r < 0x20 || r == 0x7f {
		return ""
	}
	return string(r)
}

var keyNameAliases = map[string]string{
	"escape":     "esc",
	"return":     "enter",
	"ret":        "enter",
	"bs":         "backspace",
	"del":        "delete",
	"ins":        "insert",
	"pageup":     "pgup",
	"pagedown":   "pgdown",
	"control":    "ctrl",
	"meta":       "alt",
	"option":     "alt",
	"opt":        "alt",
	"ctrl+i":     "tab",
	"ctrl+m":     "enter",
	"ctrl+[":     "esc",
	"ctrl+?":     "backspace",
	"ctrl+space": "ctrl+@",
}

var knownKeyNames map[string]struct{}

func init() {
	knownKeyNames = make(map[string]struct{})
	for k := ControlKeyCtrlAt; k <= ControlKeyCtrlQuestionMark; k++ {
		if name := k.String(); name != "" {
			knownKeyNames[name] = struct{}{}
		}
	}
	for _, name := range sequenceKeyNames {
		knownKeyNames[name] = struct{}{}
	}
	knownKeyNames["space"] = struct{}{}
}

// ParseKeyName canonicalizes a user-written key name such as "Ctrl+S", "escape", "alt+shift+up" or "PageDown" into the form returned by KeyName. Modifier
// order in s does not matter. ok is false when s doesn't name a key this package can report.
func ParseKeyName(s string) (name string, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	parts := strings.Split(s, "+")
	// "ctrl++" and "+" name the plus key itself.
	if strings.HasSuffix(s, "++") || s == "+" {
		parts = append(parts[:len(parts)-2], "+")
	}

	var alt, ctrl, shift bool
	key := parts[len(parts)-1]
	for _, p := range parts[:len(parts)-1] {
		mod := strings.ToLower(strings.TrimSpace(p))
		if a, isAlias := keyNameAliases[mod]; isAlias {
			mod = a
		}
		switch mod {
		case "alt":
			alt = true
		case "ctrl":
			ctrl = true
		case "shift":
			shift = true
		default:
			return "", false
		}
	}

	if utf8.RuneCountInString(key) != 1 {
		key = strings.ToLower(strings.TrimSpace(key))
	}
	if a, isAlias := keyNameAliases[key]; isAlias {
		key = a
	}
	if len(key) >= 2 && key[0] == 'f' {
		if n, err := strconv.Atoi(key[1:]); err == nil {
			key = "f" + strconv.Itoa(n)
		}
	}

	base := key
	if ctrl && shift {
		base = "ctrl+shift+" + key
	} else if ctrl {
		base = "ctrl+" + strings.ToLower(key)
	} else if shift {
		if r, size := utf8.DecodeRuneInString(key); size == len(key) && r != utf8.RuneError && key != "space" {
			base = strings.ToUpper(key)
		} else {
			base = "shift+" + key
		}
	}
	if a, isAlias := keyNameAliases[base]; isAlias {
		base = a
	}

	if _, known := knownKeyNames[base]; !known {
		r, size := utf8.DecodeRuneInString(base)
		if size != len(base) || runeKeyName(r) == "" || ctrl {
			return "", false
		}
	}
	if alt {
		return "alt+" + base, true
	}
	return base, true
}
