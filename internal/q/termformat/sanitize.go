package termformat

import (
	"strings"
	"unicode/utf8"
)

// SanitizeDocument prepares file contents for editing in a terminal.
//   - If tabWidth > 0, \t is replaced with tabWidth spaces. Otherwise, \t is dropped.
//   - \r is dropped, so CRLF files load as LF.
//   - \n is kept.
//   - All other ASCII control characters (<= 0x1F and 0x7F) are dropped.
//   - Invalid UTF-8 is replaced by U+FFFD.
func SanitizeDocument(s string, tabWidth int) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteRune('�')
			i++
			continue
		}
		i += size

		switch {
		case r == '\t':
			for j := 0; j < tabWidth; j++ {
				b.WriteByte(' ')
			}
		case r == '\n':
			b.WriteByte('\n')
		case isASCIIControl(r):
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// SanitizeLine flattens s onto a single display line: newlines and tabs become spaces and other ASCII control characters are dropped.
func SanitizeLine(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return ' '
		case isASCIIControl(r):
			return -1
		}
		return r
	}, s)
}

func isASCIIControl(r rune) bool {
	return r <= 0x7F && (r < 0x20 || r == 0x7F)
}
