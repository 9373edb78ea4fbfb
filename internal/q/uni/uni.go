package uni

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/graphemes"
	"github.com/mattn/go-runewidth"
)

// Options control width calculation in TextWidth, RuneWidth and Truncate.
//
// Currently only relevant for East Asian code points and their locale.
type Options struct {
	EastAsianWidth   bool // if true, treats certain East Asian code points as 2 wide (e.g., Chinese, Japanese, Korean). Use if the locale is one of CJK.
	TreatEmojiAsWide bool // Only considered if EastAsianWidth. If true, treats emoji as wide (2 columns).
}

// defaultCond is shared by the hot per-character paths (CharWidth, LineWidth). It is never mutated after init.
var defaultCond = conditionFromOptions(nil)

// CharWidth returns the number of terminal cells r occupies: 0 for combining marks, zero-width and control characters, 2 for wide and fullwidth characters,
// and 1 otherwise. The locale is assumed to be non-East Asian.
func CharWidth(r rune) int {
	w := defaultCond.RuneWidth(r)
	switch {
	case w < 0:
		return 0
	case w > 2:
		return 2
	}
	return w
}

// LineWidth returns the sum of CharWidth over line.
func LineWidth(line []rune) int {
	w := 0
	for _, r := range line {
		w += CharWidth(r)
	}
	return w
}

// TextWidth returns the text width of str for monospace fonts in terminals. If opts is nil, locale is assumed to be non-East Asian.
func TextWidth[T string | []byte](str T, opts *Options) int {
	cond := defaultCond
	if opts != nil {
		cond = conditionFromOptions(opts)
	}
	switch v := any(str).(type) {
	case string:
		return cond.StringWidth(v)
	case []byte:
		return cond.StringWidth(string(v))
	default:
		panic("unsupported type")
	}
}

// RuneWidth returns the width of r for monospace fonts in terminals. If opts is nil, locale is assumed to be non-East Asian.
func RuneWidth(r rune, opts *Options) int {
	if opts == nil {
		return defaultCond.RuneWidth(r)
	}
	return conditionFromOptions(opts).RuneWidth(r)
}

// Truncate returns the longest prefix of s that fits in width cells without splitting a grapheme cluster. If s is cut, the last cell is replaced with
// an ellipsis. Returns "" when width <= 0.
func Truncate(s string, width int, opts *Options) string {
	if width <= 0 {
		return ""
	}
	if TextWidth(s, opts) <= width {
		return s
	}

	cond := defaultCond
	if opts != nil {
		cond = conditionFromOptions(opts)
	}

	var b strings.Builder
	used := 0
	iter := graphemes.FromString(s)
	for iter.Next() {
		g := iter.Value()
		w := cond.StringWidth(g)
		if used+w > width-1 {
			break
		}
		b.WriteString(g)
		used += w
	}
	b.WriteString("…")
	return b.String()
}

func conditionFromOptions(opts *Options) *runewidth.Condition {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = false
	cond.StrictEmojiNeutral = true

	if opts == nil {
		return cond
	}

	cond.EastAsianWidth = opts.EastAsianWidth
	if opts.EastAsianWidth && opts.TreatEmojiAsWide {
		cond.StrictEmojiNeutral = false
	}

	return cond
}
