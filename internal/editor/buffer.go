package editor

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/codalotl/drafter/internal/diff"
	"github.com/codalotl/drafter/internal/q/health"
	"github.com/codalotl/drafter/internal/q/termformat"
	"github.com/codalotl/drafter/internal/q/uni"
)

// TabWidth is the number of spaces a tab expands to when a document is loaded.
const TabWidth = 4

var (
	// ErrOutOfRange is returned by Buffer mutations at positions with nothing to act on (ex: Delete at the end of the document).
	ErrOutOfRange = errors.New("editor: position out of range")

	// ErrSaveCanceled is returned by SaveFile for an empty path.
	ErrSaveCanceled = errors.New("editor: save canceled")
)

// Pos is a logical position: Row indexes lines, Col indexes runes within the line. Col == len(line) is the end of the line.
type Pos struct {
	Row int
	Col int
}

// wrapEntry caches WrappedRows for one line. width == 0 means empty cache.
type wrapEntry struct {
	width int
	rows  int
}

// Buffer is the document: always at least one line, none containing '\n'. Mutations take a position but never move anything; callers move their
// Cursor afterward.
type Buffer struct {
	lines     [][]rune
	wrap      []wrapEntry // parallel to lines
	wordCount int
	version   int
}

// NewBuffer returns a Buffer holding text, sanitized for the terminal (tabs expanded to TabWidth spaces, \r and other control characters dropped).
// WordCount starts at the rune count of the sanitized text.
func NewBuffer(text string) *Buffer {
	text = termformat.SanitizeDocument(text, TabWidth)
	parts := strings.Split(text, "\n")
	b := &Buffer{
		lines: make([][]rune, len(parts)),
		wrap:  make([]wrapEntry, len(parts)),
	}
	for i, p := range parts {
		b.lines[i] = []rune(p)
		b.wordCount += len(b.lines[i])
	}
	b.wordCount += len(parts) - 1
	return b
}

// Len returns the number of lines (always >= 1).
func (b *Buffer) Len() int { return len(b.lines) }

// Bottom returns the index of the last line.
func (b *Buffer) Bottom() int { return len(b.lines) - 1 }

// LineLen returns the rune length of line i.
func (b *Buffer) LineLen(i int) int { return len(b.lines[i]) }

// Line returns line i.
func (b *Buffer) Line(i int) string { return string(b.lines[i]) }

// Runes returns line i without copying. Callers must not modify it.
func (b *Buffer) Runes(i int) []rune { return b.lines[i] }

// Lines returns a copy of every line.
func (b *Buffer) Lines() []string {
	out := make([]string, len(b.lines))
	for i, l := range b.lines {
		out[i] = string(l)
	}
	return out
}

// String returns the lines joined by "\n". This is exactly what SaveFile writes.
func (b *Buffer) String() string {
	return strings.Join(b.Lines(), "\n")
}

// WordCount returns the running total of inserted minus deleted characters (a split counts as one).
func (b *Buffer) WordCount() int { return b.wordCount }

// Version increases with every successful mutation.
func (b *Buffer) Version() int { return b.version }

// AtEnd reports whether p is the end of the document.
func (b *Buffer) AtEnd(p Pos) bool {
	return p.Row == b.Bottom() && p.Col == b.LineLen(p.Row)
}

func (b *Buffer) valid(p Pos) bool {
	return p.Row >= 0 && p.Row < len(b.lines) && p.Col >= 0 && p.Col <= len(b.lines[p.Row])
}

func (b *Buffer) touched(row int) {
	b.wrap[row] = wrapEntry{}
	b.version++
}

// Insert splices s into the line at p. s must not contain '\n'; use Split for line breaks.
func (b *Buffer) Insert(p Pos, s string) error {
	if !b.valid(p) {
		return ErrOutOfRange
	}
	if strings.ContainsRune(s, '\n') {
		return health.NewErr("editor: Insert with newline", "row", p.Row, "col", p.Col)
	}
	if s == "" {
		return nil
	}
	r := []rune(s)
	line := b.lines[p.Row]
	next := make([]rune, 0, len(line)+len(r))
	next = append(next, line[:p.Col]...)
	next = append(next, r...)
	next = append(next, line[p.Col:]...)
	b.lines[p.Row] = next
	b.wordCount += len(r)
	b.touched(p.Row)
	return nil
}

// Split breaks the line at p, moving the text at and after p.Col to a new line at p.Row+1.
func (b *Buffer) Split(p Pos) error {
	if !b.valid(p) {
		return ErrOutOfRange
	}
	line := b.lines[p.Row]
	head := append([]rune(nil), line[:p.Col]...)
	tail := append([]rune(nil), line[p.Col:]...)

	b.lines = append(b.lines, nil)
	copy(b.lines[p.Row+2:], b.lines[p.Row+1:])
	b.lines[p.Row] = head
	b.lines[p.Row+1] = tail

	b.wrap = append(b.wrap, wrapEntry{})
	copy(b.wrap[p.Row+2:], b.wrap[p.Row+1:])
	b.wrap[p.Row+1] = wrapEntry{}

	b.wordCount++
	b.touched(p.Row)
	return nil
}

// Delete removes the rune at p, or, at the end of a line, joins the next line onto it. At the end of the document it returns ErrOutOfRange and changes
// nothing.
func (b *Buffer) Delete(p Pos) error {
	if !b.valid(p) {
		return ErrOutOfRange
	}
	line := b.lines[p.Row]
	switch {
	case p.Col < len(line):
		b.lines[p.Row] = append(line[:p.Col:p.Col], line[p.Col+1:]...)
	case p.Row < b.Bottom():
		b.lines[p.Row] = append(line[:len(line):len(line)], b.lines[p.Row+1]...)
		b.lines = append(b.lines[:p.Row+1], b.lines[p.Row+2:]...)
		b.wrap = append(b.wrap[:p.Row+1], b.wrap[p.Row+2:]...)
	default:
		return ErrOutOfRange
	}
	b.wordCount--
	b.touched(p.Row)
	return nil
}

// Prefix returns all text strictly before p, lines joined by "\n".
func (b *Buffer) Prefix(p Pos) string {
	var sb strings.Builder
	for i := 0; i < p.Row; i++ {
		sb.WriteString(string(b.lines[i]))
		sb.WriteByte('\n')
	}
	sb.WriteString(string(b.lines[p.Row][:p.Col]))
	return sb.String()
}

// Suffix returns all text at and after p, lines joined by "\n".
func (b *Buffer) Suffix(p Pos) string {
	var sb strings.Builder
	sb.WriteString(string(b.lines[p.Row][p.Col:]))
	for i := p.Row + 1; i < len(b.lines); i++ {
		sb.WriteByte('\n')
		sb.WriteString(string(b.lines[i]))
	}
	return sb.String()
}

// WrappedRows returns how many physical rows line i occupies beyond its first when soft-wrapped at width cells, reading or filling the line's cache.
func (b *Buffer) WrappedRows(i, width int) int {
	if width < 1 {
		width = 1
	}
	if e := b.wrap[i]; e.width == width {
		return e.rows
	}
	rows := wrappedRows(b.lines[i], width)
	b.wrap[i] = wrapEntry{width: width, rows: rows}
	return rows
}

// wrappedRows accumulates character widths and counts a row each time the accumulator reaches width, carrying any overflow (a wide character that
// straddles the edge) into the next row. The result is always LineWidth(line) / width, the physical row of a position just past the line's last cell.
func wrappedRows(line []rune, width int) int {
	if width < 1 {
		width = 1
	}
	rows, acc := 0, 0
	for _, r := range line {
		acc += uni.CharWidth(r)
		for acc >= width {
			rows++
			acc -= width
		}
	}
	return rows
}

// ReadDocument reads path for editing. A missing file is a new, empty document: exists is false and err is nil.
func ReadDocument(path string) (text string, exists bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, health.Wrap("read document", err, "path", path)
	}
	return string(data), true, nil
}

// SaveFile writes b.String() to path verbatim (mode 0644 for new files) and summarizes the change against what was on disk before. An empty path
// returns ErrSaveCanceled without writing.
func SaveFile(path string, b *Buffer) (diff.Summary, error) {
	if strings.TrimSpace(path) == "" {
		return diff.Summary{}, ErrSaveCanceled
	}
	text := b.String()

	var old string
	if data, err := os.ReadFile(path); err == nil {
		old = string(data)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return diff.Summary{}, health.WrapHuman("could not save "+path, "save document", err, "path", path)
	}
	return diff.Summarize(old, text), nil
}
