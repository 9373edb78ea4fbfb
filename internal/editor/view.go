package editor

import (
	"fmt"
	"strings"

	"github.com/codalotl/drafter/internal/q/termformat"
	"github.com/codalotl/drafter/internal/q/uni"
	"github.com/muesli/reflow/wordwrap"
)

func (e *Editor) View() string {
	if e.help {
		return e.helpView()
	}
	rows := e.textRows()
	rows = append(rows, e.statusLine())
	return strings.Join(rows, "\n")
}

// CursorPosition places the terminal cursor on the cursor's cell, or at the end of the prompt input while a prompt is open.
func (e *Editor) CursorPosition() (row, col int, visible bool) {
	switch {
	case e.help:
		return 0, 0, false
	case e.prompt != nil:
		w := uni.TextWidth(e.prompt.label+string(e.prompt.input), nil)
		return e.win.Rows, min(w, e.width-1), true
	}
	row, col = Translate(e.buf, &e.cur, &e.win)
	return row, col, true
}

// textRows returns the window's e.win.Rows physical rows, starting Skip rows into line Row.
func (e *Editor) textRows() []string {
	out := make([]string, 0, e.win.Rows)
	skip := e.win.Skip
	for i := e.win.Row; i < e.buf.Len() && len(out) < e.win.Rows; i++ {
		for _, r := range wrapLine(e.buf.Runes(i), e.win.Cols) {
			if skip > 0 {
				skip--
				continue
			}
			if len(out) == e.win.Rows {
				break
			}
			out = append(out, r)
		}
	}
	for len(out) < e.win.Rows {
		out = append(out, "")
	}
	return out
}

// wrapLine splits line into the physical rows it occupies at cols columns. A character whose prefix width is p goes to row p/cols, column p%cols; gaps
// left by a wide character that straddled the edge are padded with spaces. It always returns wrappedRows(line, cols)+1 rows.
func wrapLine(line []rune, cols int) []string {
	rows := make([]strings.Builder, wrappedRows(line, cols)+1)
	used := make([]int, len(rows))
	p, last := 0, 0
	for _, r := range line {
		w := uni.CharWidth(r)
		if w == 0 {
			rows[last].WriteRune(r)
			continue
		}
		k, c := p/cols, p%cols
		if used[k] < c {
			rows[k].WriteString(strings.Repeat(" ", c-used[k]))
		}
		rows[k].WriteRune(r)
		used[k] = c + w
		last = k
		p += w
	}
	out := make([]string, len(rows))
	for i := range rows {
		out[i] = rows[i].String()
	}
	return out
}

// statusLine is the reverse-video bottom row: the filename prompt while one is open, else document state and the last message.
func (e *Editor) statusLine() string {
	var s string
	if e.prompt != nil {
		s = e.prompt.label + string(e.prompt.input)
	} else {
		name := e.path
		if name == "" {
			name = "[new]"
		} else if !e.exists {
			name += " [new]"
		}
		if e.Modified() {
			name += " *"
		}
		parts := []string{
			name,
			fmt.Sprintf("%d:%d", e.cur.Row+1, e.cur.Col+1),
			fmt.Sprintf("%d chars", e.buf.WordCount()),
		}
		if e.draft.Pending() {
			parts = append(parts, fmt.Sprintf("draft %d", e.draft.Len))
		}
		if e.status != "" {
			parts = append(parts, e.status)
		}
		s = strings.Join(parts, " | ")
	}
	s = uni.Truncate(termformat.SanitizeLine(s), e.width, nil)
	if pad := e.width - uni.TextWidth(s, nil); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return termformat.Reverse(s)
}

// helpView lists every binding with its description, descriptions word-wrapped in a column to the right of the keys.
func (e *Editor) helpView() string {
	help := e.keys.Help()
	keyCol := 0
	keys := make([]string, len(help))
	for i, h := range help {
		keys[i] = strings.Join(h.Keys, ", ")
		if h.Keys == nil {
			keys[i] = "(unbound)"
		}
		keyCol = max(keyCol, uni.TextWidth(keys[i], nil))
	}
	keyCol = min(keyCol+2, e.width/2)
	descWidth := max(e.width-keyCol, 10)

	lines := []string{termformat.Bold("drafter keys"), ""}
	for i, h := range help {
		desc := strings.Split(wordwrap.String(h.Description, descWidth), "\n")
		for j, d := range desc {
			left := ""
			if j == 0 {
				left = uni.Truncate(keys[i], keyCol-1, nil)
			}
			left += strings.Repeat(" ", max(keyCol-uni.TextWidth(left, nil), 0))
			lines = append(lines, uni.Truncate(left+d, e.width, nil))
		}
	}
	lines = append(lines, "", termformat.Faint(uni.Truncate("press any key to return", e.width, nil)))
	if len(lines) > e.height {
		lines = lines[:e.height]
	}
	return strings.Join(lines, "\n")
}
