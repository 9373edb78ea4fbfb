// Package diff summarizes line-level changes between two versions of a document.
package diff

import (
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Summary counts the lines a change added and removed. A modified line counts once on each side.
type Summary struct {
	Inserted int
	Deleted  int
}

// Changed reports whether any line was added or removed.
func (s Summary) Changed() bool {
	return s.Inserted > 0 || s.Deleted > 0
}

// String renders s as "+I -D".
func (s Summary) String() string {
	return "+" + strconv.Itoa(s.Inserted) + " -" + strconv.Itoa(s.Deleted)
}

// Summarize diffs oldText to newText line by line. Lines are compared including their trailing '\n', so a final line that gains or loses its newline
// counts as modified.
func Summarize(oldText, newText string) Summary {
	if oldText == newText {
		return Summary{}
	}

	dmp := diffmatchpatch.New()
	rOld, rNew, _ := dmp.DiffLinesToRunes(oldText, newText)
	diffs := dmp.DiffMainRunes(rOld, rNew, false)

	var s Summary
	for _, d := range diffs {
		// After DiffLinesToRunes each rune stands for one line.
		n := len([]rune(d.Text))
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			s.Inserted += n
		case diffmatchpatch.DiffDelete:
			s.Deleted += n
		}
	}
	return s
}

// CountLines returns the number of lines in text as an editor shows them: "" is one empty line, and a trailing '\n' starts one more.
func CountLines(text string) int {
	return strings.Count(text, "\n") + 1
}
