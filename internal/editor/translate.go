package editor

import "github.com/codalotl/drafter/internal/q/uni"

// Translate returns the physical (row, col) of the cursor within the window. After Window.Follow, 0 <= row < w.Rows and 0 <= col < w.Cols.
func Translate(b *Buffer, c *Cursor, w *Window) (row, col int) {
	width := uni.LineWidth(b.Runes(c.Row)[:c.Col])
	return lineTop(b, c, w) + width/w.Cols, width % w.Cols
}

// lineTop is the physical row of the first row of the cursor's line.
func lineTop(b *Buffer, c *Cursor, w *Window) int {
	return c.Row - w.Row + w.RowOffset + c.RowOffset
}
