package editor

// Window is the visible text area. Row is the first logical line shown and Skip the number of that line's physical rows scrolled above the top (only
// non-zero when a single line is taller than the window). RowOffset == -(sum of wrapped rows of lines before Row) - Skip, so that
// Translate(...) = cursor.Row - Row + RowOffset + cursor.RowOffset + (width before the cursor) / Cols.
type Window struct {
	Rows, Cols int

	Row       int
	RowOffset int
	Skip      int
}

// SetSize updates the extent, clamped to at least 1x1. It reports whether Cols changed, in which case both offsets must be resynced.
func (w *Window) SetSize(rows, cols int) bool {
	rows, cols = max(rows, 1), max(cols, 1)
	changed := cols != w.Cols
	w.Rows, w.Cols = rows, cols
	return changed
}

// Follow scrolls so the cursor is on screen.
func (w *Window) Follow(b *Buffer, c *Cursor) {
	w.Up(b, c)
	w.Down(b, c)
}

// Up scrolls back while the cursor is above the window.
func (w *Window) Up(b *Buffer, c *Cursor) {
	for c.Row < w.Row {
		w.RowOffset += w.Skip
		w.Skip = 0
		w.Row--
		w.RowOffset += b.WrappedRows(w.Row, w.Cols)
	}
	if row, _ := Translate(b, c, w); row < 0 && w.Skip > 0 {
		reveal := min(-row, w.Skip)
		w.Skip -= reveal
		w.RowOffset += reveal
	}
}

// Down scrolls forward while the cursor's line doesn't fit below the top, one logical line at a time, then within the cursor's own line if it alone
// is taller than the window.
func (w *Window) Down(b *Buffer, c *Cursor) {
	for w.Row < c.Row && lineTop(b, c, w)+b.WrappedRows(c.Row, w.Cols) >= w.Rows {
		w.RowOffset += w.Skip
		w.Skip = 0
		w.RowOffset -= b.WrappedRows(w.Row, w.Cols)
		w.Row++
	}
	if row, _ := Translate(b, c, w); row >= w.Rows {
		over := row - (w.Rows - 1)
		w.Skip += over
		w.RowOffset -= over
	}
}

// Resync recomputes RowOffset from Row, dropping Skip. Only needed when Cols changes.
func (w *Window) Resync(b *Buffer) {
	w.Skip = 0
	w.RowOffset = -rowsAbove(b, w.Row, w.Cols)
}
