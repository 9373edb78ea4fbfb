package editor

// Cursor is a logical position plus RowOffset, the number of extra physical rows that soft-wrapping adds above the cursor's line:
// RowOffset == sum of b.WrappedRows(i, cols) for i < Row. Moves keep it true incrementally, adding or subtracting the height of the one line crossed.
type Cursor struct {
	Pos
	RowOffset int

	hint int // column vertical moves try to return to
}

// Left moves one character left, or to the end of the previous line.
func (c *Cursor) Left(b *Buffer, cols int) bool {
	switch {
	case c.Col > 0:
		c.Col--
	case c.Row > 0:
		c.Row--
		c.Col = b.LineLen(c.Row)
		c.RowOffset -= b.WrappedRows(c.Row, cols)
	default:
		return false
	}
	c.hint = c.Col
	return true
}

// Right moves one character right, or to the start of the next line.
func (c *Cursor) Right(b *Buffer, cols int) bool {
	switch {
	case c.Col < b.LineLen(c.Row):
		c.Col++
	case c.Row < b.Bottom():
		c.RowOffset += b.WrappedRows(c.Row, cols)
		c.Row++
		c.Col = 0
	default:
		return false
	}
	c.hint = c.Col
	return true
}

// Up moves to the previous line, as close to the remembered column as it allows.
func (c *Cursor) Up(b *Buffer, cols int) bool {
	if c.Row == 0 {
		return false
	}
	c.Row--
	c.RowOffset -= b.WrappedRows(c.Row, cols)
	c.Col = min(c.hint, b.LineLen(c.Row))
	return true
}

// Down moves to the next line, as close to the remembered column as it allows.
func (c *Cursor) Down(b *Buffer, cols int) bool {
	if c.Row == b.Bottom() {
		return false
	}
	c.RowOffset += b.WrappedRows(c.Row, cols)
	c.Row++
	c.Col = min(c.hint, b.LineLen(c.Row))
	return true
}

// Home moves to the start of the line.
func (c *Cursor) Home() {
	c.Col = 0
	c.hint = 0
}

// End moves to the end of the line.
func (c *Cursor) End(b *Buffer) {
	c.Col = b.LineLen(c.Row)
	c.hint = c.Col
}

// Resync recomputes RowOffset from scratch. Only needed when cols changes, which changes every line's height at once.
func (c *Cursor) Resync(b *Buffer, cols int) {
	c.RowOffset = rowsAbove(b, c.Row, cols)
}

// rowsAbove sums the wrapped rows of lines before row.
func rowsAbove(b *Buffer, row, cols int) int {
	n := 0
	for i := 0; i < row; i++ {
		n += b.WrappedRows(i, cols)
	}
	return n
}
