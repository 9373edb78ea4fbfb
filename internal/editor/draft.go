package editor

// Draft tracks how much of the text just before the cursor is an unconfirmed completion. It is Idle when Len == 0 and Pending otherwise.
//
// Each key is bracketed by BeginKey and EndKey. Any key that doesn't Accept, Retract or Shrink the draft confirms it: EndKey drops Len to 0 and the text
// stays in the buffer as if typed.
type Draft struct {
	Len int

	keep bool
}

// BeginKey starts a key dispatch.
func (d *Draft) BeginKey() {
	d.keep = false
}

// Accept marks the last n characters before the cursor as the pending draft.
func (d *Draft) Accept(n int) {
	d.Len = max(n, 0)
	d.keep = true
}

// Retract removes up to max characters of the draft (all of it when max <= 0), calling step once per character. step removes the character before the
// cursor and reports whether it did. Retract returns the number removed.
func (d *Draft) Retract(step func() bool, max int) int {
	n := 0
	for d.Len > 0 && (max <= 0 || n < max) {
		if !step() {
			break
		}
		d.Len--
		n++
	}
	d.keep = true
	return n
}

// Shrink records that an ordinary delete removed one character of the draft.
func (d *Draft) Shrink() {
	if d.Len > 0 {
		d.Len--
		d.keep = true
	}
}

// EndKey finishes a key dispatch, confirming the draft if nothing kept it.
func (d *Draft) EndKey() {
	if !d.keep {
		d.Len = 0
	}
}

// Pending reports whether there is an unconfirmed draft.
func (d Draft) Pending() bool {
	return d.Len > 0
}
