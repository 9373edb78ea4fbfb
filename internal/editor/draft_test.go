package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDraftConfirmsUnlessKept(t *testing.T) {
	var d Draft
	d.BeginKey()
	d.Accept(5)
	d.EndKey()
	assert.True(t, d.Pending())
	assert.Equal(t, 5, d.Len)

	d.BeginKey()
	d.EndKey()
	assert.False(t, d.Pending())
	assert.Equal(t, 0, d.Len)
}

func TestDraftRetract(t *testing.T) {
	var d Draft
	d.Accept(7)

	steps := 0
	step := func() bool { steps++; return true }

	d.BeginKey()
	assert.Equal(t, 3, d.Retract(step, 3))
	d.EndKey()
	assert.Equal(t, 4, d.Len)

	d.BeginKey()
	assert.Equal(t, 4, d.Retract(step, 0))
	d.EndKey()
	assert.Equal(t, 0, d.Len)
	assert.Equal(t, 7, steps)

	d.BeginKey()
	assert.Equal(t, 0, d.Retract(step, 3))
	d.EndKey()
	assert.Equal(t, 7, steps)
}

func TestDraftRetractStopsWithoutProgress(t *testing.T) {
	var d Draft
	d.Accept(4)
	left := 2
	n := d.Retract(func() bool {
		if left == 0 {
			return false
		}
		left--
		return true
	}, 0)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, d.Len)
}

func TestDraftShrink(t *testing.T) {
	var d Draft
	d.Accept(2)
	for i := 0; i < 3; i++ {
		d.BeginKey()
		d.Shrink()
		d.EndKey()
	}
	assert.Equal(t, 0, d.Len)

	// Shrinking an idle draft doesn't keep anything.
	d.BeginKey()
	d.Shrink()
	assert.False(t, d.keep)
}
