package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		old  string
		new  string
		want Summary
	}{
		{name: "identical", old: "a\nb\n", new: "a\nb\n", want: Summary{}},
		{name: "new file", old: "", new: "a\nb", want: Summary{Inserted: 2}},
		{name: "emptied", old: "a\nb\n", new: "", want: Summary{Deleted: 2}},
		{name: "append line", old: "a\n", new: "a\nb\n", want: Summary{Inserted: 1}},
		{name: "modify middle", old: "a\nb\nc\n", new: "a\nB\nc\n", want: Summary{Inserted: 1, Deleted: 1}},
		{name: "remove first", old: "a\nb\nc\n", new: "b\nc\n", want: Summary{Deleted: 1}},
		{name: "trailing newline lost", old: "a\nb\n", new: "a\nb", want: Summary{Inserted: 1, Deleted: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.old, tt.new)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want != Summary{}, got.Changed())
		})
	}
}

func TestSummaryString(t *testing.T) {
	assert.Equal(t, "+3 -1", Summary{Inserted: 3, Deleted: 1}.String())
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 1, CountLines(""))
	assert.Equal(t, 2, CountLines("ab\ncd"))
	assert.Equal(t, 3, CountLines("ab\ncd\n"))
}
