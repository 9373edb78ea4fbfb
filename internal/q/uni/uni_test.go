package uni

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCharWidth(t *testing.T) {
	assert.Equal(t, 1, CharWidth('a'))
	assert.Equal(t, 1, CharWidth(' '))
	assert.Equal(t, 2, CharWidth('世'))
	assert.Equal(t, 2, CharWidth('\uff48'))
	assert.Equal(t, 0, CharWidth('\u0301'))
	assert.Equal(t, 0, CharWidth('\x07'))
}

func TestLineWidth(t *testing.T) {
	assert.Equal(t, 0, LineWidth(nil))
	assert.Equal(t, 5, LineWidth([]rune("hello")))
	assert.Equal(t, 6, LineWidth([]rune("ab世界")))
	assert.Equal(t, 2, LineWidth([]rune("ée")))
}

func TestTextWidthDefault(t *testing.T) {
	val := "áb世"

	assert.Equal(t, 4, TextWidth(val, nil))
	assert.Equal(t, 4, TextWidth([]byte(val), nil))
}

func TestTextWidthOptions(t *testing.T) {
	star := "a☆"

	assert.Equal(t, 2, TextWidth(star, nil))
	assert.Equal(t, 3, TextWidth(star, &Options{EastAsianWidth: true}))
}

func TestRuneWidth(t *testing.T) {
	assert.Equal(t, 1, RuneWidth('a', nil))
	assert.Equal(t, 2, RuneWidth('世', nil))
	assert.Equal(t, 1, RuneWidth('☆', nil))
	assert.Equal(t, 2, RuneWidth('☆', &Options{EastAsianWidth: true}))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{name: "fits", in: "hello", width: 5, want: "hello"},
		{name: "cut", in: "hello world", width: 6, want: "hello…"},
		{name: "zero", in: "hello", width: 0, want: ""},
		{name: "wide not split", in: "世界世界", width: 4, want: "世…"},
		{name: "combining kept together", in: "ééé", width: 2, want: "é…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.width, nil)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, TextWidth(got, nil), tt.width)
		})
	}
}
