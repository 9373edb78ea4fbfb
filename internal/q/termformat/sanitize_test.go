package termformat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeDocument(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		tabWidth int
		want     string
	}{
		{
			name:     "plain text unchanged",
			input:    "hello, 世界",
			tabWidth: 4,
			want:     "hello, 世界",
		},
		{
			name:     "tab expanded when width positive",
			input:    "a\tb",
			tabWidth: 4,
			want:     "a    b",
		},
		{
			name:     "tab dropped when width nonpositive",
			input:    "a\tb",
			tabWidth: 0,
			want:     "ab",
		},
		{
			name:     "control characters dropped",
			input:    "\x1bX\x00Y\x7f",
			tabWidth: 4,
			want:     "XY",
		},
		{
			name:     "crlf becomes lf",
			input:    "line1\r\nline2\r\n",
			tabWidth: 4,
			want:     "line1\nline2\n",
		},
		{
			name:     "invalid utf8 replaced",
			input:    string([]byte{0xff, 'a', 0xc1}),
			tabWidth: 4,
			want:     "�a�",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, SanitizeDocument(tt.input, tt.tabWidth))
		})
	}
}

func TestSanitizeLine(t *testing.T) {
	require.Equal(t, "a b c", SanitizeLine("a\nb\tc"))
	require.Equal(t, "ok", SanitizeLine("o\x1bk\x00"))
}
