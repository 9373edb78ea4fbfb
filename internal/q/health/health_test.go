package health

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAttrs(t *testing.T) {
	tests := []struct {
		name  string
		attrs []any
		want  string
	}{
		{name: "empty", attrs: []any{}, want: ""},
		{name: "pairs", attrs: []any{"path", "a.txt", "lines", 2}, want: `path=a.txt lines=2`},
		{name: "slog.Attr", attrs: []any{slog.String("model", "m"), slog.Int("tokens", 15)}, want: `model=m tokens=15`},
		{name: "quoted", attrs: []any{"note", "two words"}, want: `note="two words"`},
		{name: "reserved keys dropped", attrs: []any{"msg", "x", "level", 1, "path", "a"}, want: `path=a`},
		{name: "malformed", attrs: []any{"key_no_value"}, want: `!BADKEY=key_no_value`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b strings.Builder
			writeAttrs(&b, tt.attrs)
			assert.Equal(t, tt.want, b.String())
		})
	}
}

func TestHealthErrError(t *testing.T) {
	assert.Equal(t, "save failed", NewErr("save failed").Error())
	assert.Equal(t, `save failed[path=/tmp/a]`, NewErr("save failed", "path", "/tmp/a").Error())
	assert.Equal(t, `save failed[path=a] via disk full`, Wrap("save failed", errors.New("disk full"), "path", "a").Error())
	assert.Equal(t,
		`complete[model=m] via request[status=429] via rate limited`,
		Wrap("complete", Wrap("request", errors.New("rate limited"), "status", 429), "model", "m").Error(),
	)
	assert.Contains(t, Wrap("x", nil).Error(), "nil wrapped error")
}

func TestHealthErrAttrs(t *testing.T) {
	var h *HealthErr
	require.True(t, errors.As(NewErr("m", "k", 1), &h))
	assert.Equal(t, []any{"k", 1}, h.Attrs())
}

func logLine(buf *strings.Builder) string {
	out := strings.TrimSpace(buf.String())
	if parts := strings.SplitN(out, " ", 2); len(parts) == 2 && strings.HasPrefix(parts[0], "time=") {
		return parts[1]
	}
	return out
}

func TestLogErr(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	baseErr := errors.New("i am a base error")
	healthBaseErr := NewErr("i am a health error", "k", "v")

	tests := []struct {
		name    string
		logger  *slog.Logger
		err     error
		args    []any
		wantOut string
	}{
		{name: "nil logger", logger: nil, err: baseErr, wantOut: ""},
		{name: "nil error", logger: logger, err: nil, wantOut: ""},
		{name: "plain error", logger: logger, err: baseErr, args: []any{"extra", "stuff"}, wantOut: `level=ERROR msg="i am a base error" extra=stuff`},
		{name: "health error", logger: logger, err: healthBaseErr, wantOut: `level=ERROR msg="i am a health error" k=v`},
		{
			name:    "wrapped with args",
			logger:  logger,
			err:     Wrap("wrapper", healthBaseErr, "wk", "wv"),
			args:    []any{"extra", "stuff"},
			wantOut: `level=ERROR msg=wrapper wk=wv via="i am a health error[k=v]" extra=stuff`,
		},
		{
			name:    "human error logs health side",
			logger:  logger,
			err:     NewHumanErr("Could not save.", "save failed", "path", "a.txt"),
			wantOut: `level=ERROR msg="save failed" path=a.txt`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			got := LogErr(tt.logger, tt.err, tt.args...)
			assert.Equal(t, tt.err, got)
			assert.Equal(t, tt.wantOut, logLine(&buf))
		})
	}
}

type myTestErr struct {
	msg string
	err error
}

func (e *myTestErr) Error() string { return e.msg }

func (e *myTestErr) Unwrap() error { return e.err }

func TestHealthErrWrapping(t *testing.T) {
	errSentinel := errors.New("sentinel")

	assert.ErrorIs(t, Wrap("layer 2", Wrap("layer 1", errSentinel)), errSentinel)
	assert.ErrorIs(t, Wrap("layer 2", &myTestErr{msg: "layer 1", err: errSentinel}), errSentinel)

	myErr := &myTestErr{msg: "my custom error"}
	var target *myTestErr
	require.ErrorAs(t, Wrap("health error", myErr), &target)
	assert.Same(t, myErr, target)
}

func TestCtx(t *testing.T) {
	var buf strings.Builder
	c := NewCtx(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))).With("component", "editor")

	c.Log("saved", "path", "a.txt")
	assert.Equal(t, `level=INFO msg=saved component=editor path=a.txt`, logLine(&buf))

	buf.Reset()
	err := c.LogNewErr("boom", "n", 1)
	assert.EqualError(t, err, "boom[n=1]")
	assert.Equal(t, `level=ERROR msg=boom component=editor n=1`, logLine(&buf))

	var zero Ctx
	assert.NotPanics(t, func() {
		zero.Log("ignored")
		zero.Debug("ignored")
		_ = zero.With("k", "v").LogErr(errors.New("ignored"))
	})
}
