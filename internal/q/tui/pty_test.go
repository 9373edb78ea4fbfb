//go:build !windows

package tui_test

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codalotl/drafter/internal/q/tui"
	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// openTestTTY allocates a pseudo-terminal sized 24x80. It returns the tty side (for the TUI), the control side (to type keys), and a buffer receiving
// everything the TUI writes.
func openTestTTY(t *testing.T) (input *os.File, tty *os.File, ptmx *os.File, captured *syncedBuffer) {
	t.Helper()

	ptmx, tty, err := pty.Open()
	require.NoError(t, err)
	require.NoError(t, pty.Setsize(ptmx, &pty.Winsize{Rows: 24, Cols: 80}))

	inputFD, err := unix.Dup(int(tty.Fd()))
	require.NoError(t, err)
	input = os.NewFile(uintptr(inputFD), tty.Name()+"-input")

	captured = &syncedBuffer{}
	drainDone := make(chan struct{})
	go func() {
		_, _ = io.Copy(captured, ptmx)
		close(drainDone)
	}()

	t.Cleanup(func() {
		_ = input.Close()
		_ = tty.Close()
		_ = ptmx.Close()
		<-drainDone
	})
	return input, tty, ptmx, captured
}

type syncedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// echoModel shows typed runes and keeps the cursor after them. ctrl+q quits.
type echoModel struct {
	mu     sync.Mutex
	width  int
	height int
	typed  []rune
	names  []string
}

func (m *echoModel) Init(*tui.TUI) {}

func (m *echoModel) Update(t *tui.TUI, msg tui.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch ev := msg.(type) {
	case tui.ResizeEvent:
		m.width, m.height = ev.Width, ev.Height
	case tui.KeyEvent:
		m.names = append(m.names, tui.KeyName(ev))
		if ev.ControlKey == tui.ControlKeyCtrlQ {
			t.Quit()
			return
		}
		if ev.IsRunes() {
			m.typed = append(m.typed, ev.Runes...)
		}
	}
}

func (m *echoModel) View() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return "typed:" + string(m.typed)
}

func (m *echoModel) CursorPosition() (int, int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return 0, len("typed:") + len(m.typed), true
}

func TestRunTUIOnPTY(t *testing.T) {
	input, tty, ptmx, captured := openTestTTY(t)

	model := &echoModel{}
	done := make(chan error, 1)
	go func() {
		done <- tui.RunTUI(model, tui.Options{Input: input, Output: tty})
	}()

	time.Sleep(100 * time.Millisecond)
	_, err := ptmx.Write([]byte("hi\x1b[1;5F\x11"))
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("RunTUI did not exit")
	}

	model.mu.Lock()
	defer model.mu.Unlock()
	assert.Equal(t, 80, model.width)
	assert.Equal(t, 24, model.height)
	assert.Equal(t, "hi", string(model.typed))
	assert.Equal(t, []string{"h", "i", "ctrl+end", "ctrl+q"}, model.names)

	require.Eventually(t, func() bool {
		return strings.Contains(captured.String(), "\x1b[?1049l")
	}, time.Second, 10*time.Millisecond)
	out := captured.String()
	assert.Contains(t, out, "\x1b[?1049h", "enters alt screen")
	assert.Contains(t, out, "typed:hi")
	assert.Contains(t, out, "\x1b[1;9H", "cursor placed after typed text")
	assert.Contains(t, out, "\x1b[?25h", "cursor shown")
}
