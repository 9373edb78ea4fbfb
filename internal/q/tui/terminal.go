package tui

import (
	"errors"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

const (
	cursorHome            = "\x1b[H"
	clearLine             = "\x1b[2K"
	altScreenEnter        = "\x1b[?1049h" + cursorHome
	altScreenExit         = "\x1b[?1049l"
	hideCursor            = "\x1b[?25l"
	showCursor            = "\x1b[?25h"
	clearScreen           = "\x1b[2J" + cursorHome
	enableBracketedPaste  = "\x1b[?2004h"
	disableBracketedPaste = "\x1b[?2004l"
	steadyBarCursor       = "\x1b[6 q"
	defaultCursorShape    = "\x1b[0 q"
)

var errNoFileDescriptor = errors.New("tui: raw mode requires *os.File input")

type noopTerminal struct{}

func (n *noopTerminal) Enter() error { return nil }

func (n *noopTerminal) Exit() error { return nil }

func defaultTerminalFactory(input io.Reader, output io.Writer) (terminalController, error) {
	file, ok := input.(*os.File)
	if !ok || file == nil {
		return nil, errNoFileDescriptor
	}
	if output == nil {
		output = file
	}
	return &realTerminal{in: file, out: output}, nil
}

// realTerminal switches a tty into raw mode on the alternate screen, and back.
type realTerminal struct {
	in        *os.File
	out       io.Writer
	state     *term.State
	vtRestore func() error

	mu      sync.Mutex
	entered bool
}

func (rt *realTerminal) Enter() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.entered {
		return nil
	}

	fd := int(rt.in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}

	restoreVT, err := enableVirtualTerminal(rt.out)
	if err != nil {
		_ = term.Restore(fd, state)
		return err
	}

	if err := rt.writeString(altScreenEnter + clearScreen + hideCursor + steadyBarCursor + enableBracketedPaste); err != nil {
		_ = term.Restore(fd, state)
		if restoreVT != nil {
			_ = restoreVT()
		}
		return err
	}

	rt.state = state
	rt.vtRestore = restoreVT
	rt.entered = true
	return nil
}

// Exit restores the terminal. It returns the first error but always attempts every restoration step.
func (rt *realTerminal) Exit() error {
	rt.mu.Lock()
	if !rt.entered {
		rt.mu.Unlock()
		return nil
	}
	fd := int(rt.in.Fd())
	state := rt.state
	restoreVT := rt.vtRestore
	rt.state = nil
	rt.vtRestore = nil
	rt.entered = false
	rt.mu.Unlock()

	var errs []error
	if state != nil {
		errs = append(errs, term.Restore(fd, state))
	}
	errs = append(errs, rt.writeString(disableBracketedPaste+defaultCursorShape+showCursor+altScreenExit))
	if restoreVT != nil {
		errs = append(errs, restoreVT())
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (rt *realTerminal) writeString(s string) error {
	if rt.out == nil || len(s) == 0 {
		return nil
	}
	_, err := io.WriteString(rt.out, s)
	return err
}

type ttyResources struct {
	reader io.Reader
	writer io.Writer
	close  func()
}

type fdProvider interface {
	Fd() uintptr
}

func extractFD(r any) (int, bool) {
	fp, ok := r.(fdProvider)
	if !ok {
		return -1, false
	}
	return int(fp.Fd()), true
}

func isTTY(r any) bool {
	fd, ok := extractFD(r)
	if !ok {
		return false
	}
	return term.IsTerminal(fd)
}
