//go:build !windows

package tui

import (
	"io"
	"os"
	"sync"
	"syscall"
)

// enableVirtualTerminal is a no-op outside Windows: unix terminals interpret VT sequences natively.
func enableVirtualTerminal(io.Writer) (func() error, error) {
	return nil, nil
}

// startResizeWatcher is a no-op on unix, where SIGWINCH drives resize events.
func (t *TUI) startResizeWatcher() {}

func signalBindings() []signalBinding {
	return []signalBinding{
		{sig: syscall.SIGINT, action: func(t *TUI) { t.Interrupt() }},
		{sig: syscall.SIGTERM, action: func(t *TUI) { t.Quit() }},
		{sig: syscall.SIGWINCH, action: func(t *TUI) { t.triggerResizeEvent() }},
	}
}

func openControllingTTY() (*ttyResources, error) {
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	var once sync.Once
	return &ttyResources{
		reader: f,
		writer: f,
		close:  func() { once.Do(func() { _ = f.Close() }) },
	}, nil
}

func duplicateFile(f *os.File) (*os.File, error) {
	dup, err := syscall.Dup(int(f.Fd()))
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(dup), f.Name()+"-dup"), nil
}
