//go:build windows

package tui

import (
	"io"
	"os"
	"sync"
	"syscall"
	"time"
)

const enableVirtualTerminalProcessing = 0x0004

func enableVirtualTerminal(out io.Writer) (func() error, error) {
	file, ok := out.(*os.File)
	if !ok || file == nil {
		return nil, nil
	}

	handle := syscall.Handle(file.Fd())
	var mode uint32
	if err := syscall.GetConsoleMode(handle, &mode); err != nil {
		return nil, err
	}
	if mode&enableVirtualTerminalProcessing != 0 {
		return nil, nil
	}
	if err := syscall.SetConsoleMode(handle, mode|enableVirtualTerminalProcessing); err != nil {
		return nil, err
	}
	return func() error { return syscall.SetConsoleMode(handle, mode) }, nil
}

// startResizeWatcher polls the console size; Windows has no SIGWINCH.
func (t *TUI) startResizeWatcher() {
	ticker := time.NewTicker(250 * time.Millisecond)
	if !t.registerStopCloser(ticker.Stop) {
		ticker.Stop()
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for {
			select {
			case <-t.ctx.Done():
				return
			case <-ticker.C:
				t.triggerResizeEvent()
			}
		}
	}()
}

func signalBindings() []signalBinding {
	return []signalBinding{
		{sig: os.Interrupt, action: func(t *TUI) { t.Interrupt() }},
		{sig: syscall.SIGTERM, action: func(t *TUI) { t.Quit() }},
	}
}

func openControllingTTY() (*ttyResources, error) {
	in, err := os.OpenFile("CONIN$", os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	out, err := os.OpenFile("CONOUT$", os.O_WRONLY, 0)
	if err != nil {
		_ = in.Close()
		return nil, err
	}
	var once sync.Once
	return &ttyResources{
		reader: in,
		writer: out,
		close: func() {
			once.Do(func() {
				_ = in.Close()
				_ = out.Close()
			})
		},
	}, nil
}

func duplicateFile(f *os.File) (*os.File, error) {
	proc, err := syscall.GetCurrentProcess()
	if err != nil {
		return nil, err
	}
	var dup syscall.Handle
	err = syscall.DuplicateHandle(proc, syscall.Handle(f.Fd()), proc, &dup, 0, false, syscall.DUPLICATE_SAME_ACCESS)
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(dup), f.Name()+"-dup"), nil
}
