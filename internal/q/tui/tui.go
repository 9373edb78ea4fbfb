package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codalotl/drafter/internal/q/termformat"
	"golang.org/x/term"
)

// Message is any event or user-defined message sent to a Model's Update method.
type Message any

// ResizeEvent is sent during startup and when the terminal window is resized.
type ResizeEvent struct {
	Width  int
	Height int
}

// CancelFunc cancels signal events (ex: SigTermEvent). It can be called idempotently and is always safe to call, even after the TUI has finished running.
type CancelFunc func()

// SigTermEvent will be sent when Quit is requested. It can be canceled with Cancel. An uncanceled event causes RunTUI to return with a nil error.
type SigTermEvent struct {
	Cancel CancelFunc
}

// SigIntEvent will be sent when Interrupt is requested. It can be canceled with Cancel. An uncanceled event causes RunTUI to return with an ErrInterrupted error.
type SigIntEvent struct {
	Cancel CancelFunc
}

// Model represents a user program.
//   - Init is called first, after Raw mode is entered.
//   - Update is called when events occur or when Send sends a user-defined message.
//   - View returns a string representing the TUI.
type Model interface {
	Init(t *TUI)

	// Update is called when events occur or when Send sends a user-defined message. Messages are delivered one at a time, from a single goroutine.
	Update(t *TUI, m Message)

	// View returns a string of the full screen TUI: at most ResizeEvent.Height lines separated by "\n", each at most Width cells wide. Lines may contain ANSI
	// SGR sequences.
	View() string
}

// CursorModel is optionally implemented by a Model that wants the terminal's hardware cursor shown. After each render, the cursor is placed at the 0-based
// (row, col) cell of the view. When visible is false, or the Model doesn't implement CursorModel, the cursor is hidden.
type CursorModel interface {
	CursorPosition() (row, col int, visible bool)
}

type terminalController interface {
	Enter() error
	Exit() error
}

type terminalFactory func(input io.Reader, output io.Writer) (terminalController, error)

// Options configure RunTUI.
type Options struct {
	// Input overrides os.Stdin when non-nil. Primarily used for testing. A non-tty input will still cause tui to open the controlling TTY for real input.
	Input io.Reader

	Output io.Writer // Output overrides os.Stdout when non-nil. Primarily used for testing.

	skipTTYValidation bool
	terminalFactory   terminalFactory
	sizeProvider      func() (int, int, error)
}

// ErrNoTTY is returned when no usable terminal is available.
var ErrNoTTY = errors.New("tui: no tty available")

// ErrInterrupted is returned when the TUI is interrupted (ex: via Interrupt).
var ErrInterrupted = errors.New("tui: interrupted")

// RunTUI makes a new TUI and runs it. Alt/raw mode is entered (non-TTYs return ErrNoTTY). RunTUI doesn't return until the TUI stops (Quit or Interrupt is called
// without canceling their events).
func RunTUI(m Model, opts Options) error {
	if m == nil {
		return errors.New("tui: model is nil")
	}

	t := newTUI(m, opts)
	if err := t.prepareIO(); err != nil {
		return err
	}
	return t.run()
}

type signalKind int

const (
	_ signalKind = iota
	signalKindQuit
	signalKindInterrupt
)

type signalRequest struct {
	kind     signalKind
	canceled atomic.Bool
}

func (s *signalRequest) cancelFunc() CancelFunc {
	return func() { s.canceled.Store(true) }
}

type messageEnvelope struct {
	msg    Message
	signal *signalRequest
}

// cursorState is the last cursor placement written to the terminal.
type cursorState struct {
	row, col int
	visible  bool
}

type TUI struct {
	model Model
	opts  Options

	term         terminalController
	termFactory  terminalFactory
	sizeProvider func() (int, int, error)

	input  io.Reader
	output io.Writer

	ctx    context.Context
	cancel context.CancelFunc

	panicWriter io.Writer

	messages chan messageEnvelope

	mu             sync.Mutex
	stopping       bool
	err            error
	stopClosers    []func()
	cleanupClosers []func()

	sizeMu     sync.Mutex
	lastWidth  int
	lastHeight int
	sizeKnown  bool

	wg sync.WaitGroup

	panicOnce  sync.Once
	panicMu    sync.Mutex
	panicValue any
	panicStack []byte

	renderMu   sync.Mutex
	prevLines  []string
	prevCursor cursorState
	fullRedraw bool
}

func newTUI(m Model, opts Options) *TUI {
	ctx, cancel := context.WithCancel(context.Background())

	factory := opts.terminalFactory
	if factory == nil {
		factory = defaultTerminalFactory
	}

	return &TUI{
		model:        m,
		opts:         opts,
		termFactory:  factory,
		sizeProvider: opts.sizeProvider,
		ctx:          ctx,
		cancel:       cancel,
		panicWriter:  os.Stderr,
		messages:     make(chan messageEnvelope, 256),
		fullRedraw:   true,
	}
}

func (t *TUI) prepareIO() error {
	t.input = t.opts.Input
	if t.input == nil {
		t.input = os.Stdin
	}
	t.output = t.opts.Output
	if t.output == nil {
		t.output = os.Stdout
	}

	var closers []func()
	inputReplaced := false

	if !t.opts.skipTTYValidation {
		inputTTY := isTTY(t.input)
		outputTTY := isTTY(t.output)
		if !inputTTY || !outputTTY {
			pair, err := openControllingTTY()
			if err != nil {
				return ErrNoTTY
			}
			if !inputTTY {
				t.input = pair.reader
				inputReplaced = true
			}
			if !outputTTY {
				t.output = pair.writer
			}
			closers = append(closers, onceFunc(pair.close))
		}
	}

	if !inputReplaced {
		closer, err := t.setupInputHandle()
		if err != nil {
			for _, fn := range closers {
				fn()
			}
			return err
		}
		if closer != nil {
			closers = append(closers, closer)
		}
	}

	term, err := t.termFactory(t.input, t.output)
	if err != nil && !t.opts.skipTTYValidation {
		for _, fn := range closers {
			fn()
		}
		return err
	}
	if term == nil {
		term = &noopTerminal{}
	}
	t.term = term

	termExit := onceFunc(func() { _ = t.term.Exit() })
	t.registerStopCloser(termExit)
	t.registerCleanupCloser(termExit)
	for _, fn := range closers {
		t.registerStopCloser(fn)
		t.registerCleanupCloser(fn)
	}
	return nil
}

// setupInputHandle duplicates stdin so that stopping the TUI can close the reader without closing the process's stdin. Caller-provided inputs are closed
// on stop. The returned closer may be nil.
func (t *TUI) setupInputHandle() (func(), error) {
	switch r := t.input.(type) {
	case *os.File:
		if r.Fd() == os.Stdin.Fd() || t.opts.Input != nil {
			dup, err := duplicateFile(r)
			if err != nil {
				return nil, err
			}
			t.input = dup
			return onceFunc(func() { _ = dup.Close() }), nil
		}
	case io.Closer:
		if t.opts.Input != nil {
			return onceFunc(func() { _ = r.Close() }), nil
		}
	}
	return nil, nil
}

func onceFunc(fn func()) func() {
	var once sync.Once
	return func() {
		once.Do(fn)
	}
}

func (t *TUI) capturePanic(value any, stack []byte) {
	if value == nil {
		return
	}
	t.panicOnce.Do(func() {
		t.panicMu.Lock()
		t.panicValue = value
		t.panicStack = append([]byte(nil), stack...)
		t.panicMu.Unlock()
		t.stop(nil)
	})
}

func (t *TUI) panicInfo() (any, []byte) {
	t.panicMu.Lock()
	defer t.panicMu.Unlock()
	return t.panicValue, t.panicStack
}

// run restores the terminal before re-raising a panic from the Model, so the stack trace is readable.
func (t *TUI) run() (err error) {
	defer func() {
		t.cleanup()
		if value, stack := t.panicInfo(); value != nil {
			fmt.Fprintf(t.panicWriter, "panic: %v\n%s", value, stack)
			panic(value)
		}
	}()

	return t.loop()
}

func (t *TUI) loop() (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.capturePanic(r, debug.Stack())
		}
	}()

	t.startSignalProcessor()
	if t.term != nil {
		if err := t.term.Enter(); err != nil {
			return err
		}
	}
	if t.input != nil {
		newInputProcessor(t, t.input).start()
	}
	t.startResizeWatcher()
	t.triggerResizeEvent()
	t.model.Init(t)
	t.render()

	for {
		select {
		case <-t.ctx.Done():
			return t.err
		case env := <-t.messages:
			t.model.Update(t, env.msg)

			// Drain whatever queued up during Update before paying for a render. Keeps typing ahead of a slow Update (ex: a completion request) cheap.
		drain:
			for env.signal == nil {
				select {
				case next := <-t.messages:
					env = next
					t.model.Update(t, env.msg)
				default:
					break drain
				}
			}
			t.render()

			if env.signal != nil && !env.signal.canceled.Load() {
				switch env.signal.kind {
				case signalKindQuit:
					t.stop(nil)
					return nil
				case signalKindInterrupt:
					t.stop(ErrInterrupted)
					return ErrInterrupted
				}
			}
		}
	}
}

func (t *TUI) render() {
	if t.output == nil {
		return
	}
	lines := splitViewLines(t.model.View())
	cursor := cursorState{}
	if cm, ok := t.model.(CursorModel); ok {
		cursor.row, cursor.col, cursor.visible = cm.CursorPosition()
	}

	t.renderMu.Lock()
	defer t.renderMu.Unlock()

	output, changed := t.buildRenderOutputLocked(lines, cursor)
	t.prevLines = append(t.prevLines[:0], lines...)
	t.prevCursor = cursor
	if changed {
		_, _ = io.WriteString(t.output, output)
	}
}

func splitViewLines(view string) []string {
	if view == "" {
		return nil
	}
	return strings.Split(view, "\n")
}

// buildRenderOutputLocked diffs lines against the previous frame and returns the escape sequences that update the terminal, including cursor placement.
func (t *TUI) buildRenderOutputLocked(lines []string, cursor cursorState) (string, bool) {
	prevLen := len(t.prevLines)
	full := t.fullRedraw
	t.fullRedraw = false

	var b strings.Builder
	if full {
		b.WriteString(clearScreen)
	}

	maxLen := len(lines)
	if !full && prevLen > maxLen {
		maxLen = prevLen
	}
	for i := 0; i < maxLen; i++ {
		var newLine, prevLine string
		if i < len(lines) {
			newLine = lines[i]
		}
		if full {
			if newLine == "" {
				continue
			}
			appendMoveTo(&b, i, 0)
			b.WriteString(newLine)
			continue
		}

		if i < prevLen {
			prevLine = t.prevLines[i]
		}
		if newLine == prevLine && i < len(lines) {
			continue
		}

		appendMoveTo(&b, i, 0)
		// Same cell width means the new line fully overwrites the old one.
		if newLine == "" || termformat.TextWidthWithANSICodes(newLine) != termformat.TextWidthWithANSICodes(prevLine) {
			b.WriteString(clearLine)
		}
		b.WriteString(newLine)
	}

	wroteLines := b.Len() > 0
	if !wroteLines && !full && cursor == t.prevCursor {
		return "", false
	}

	if cursor.visible {
		appendMoveTo(&b, cursor.row, cursor.col)
		if full || !t.prevCursor.visible {
			b.WriteString(showCursor)
		}
	} else if full || t.prevCursor.visible {
		b.WriteString(hideCursor)
	}
	return b.String(), true
}

// appendMoveTo moves the terminal cursor to the 0-based (row, col).
func appendMoveTo(b *strings.Builder, row, col int) {
	b.WriteString("\x1b[")
	b.WriteString(strconv.Itoa(row + 1))
	b.WriteByte(';')
	b.WriteString(strconv.Itoa(col + 1))
	b.WriteByte('H')
}

func (t *TUI) invalidateRenderCache() {
	t.renderMu.Lock()
	t.fullRedraw = true
	t.prevLines = nil
	t.renderMu.Unlock()
}

// Calling Quit sends the SigTermEvent. Unless the event is canceled, it causes RunTUI to return with a nil error.
//   - This can be called inside a Model's Update method, or elsewhere.
//   - SIGTERM calls Quit().
func (t *TUI) Quit() {
	t.enqueueSignal(signalKindQuit)
}

// Calling Interrupt sends the SigIntEvent. Unless the event is canceled, it causes RunTUI to return with an ErrInterrupted error.
//   - This can be called inside a Model's Update method, or elsewhere.
//   - To handle Ctrl-C, user programs need to detect Ctrl-C keystroke and call Interrupt.
//   - SIGINT calls Interrupt().
func (t *TUI) Interrupt() {
	t.enqueueSignal(signalKindInterrupt)
}

// Send enqueues m to be sent to the Model's Update function. Can be called from any goroutine.
func (t *TUI) Send(m Message) {
	t.enqueue(messageEnvelope{msg: m})
}

// SendOnceAfter will cause m to be sent to the Model's Update function after d time from now.
func (t *TUI) SendOnceAfter(m Message, d time.Duration) {
	if d < 0 {
		d = 0
	}
	timer := time.AfterFunc(d, func() {
		t.Send(m)
	})
	if !t.registerStopCloser(func() { timer.Stop() }) {
		timer.Stop()
	}
}

// Go runs f in a new goroutine. ctx is canceled when the TUI stops. If f returns a non-nil value, it is enqueued for sending via Send.
func (t *TUI) Go(f func(ctx context.Context) Message) {
	ctx, cancel := context.WithCancel(t.ctx)
	if !t.registerStopCloser(cancel) {
		cancel()
		return
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				t.capturePanic(r, debug.Stack())
			}
		}()

		if msg := f(ctx); msg != nil {
			t.Send(msg)
		}
	}()
}

// Context returns a context canceled when the TUI stops.
func (t *TUI) Context() context.Context {
	return t.ctx
}

func (t *TUI) enqueueSignal(kind signalKind) {
	req := &signalRequest{kind: kind}
	var msg Message
	switch kind {
	case signalKindQuit:
		msg = SigTermEvent{Cancel: req.cancelFunc()}
	case signalKindInterrupt:
		msg = SigIntEvent{Cancel: req.cancelFunc()}
	default:
		return
	}
	t.enqueue(messageEnvelope{msg: msg, signal: req})
}

// enqueue never blocks the caller's goroutine forever: it gives up once the TUI stops.
func (t *TUI) enqueue(env messageEnvelope) {
	t.mu.Lock()
	if t.stopping {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	select {
	case t.messages <- env:
		return
	default:
	}
	// Full queue while called from Update would deadlock the loop; hand off to a goroutine.
	go func() {
		select {
		case t.messages <- env:
		case <-t.ctx.Done():
		}
	}()
}

func (t *TUI) stop(err error) {
	t.mu.Lock()
	if t.stopping {
		if t.err == nil {
			t.err = err
		}
		t.mu.Unlock()
		t.cancel()
		return
	}
	t.stopping = true
	t.err = err
	closers := t.stopClosers
	t.stopClosers = nil
	t.mu.Unlock()

	t.cancel()
	for _, fn := range closers {
		fn()
	}
}

func (t *TUI) cleanup() {
	t.stop(t.err)
	t.wg.Wait()

	t.mu.Lock()
	closers := t.cleanupClosers
	t.cleanupClosers = nil
	t.mu.Unlock()

	for _, fn := range closers {
		fn()
	}
}

func (t *TUI) registerStopCloser(fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopping {
		return false
	}
	t.stopClosers = append(t.stopClosers, fn)
	return true
}

func (t *TUI) registerCleanupCloser(fn func()) {
	t.mu.Lock()
	t.cleanupClosers = append(t.cleanupClosers, fn)
	t.mu.Unlock()
}

func (t *TUI) triggerResizeEvent() {
	width, height, err := t.terminalSize()
	if err != nil {
		return
	}
	if !t.storeSize(width, height) {
		return
	}
	t.invalidateRenderCache()
	t.Send(ResizeEvent{Width: width, Height: height})
}

func (t *TUI) storeSize(width, height int) bool {
	t.sizeMu.Lock()
	defer t.sizeMu.Unlock()
	changed := !t.sizeKnown || t.lastWidth != width || t.lastHeight != height
	if changed {
		t.lastWidth = width
		t.lastHeight = height
		t.sizeKnown = true
	}
	return changed
}

func (t *TUI) terminalSize() (int, int, error) {
	if t.sizeProvider != nil {
		return t.sizeProvider()
	}

	lastErr := errors.New("tui: terminal size unavailable")
	for _, candidate := range []any{t.output, t.input} {
		f, ok := candidate.(*os.File)
		if !ok || f == nil {
			continue
		}
		w, h, err := term.GetSize(int(f.Fd()))
		if err == nil {
			return w, h, nil
		}
		lastErr = err
	}
	return 0, 0, lastErr
}

type signalBinding struct {
	sig    os.Signal
	action func(*TUI)
}

func (t *TUI) startSignalProcessor() {
	bindings := signalBindings()
	if len(bindings) == 0 {
		return
	}

	signals := make([]os.Signal, len(bindings))
	for i, b := range bindings {
		signals[i] = b.sig
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	if !t.registerStopCloser(func() { signal.Stop(ch) }) {
		signal.Stop(ch)
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for {
			select {
			case <-t.ctx.Done():
				return
			case sig := <-ch:
				for _, b := range bindings {
					if sig == b.sig {
						b.action(t)
						break
					}
				}
			}
		}
	}()
}
