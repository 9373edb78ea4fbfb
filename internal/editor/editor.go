package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codalotl/drafter/internal/bindings"
	"github.com/codalotl/drafter/internal/llmcomplete"
	"github.com/codalotl/drafter/internal/q/health"
	"github.com/codalotl/drafter/internal/q/termformat"
	"github.com/codalotl/drafter/internal/q/tui"
)

// Initial terminal size, used until the first ResizeEvent.
const (
	defaultWidth  = 80
	defaultHeight = 24
)

// Options configure an Editor.
type Options struct {
	Path   string // file to save to; "" prompts on first save
	Text   string // initial document
	Exists bool   // whether Path was read from disk

	Provider   llmcomplete.Provider
	Bindings   *bindings.Map // nil means bindings.DefaultMap()
	Timeout    time.Duration // longest wait for a completion; <= 0 means llmcomplete.DefaultTimeout
	MaxRetract int           // characters removed per retract; <= 0 removes the whole draft

	Logger *slog.Logger
}

// Editor is the tui.Model for one document. It is not safe for concurrent use; tui delivers messages one at a time.
type Editor struct {
	buf   *Buffer
	cur   Cursor
	win   Window
	draft Draft

	keys       *bindings.Map
	provider   llmcomplete.Provider
	timeout    time.Duration
	maxRetract int
	health     health.Ctx

	path         string
	exists       bool
	savedVersion int

	width, height int
	status        string
	prompt        *prompt
	help          bool
	quit          bool
}

// prompt is a one-line text input shown in place of the status line.
type prompt struct {
	label  string
	input  []rune
	submit func(e *Editor, t *tui.TUI, value string)
}

// New returns an Editor on opts.Text. Provider is required.
func New(opts Options) (*Editor, error) {
	if opts.Provider == nil {
		return nil, health.NewErr("editor: nil provider")
	}
	keys := opts.Bindings
	if keys == nil {
		keys = bindings.DefaultMap()
	}
	if err := keys.Require(bindings.ActionQuit, bindings.ActionSaveAndQuit); err != nil {
		return nil, err
	}

	e := &Editor{
		buf:        NewBuffer(opts.Text),
		keys:       keys,
		provider:   opts.Provider,
		timeout:    opts.Timeout,
		maxRetract: opts.MaxRetract,
		health:     health.NewCtx(opts.Logger).With("component", "editor"),
		path:       opts.Path,
		exists:     opts.Exists,
	}
	e.savedVersion = e.buf.Version()
	e.resize(defaultWidth, defaultHeight)
	e.status = fmt.Sprintf("%s for help", e.keys.FirstKey(bindings.ActionHelp))
	return e, nil
}

// Buffer returns the document.
func (e *Editor) Buffer() *Buffer { return e.buf }

// Cursor returns the cursor's logical position.
func (e *Editor) Cursor() Cursor { return e.cur }

// Window returns the viewport.
func (e *Editor) Window() Window { return e.win }

// Draft returns the draft state.
func (e *Editor) Draft() Draft { return e.draft }

// Path returns the file the document saves to.
func (e *Editor) Path() string { return e.path }

// Status returns the last status message.
func (e *Editor) Status() string { return e.status }

// Modified reports whether the document changed since it was loaded or last saved.
func (e *Editor) Modified() bool { return e.buf.Version() != e.savedVersion }

// Quitting reports whether the editor asked the runtime to stop.
func (e *Editor) Quitting() bool { return e.quit }

func (e *Editor) Init(t *tui.TUI) {
	e.health.Log("editor started", "path", e.path, "exists", e.exists, "lines", e.buf.Len())
}

func (e *Editor) Update(t *tui.TUI, m tui.Message) {
	switch msg := m.(type) {
	case tui.ResizeEvent:
		e.resize(msg.Width, msg.Height)
	case tui.KeyEvent:
		e.handleKey(t, msg)
	}
}

func (e *Editor) resize(width, height int) {
	e.width, e.height = max(width, 2), max(height, 2)
	// Leave one row for the status line and one column for a wide character that starts on the last text column.
	if e.win.SetSize(e.height-1, e.width-1) {
		e.cur.Resync(e.buf, e.win.Cols)
		e.win.Resync(e.buf)
	}
	e.win.Follow(e.buf, &e.cur)
}

func (e *Editor) handleKey(t *tui.TUI, ev tui.KeyEvent) {
	e.draft.BeginKey()
	defer func() {
		e.draft.EndKey()
		e.win.Follow(e.buf, &e.cur)
	}()

	if e.prompt != nil {
		e.promptKey(t, ev)
		return
	}
	if e.help {
		e.help = false
		return
	}
	if id, ok := e.keys.ResolveEvent(ev); ok {
		e.do(t, id)
		return
	}
	if ev.Paste || (ev.IsRunes() && !ev.Alt) {
		e.insertText(string(ev.Runes))
	}
}

func (e *Editor) do(t *tui.TUI, id bindings.ActionID) {
	cols := e.win.Cols
	switch id {
	case bindings.ActionNewline:
		e.insertText("\n")
	case bindings.ActionDelete:
		if e.removeBefore() {
			e.draft.Shrink()
		}
	case bindings.ActionUserTurn:
		e.insertText(llmcomplete.UserTag + "\n")
	case bindings.ActionEndTurn:
		e.insertText(llmcomplete.EndTag + "\n")
	case bindings.ActionLeft:
		e.cur.Left(e.buf, cols)
	case bindings.ActionRight:
		e.cur.Right(e.buf, cols)
	case bindings.ActionUp:
		e.cur.Up(e.buf, cols)
	case bindings.ActionDown:
		e.cur.Down(e.buf, cols)
	case bindings.ActionHome:
		e.cur.Home()
	case bindings.ActionEnd:
		e.cur.End(e.buf)
	case bindings.ActionJumpEnd:
		for e.cur.Right(e.buf, cols) {
			e.win.Follow(e.buf, &e.cur)
		}
	case bindings.ActionJumpStart:
		for e.cur.Left(e.buf, cols) {
			e.win.Follow(e.buf, &e.cur)
		}
	case bindings.ActionComplete:
		e.complete(t)
	case bindings.ActionRetract:
		n := e.draft.Retract(e.removeBefore, e.maxRetract)
		if n > 0 {
			e.status = fmt.Sprintf("retracted %d", n)
		}
	case bindings.ActionSave:
		if e.path == "" {
			e.openPrompt("Save as: ", "", (*Editor).saveAs)
			return
		}
		e.save(e.path)
	case bindings.ActionSaveAndQuit:
		e.openPrompt("Save as: ", e.path, (*Editor).saveAndQuit)
	case bindings.ActionHelp:
		e.help = true
	case bindings.ActionQuit:
		e.stop(t, false)
	case bindings.ActionInterrupt:
		e.stop(t, true)
	}
}

// removeBefore removes the character before the cursor, reporting whether there was one. It leaves the draft alone.
func (e *Editor) removeBefore() bool {
	if e.cur.Row == 0 && e.cur.Col == 0 {
		return false
	}
	e.cur.Left(e.buf, e.win.Cols)
	e.win.Follow(e.buf, &e.cur)
	if err := e.buf.Delete(e.cur.Pos); err != nil {
		e.health.LogErr(err, "row", e.cur.Row, "col", e.cur.Col)
		return false
	}
	return true
}

// insertText types s at the cursor one character at a time, splitting lines at '\n', and returns the number of characters inserted.
func (e *Editor) insertText(s string) int {
	s = termformat.SanitizeDocument(s, TabWidth)
	n := 0
	for _, r := range s {
		var err error
		if r == '\n' {
			err = e.buf.Split(e.cur.Pos)
		} else {
			err = e.buf.Insert(e.cur.Pos, string(r))
		}
		if err != nil {
			e.health.LogErr(err)
			break
		}
		e.cur.Right(e.buf, e.win.Cols)
		e.win.Follow(e.buf, &e.cur)
		n++
	}
	return n
}

// complete asks the provider for a continuation and inserts it as the pending draft. A failed or slow completion inserts llmcomplete.ErrorMarker instead.
func (e *Editor) complete(t *tui.TUI) {
	prefix, suffix := e.buf.Prefix(e.cur.Pos), e.buf.Suffix(e.cur.Pos)
	res := llmcomplete.CompleteWithin(e.context(t), e.provider, prefix, suffix, e.timeout)
	n := e.insertText(res.Text)
	e.draft.Accept(n)

	elapsed := res.Elapsed.Round(time.Millisecond)
	if res.Err != nil {
		e.health.LogErr(res.Err, "elapsed", elapsed)
		e.status = fmt.Sprintf("completion failed after %v: %v", elapsed, res.Err)
		return
	}
	e.health.Debug("completion inserted", "chars", n, "elapsed", elapsed)
	e.status = fmt.Sprintf("completed %d chars in %v", n, elapsed)
}

// save writes the document to path, reporting the outcome in the status line. It returns whether the file was written.
func (e *Editor) save(path string) bool {
	sum, err := SaveFile(path, e.buf)
	if errors.Is(err, ErrSaveCanceled) {
		e.status = "save canceled"
		return false
	}
	if err != nil {
		e.health.LogErr(err)
		e.status = health.HumanMessage(err)
		return false
	}
	e.path = path
	e.exists = true
	e.savedVersion = e.buf.Version()
	e.status = fmt.Sprintf("saved %s (%s lines)", path, sum)
	e.health.Log("saved", "path", path, "inserted", sum.Inserted, "deleted", sum.Deleted)
	return true
}

func (e *Editor) saveAs(t *tui.TUI, path string) {
	e.save(path)
}

// saveAndQuit saves to path and quits. An empty path quits without saving; a failed save stays in the editor so nothing is lost.
func (e *Editor) saveAndQuit(t *tui.TUI, path string) {
	if path != "" && !e.save(path) {
		return
	}
	e.stop(t, false)
}

func (e *Editor) stop(t *tui.TUI, interrupt bool) {
	e.quit = true
	if t == nil {
		return
	}
	if interrupt {
		t.Interrupt()
	} else {
		t.Quit()
	}
}

func (e *Editor) context(t *tui.TUI) context.Context {
	if t == nil {
		return context.Background()
	}
	return t.Context()
}

func (e *Editor) openPrompt(label, initial string, submit func(*Editor, *tui.TUI, string)) {
	e.prompt = &prompt{label: label, input: []rune(initial), submit: submit}
}

func (e *Editor) promptKey(t *tui.TUI, ev tui.KeyEvent) {
	p := e.prompt
	switch {
	case ev.ControlKey == tui.ControlKeyEnter:
		e.prompt = nil
		p.submit(e, t, string(p.input))
	case ev.ControlKey == tui.ControlKeyEsc:
		e.prompt = nil
		e.status = "save canceled"
	case ev.ControlKey == tui.ControlKeyBackspace || ev.ControlKey == tui.ControlKeyCtrlH:
		if len(p.input) > 0 {
			p.input = p.input[:len(p.input)-1]
		}
	case ev.ControlKey == tui.ControlKeyCtrlU:
		p.input = p.input[:0]
	case ev.ControlKey == tui.ControlKeyCtrlC:
		e.prompt = nil
		e.stop(t, true)
	case ev.Paste || (ev.IsRunes() && !ev.Alt):
		p.input = append(p.input, []rune(termformat.SanitizeLine(string(ev.Runes)))...)
	}
}
