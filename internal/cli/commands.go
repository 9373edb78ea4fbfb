package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/codalotl/drafter/internal/bindings"
	"github.com/codalotl/drafter/internal/editor"
	qcli "github.com/codalotl/drafter/internal/q/cli"
	"github.com/codalotl/drafter/internal/q/tui"
	"github.com/codalotl/drafter/internal/q/uni"
	"github.com/codalotl/drafter/internal/simplelogger"
)

// runTUI is replaced in tests.
var runTUI = func(m tui.Model) error {
	return tui.RunTUI(m, tui.Options{})
}

// flagKeys maps root flags to the config keys they override.
var flagKeys = map[string]string{
	"model":       "model",
	"kind":        "model_kind",
	"base-url":    "base_url",
	"timeout":     "timeout",
	"window":      "sliding_window",
	"max-tokens":  "max_tokens",
	"temperature": "temperature",
	"log-file":    "log_file",
}

// configOverrides turns the flags given on the command line into a config map. Durations are passed as strings.
func configOverrides(fs *qcli.FlagSet) map[string]any {
	m := map[string]any{}
	fs.Visit(func(name string, value any) {
		key, ok := flagKeys[name]
		if !ok {
			return
		}
		if s, ok := value.(fmt.Stringer); ok {
			value = s.String()
		}
		m[key] = value
	})
	return m
}

func newRootCommand() *qcli.Command {
	root := &qcli.Command{
		Name:  "drafter",
		Use:   "[file]",
		Short: "drafter is a terminal text editor that drafts with a language model.",
		Long: "Opens file (created on first save if it doesn't exist) in a full-screen editor. Press tab to have the model continue the text at the " +
			"cursor; ctrl+a takes the draft back, anything else keeps it. Press f1 for all keys.",
		Args: qcli.RangeArgs(0, 1),
	}
	fs := root.Flags()
	fs.String("model", 'm', "", "Model name (overrides config model).")
	fs.String("kind", 0, "", "Model kind: base, template, or chat (default: inferred from the model name).")
	fs.String("base-url", 0, "", "OpenAI-compatible API base URL.")
	fs.Duration("timeout", 0, 0, "Longest wait for a completion.")
	fs.Int("window", 0, 0, "Send only this many trailing characters of the text (0 = all).")
	fs.Int("max-tokens", 0, 0, "Maximum completion length in tokens.")
	fs.Float("temperature", 0, 0, "Sampling temperature.")
	fs.String("log-file", 0, "", "Append logs to this file.")
	mock := fs.Bool("mock", 0, false, "Use an offline mock model instead of the API.")

	root.Run = func(c *qcli.Context) error {
		lc, err := loadConfig("", configOverrides(fs))
		if err != nil {
			return qcli.ExitError{Code: 1, Err: err}
		}
		var path string
		if len(c.Args) == 1 {
			path = c.Args[0]
		}
		return runEditor(lc.Config, path, *mock)
	}

	keysCmd := &qcli.Command{
		Name:  "keys",
		Short: "Print the key bindings.",
		Args:  qcli.NoArgs,
	}
	listen := keysCmd.Flags().Bool("listen", 0, false, "Show the name of each key pressed (for writing [bindings] overrides).")
	keysCmd.Run = func(c *qcli.Context) error {
		lc, err := loadConfig("", nil)
		if err != nil {
			return qcli.ExitError{Code: 1, Err: err}
		}
		m, err := bindings.New(lc.Bindings)
		if err != nil {
			return qcli.ExitError{Code: 1, Err: err}
		}
		if *listen {
			return runTUI(&keyEchoModel{keys: m})
		}
		return writeKeys(c.Out, m)
	}

	configCmd := &qcli.Command{
		Name:  "config",
		Short: "Print the effective configuration and where each value came from.",
		Args:  qcli.NoArgs,
		Run: func(c *qcli.Context) error {
			lc, err := loadConfig("", nil)
			if err != nil {
				return qcli.ExitError{Code: 1, Err: err}
			}
			return writeConfigJSON(c.Out, lc)
		},
	}

	versionCmd := &qcli.Command{
		Name:  "version",
		Short: "Print drafter version.",
		Args:  qcli.NoArgs,
		Run: func(c *qcli.Context) error {
			return writeStringln(c.Out, Version)
		},
	}

	root.AddCommand(keysCmd, configCmd, versionCmd)
	return root
}

// runEditor opens path and runs the editor until the user quits.
func runEditor(cfg Config, path string, mock bool) error {
	logger := simplelogger.New(simplelogger.Path(cfg.LogFile), slog.LevelDebug)

	provider, err := newProvider(cfg, mock, logger)
	if err != nil {
		return qcli.ExitError{Code: 1, Err: err}
	}
	keys, err := bindings.New(cfg.Bindings)
	if err != nil {
		return qcli.ExitError{Code: 1, Err: err}
	}

	var text string
	var exists bool
	if path != "" {
		path = filepath.Clean(path)
		text, exists, err = editor.ReadDocument(path)
		if err != nil {
			return qcli.ExitError{Code: 1, Err: err}
		}
	}

	e, err := editor.New(editor.Options{
		Path:       path,
		Text:       text,
		Exists:     exists,
		Provider:   provider,
		Bindings:   keys,
		Timeout:    cfg.Timeout,
		MaxRetract: cfg.MaxRetract,
		Logger:     logger,
	})
	if err != nil {
		return qcli.ExitError{Code: 1, Err: err}
	}

	err = runTUI(e)
	logger.Info("editor exited", "path", e.Path(), "modified", e.Modified(), "err", err)
	if errors.Is(err, tui.ErrInterrupted) {
		return qcli.ExitError{Code: 130, Err: errors.New("interrupted")}
	}
	if err != nil {
		return qcli.ExitError{Code: 1, Err: err}
	}
	return nil
}

// writeKeys prints one row per action: keys, action id, description.
func writeKeys(w io.Writer, m *bindings.Map) error {
	rows := m.Help()
	keys := make([]string, len(rows))
	keyWidth, actionWidth := 0, 0
	for i, r := range rows {
		keys[i] = strings.Join(r.Keys, ", ")
		if keys[i] == "" {
			keys[i] = "-"
		}
		keyWidth = max(keyWidth, uni.TextWidth(keys[i], nil))
		actionWidth = max(actionWidth, len(r.Action))
	}
	for i, r := range rows {
		line := pad(keys[i], keyWidth) + "  " + pad(string(r.Action), actionWidth) + "  " + r.Description
		if err := writeStringln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func pad(s string, width int) string {
	if n := width - uni.TextWidth(s, nil); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

func writeStringln(w io.Writer, s string) error {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := fmt.Fprint(w, s)
	return err
}

// keyEchoModel shows the name of every key pressed and the action it runs. ctrl+c exits.
type keyEchoModel struct {
	keys   *bindings.Map
	width  int
	height int
	seen   []string
}

func (p *keyEchoModel) Init(t *tui.TUI) {}

func (p *keyEchoModel) Update(t *tui.TUI, m tui.Message) {
	switch msg := m.(type) {
	case tui.ResizeEvent:
		p.width, p.height = msg.Width, msg.Height
	case tui.KeyEvent:
		if msg.ControlKey == tui.ControlKeyCtrlC {
			t.Quit()
			return
		}
		name := tui.KeyName(msg)
		if name == "" {
			name = fmt.Sprintf("(unnamed: %q)", string(msg.Runes))
		}
		if id, ok := p.keys.ResolveEvent(msg); ok {
			name += "  -> " + string(id)
		}
		p.seen = append(p.seen, name)
	}
}

func (p *keyEchoModel) View() string {
	lines := []string{"Press keys to see their names. ctrl+c exits.", ""}
	room := max(p.height-len(lines), 1)
	seen := p.seen
	if len(seen) > room {
		seen = seen[len(seen)-room:]
	}
	lines = append(lines, seen...)
	for i, l := range lines {
		lines[i] = uni.Truncate(l, p.width, nil)
	}
	return strings.Join(lines, "\n")
}
