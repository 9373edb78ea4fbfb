package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func runCLI(t *testing.T, root *Command, args []string) (int, string, string) {
	t.Helper()
	var out bytes.Buffer
	var errOut bytes.Buffer
	code := Run(context.Background(), root, Options{
		Args: args,
		Out:  &out,
		Err:  &errOut,
	})
	return code, out.String(), errOut.String()
}

// editorTree is shaped like an editor CLI: a root that takes an optional file, plus subcommands.
type editorTree struct {
	root, keys, config *Command

	model *string
	mock  *bool
	listen *bool
	ran   string
	args  []string
}

func newEditorTree() *editorTree {
	tr := &editorTree{}
	tr.root = &Command{Name: "ed", Use: "[file]", Short: "Edit a file", Args: RangeArgs(0, 1)}
	tr.model = tr.root.Flags().String("model", 'm', "", "Model name")
	tr.mock = tr.root.Flags().Bool("mock", 0, false, "Offline")
	tr.root.Run = func(c *Context) error {
		tr.ran, tr.args = "root", c.Args
		return nil
	}

	tr.keys = &Command{Name: "keys", Aliases: []string{"k"}, Short: "Print bindings", Args: NoArgs}
	tr.listen = tr.keys.Flags().Bool("listen", 0, false, "Read keys from the terminal")
	tr.keys.Run = func(c *Context) error {
		tr.ran, tr.args = "keys", c.Args
		return nil
	}

	tr.config = &Command{Name: "config", Short: "Print configuration", Args: NoArgs}
	tr.config.Run = func(c *Context) error {
		tr.ran, tr.args = "config", c.Args
		return nil
	}

	tr.root.AddCommand(tr.keys, tr.config)
	return tr
}

func TestRun_RootTakesFileAndInterspersedFlags(t *testing.T) {
	tr := newEditorTree()
	code, stdout, stderr := runCLI(t, tr.root, []string{"--mock", "notes.txt", "-m", "base"})
	if code != 0 {
		t.Fatalf("code=%d stdout=%q stderr=%q", code, stdout, stderr)
	}
	if tr.ran != "root" || len(tr.args) != 1 || tr.args[0] != "notes.txt" {
		t.Fatalf("ran=%q args=%v", tr.ran, tr.args)
	}
	if !*tr.mock || *tr.model != "base" {
		t.Fatalf("mock=%v model=%q", *tr.mock, *tr.model)
	}
}

func TestRun_SubcommandAndAlias(t *testing.T) {
	for _, name := range []string{"keys", "k"} {
		tr := newEditorTree()
		code, _, stderr := runCLI(t, tr.root, []string{name, "--listen"})
		if code != 0 {
			t.Fatalf("%s: code=%d stderr=%q", name, code, stderr)
		}
		if tr.ran != "keys" || !*tr.listen {
			t.Fatalf("%s: ran=%q listen=%v", name, tr.ran, *tr.listen)
		}
	}
}

func TestRun_CommandSelectionStopsOnFirstRealArg(t *testing.T) {
	tr := newEditorTree()

	// "keys" after a file is a second positional arg, not a subcommand.
	code, _, stderr := runCLI(t, tr.root, []string{"notes.txt", "keys"})
	if code != 2 {
		t.Fatalf("code=%d stderr=%q", code, stderr)
	}
	if tr.ran != "" {
		t.Fatalf("nothing should run, ran=%q", tr.ran)
	}
	if !strings.Contains(stderr, "expected") || !strings.Contains(stderr, "Usage:") {
		t.Fatalf("expected args usage error; stderr=%q", stderr)
	}
}

func TestRun_SubcommandFlagNotValidOnRoot(t *testing.T) {
	tr := newEditorTree()
	code, stdout, stderr := runCLI(t, tr.root, []string{"--listen", "keys"})
	if code != 2 {
		t.Fatalf("code=%d stdout=%q stderr=%q", code, stdout, stderr)
	}
	if stdout != "" {
		t.Fatalf("expected no stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "unknown flag: --listen") {
		t.Fatalf("expected stderr to include token; stderr=%q", stderr)
	}
}

func TestRun_UnknownFlagOnSubcommand(t *testing.T) {
	tr := newEditorTree()
	code, _, stderr := runCLI(t, tr.root, []string{"config", "--nope"})
	if code != 2 {
		t.Fatalf("code=%d stderr=%q", code, stderr)
	}
	if !strings.Contains(stderr, "unknown flag: --nope") || !strings.Contains(stderr, "ed config") {
		t.Fatalf("stderr=%q", stderr)
	}
}

func TestRun_RootHelpListsCommandsAligned(t *testing.T) {
	tr := newEditorTree()
	code, stdout, stderr := runCLI(t, tr.root, []string{"-h"})
	if code != 0 || stderr != "" {
		t.Fatalf("code=%d stderr=%q", code, stderr)
	}
	for _, want := range []string{
		"ed - Edit a file",
		"ed [flags] [command] [file]",
		"  config    Print configuration",
		"  keys (k)  Print bindings",
		"  -m, --model <string>  Model name",
		"      --mock            Offline",
	} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("help missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "\t") {
		t.Fatalf("help should not contain tabs:\n%s", stdout)
	}
}

func TestRun_HelpForSubcommand(t *testing.T) {
	tr := newEditorTree()
	code, stdout, _ := runCLI(t, tr.root, []string{"keys", "--help"})
	if code != 0 {
		t.Fatalf("code=%d", code)
	}
	if !strings.Contains(stdout, "ed keys - Print bindings") || !strings.Contains(stdout, "--listen") {
		t.Fatalf("stdout=%q", stdout)
	}
	if strings.Contains(stdout, "--model") {
		t.Fatalf("root-local flag should not be listed for keys:\n%s", stdout)
	}
	if !strings.HasSuffix(stdout, "\n") {
		t.Fatalf("expected trailing newline; stdout=%q", stdout)
	}
}

func TestRun_NamespaceOnlyCommandRequiresSubcommand(t *testing.T) {
	root := &Command{Name: "ed"}
	bindings := &Command{Name: "bindings"} // Run nil: namespace-only
	bindings.AddCommand(&Command{Name: "list", Run: func(*Context) error { return nil }})
	root.AddCommand(bindings)

	code, stdout, stderr := runCLI(t, root, []string{"bindings"})
	if code != 2 || stdout != "" {
		t.Fatalf("code=%d stdout=%q stderr=%q", code, stdout, stderr)
	}
	if !strings.Contains(stderr, "missing required subcommand") || !strings.Contains(stderr, "ed bindings <command>") {
		t.Fatalf("stderr=%q", stderr)
	}

	code, _, stderr = runCLI(t, root, []string{"bindings", "--", "-h"})
	if code != 2 || !strings.Contains(stderr, "unknown subcommand: -h") {
		t.Fatalf("code=%d stderr=%q", code, stderr)
	}
}

func TestRun_HandlerErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantMsg   string
		wantUsage bool
	}{
		{name: "plain", err: errors.New("no tty"), wantCode: 1, wantMsg: "no tty"},
		{name: "exit code", err: ExitError{Code: 130, Err: errors.New("interrupted")}, wantCode: 130, wantMsg: "interrupted"},
		{name: "usage", err: UsageError{Message: "bad input"}, wantCode: 2, wantMsg: "bad input", wantUsage: true},
		{name: "silent success", err: ExitError{Code: 0}, wantCode: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := &Command{Name: "ed", Run: func(*Context) error { return tt.err }}
			code, stdout, stderr := runCLI(t, root, nil)
			if code != tt.wantCode {
				t.Fatalf("code=%d want %d (stderr=%q)", code, tt.wantCode, stderr)
			}
			if stdout != "" {
				t.Fatalf("expected no stdout, got %q", stdout)
			}
			if tt.wantMsg != "" && !strings.Contains(stderr, tt.wantMsg) {
				t.Fatalf("stderr=%q should contain %q", stderr, tt.wantMsg)
			}
			if got := strings.Contains(stderr, "Usage:"); got != tt.wantUsage {
				t.Fatalf("usage printed=%v, want %v; stderr=%q", got, tt.wantUsage, stderr)
			}
		})
	}
}
