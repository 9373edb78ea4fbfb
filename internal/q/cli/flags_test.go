package cli

import (
	"strings"
	"testing"
	"time"
)

func TestFlags_FloatChangedAndVisit(t *testing.T) {
	root := &Command{Name: "drafter", Use: "[file]", Args: RangeArgs(0, 1)}
	temp := root.Flags().Float("temperature", 0, 0.8, "Sampling temperature")
	model := root.Flags().String("model", 'm', "base", "Model")
	timeout := root.Flags().Duration("timeout", 0, 2*time.Second, "Completion timeout")
	root.Run = func(c *Context) error { return nil }

	code, stdout, stderr := runCLI(t, root, []string{"--temperature=0.25", "-m", "chatty", "notes.txt"})
	if code != 0 {
		t.Fatalf("code=%d stdout=%q stderr=%q", code, stdout, stderr)
	}
	if *temp != 0.25 || *model != "chatty" || *timeout != 2*time.Second {
		t.Fatalf("unexpected values: temperature=%v model=%q timeout=%v", *temp, *model, *timeout)
	}
	if !root.Flags().Changed("temperature") || !root.Flags().Changed("model") || root.Flags().Changed("timeout") {
		t.Fatalf("unexpected Changed results")
	}

	var visited []string
	root.Flags().Visit(func(name string, value any) {
		visited = append(visited, name)
		if name == "temperature" {
			if v, ok := value.(float64); !ok || v != 0.25 {
				t.Fatalf("temperature visited with %#v", value)
			}
		}
	})
	if strings.Join(visited, ",") != "model,temperature" {
		t.Fatalf("visited=%v", visited)
	}
}

func TestFlags_InvalidFloatIsUsageError(t *testing.T) {
	root := &Command{Name: "drafter"}
	root.Flags().Float("temperature", 0, 0.8, "")
	root.Run = func(c *Context) error { return nil }

	code, _, stderr := runCLI(t, root, []string{"--temperature", "warm"})
	if code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(stderr, "invalid value for --temperature") {
		t.Fatalf("stderr=%q", stderr)
	}
}

func TestHelp_UseAndFloatKind(t *testing.T) {
	root := &Command{Name: "drafter", Use: "[file]", Short: "Write with a model"}
	root.Flags().Float("temperature", 0, 0.8, "Sampling temperature")
	root.Run = func(c *Context) error { return nil }

	code, stdout, _ := runCLI(t, root, []string{"--help"})
	if code != 0 {
		t.Fatalf("code=%d", code)
	}
	if !strings.Contains(stdout, "drafter [flags] [file]") {
		t.Fatalf("usage line missing; stdout=%q", stdout)
	}
	if !strings.Contains(stdout, "--temperature <float>") {
		t.Fatalf("float flag missing; stdout=%q", stdout)
	}
}
