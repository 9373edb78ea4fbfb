package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

type Options struct {
	// Args is the argv excluding the program name (typically os.Args[1:]).
	Args []string

	// In/Out/Err override standard I/O. If nil, defaults are used.
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Context is passed to a command handler.
//
// Positional args are in Args. Flag values are typically read via variables bound
// at command construction time (e.g. fs.Bool(...)).
type Context struct {
	context.Context

	Command *Command
	Args    []string

	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Run executes a command tree as a CLI program and returns a process exit code.
func Run(ctx context.Context, root *Command, opts Options) int {
	if root == nil {
		panic("cli: Run called with nil root")
	}
	if root.Name == "" {
		panic("cli: Run called with root.Name empty")
	}

	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := opts.Err
	if errOut == nil {
		errOut = os.Stderr
	}

	selected, args, parseErr := parseArgv(root, opts.Args, out)
	if parseErr != nil {
		if errors.Is(parseErr, errHelpPrinted) {
			return 0
		}
		printUsageError(root, selected, parseErr, errOut)
		return 2
	}

	if selected.Run == nil {
		if len(args) == 0 {
			printUsageError(root, selected, usageErrorf("missing required subcommand"), errOut)
			return 2
		}
		printUsageError(root, selected, usageErrorf("unknown subcommand: %s", args[0]), errOut)
		return 2
	}

	if selected.Args != nil {
		if err := selected.Args(args); err != nil {
			return exitForArgsError(root, selected, err, errOut)
		}
	}

	c := &Context{
		Context: ctx,
		Command: selected,
		Args:    args,
		In:      in,
		Out:     out,
		Err:     errOut,
	}
	if err := selected.Run(c); err != nil {
		return exitForHandlerError(root, selected, err, errOut)
	}
	return 0
}

var errHelpPrinted = errors.New("help printed")

func parseArgv(root *Command, argv []string, out io.Writer) (*Command, []string, error) {
	selected := root
	selectionEnded := false
	parsingEnded := false
	var positional []string

	for i := 0; i < len(argv); i++ {
		token := argv[i]

		if parsingEnded {
			positional = append(positional, argv[i:]...)
			break
		}

		if token == "--" {
			parsingEnded = true
			selectionEnded = true
			continue
		}

		if token == "-h" || token == "--help" {
			writeHelp(out, root, selected)
			return selected, nil, errHelpPrinted
		}

		if isFlagToken(token) {
			active := selected.activeFlags()
			consumed, err := parseFlagToken(active, token, argv, i)
			if err != nil {
				return selected, nil, err
			}
			i += consumed
			continue
		}

		if !selectionEnded {
			if child := selected.childByToken(token); child != nil {
				selected = child
				continue
			}
			selectionEnded = true
		}

		positional = append(positional, token)
	}
	return selected, positional, nil
}

func isFlagToken(token string) bool {
	return strings.HasPrefix(token, "-") && token != "-" // "-" is a valid positional arg.
}

// parseFlagToken parses the flag at argv[idx] and returns how many following tokens it consumed as its value (0 or 1). Accepted forms: --name,
// --name=value, -n, -n=value, and single-dash long names (-name, -name=value).
func parseFlagToken(active activeFlags, token string, argv []string, idx int) (int, error) {
	var next *string
	if idx+1 < len(argv) {
		next = &argv[idx+1]
	}
	hasDashDash := next != nil && *next == "--"

	var (
		name      string
		shorthand rune
		value     *string
	)
	switch {
	case strings.HasPrefix(token, "--"):
		name, value = splitFlagValue(token[2:])
	case len(token) >= 3 && token[2] != '=':
		name, value = splitFlagValue(token[1:])
	case len(token) < 2:
		return 0, usageErrorf("unknown flag: %s", token)
	default:
		shorthand = rune(token[1])
		if len(token) >= 3 {
			v := token[3:]
			value = &v
		}
	}

	consumeNext, err := active.parseAndSet(token, hasDashDash, name, shorthand, value, next)
	if err != nil || !consumeNext {
		return 0, err
	}
	return 1, nil
}

// splitFlagValue splits "name=value". value is nil when there is no '='.
func splitFlagValue(s string) (string, *string) {
	if i := strings.IndexByte(s, '='); i >= 0 {
		v := s[i+1:]
		return s[:i], &v
	}
	return s, nil
}

func exitForHandlerError(root, cmd *Command, err error, errOut io.Writer) int {
	return exitFor(root, cmd, err, errOut, 1)
}

// exitForArgsError treats plain errors from an ArgsFunc as usage errors.
func exitForArgsError(root, cmd *Command, err error, errOut io.Writer) int {
	return exitFor(root, cmd, err, errOut, 2)
}

// exitFor reports err and returns the exit code: the ExitCoder's code if err has one, else fallback. Code 2 prints usage; code 0 prints nothing.
func exitFor(root, cmd *Command, err error, errOut io.Writer, fallback int) int {
	code := fallback
	var ec ExitCoder
	if errors.As(err, &ec) {
		code = ec.ExitCode()
	}
	switch code {
	case 0:
	case 2:
		printUsageError(root, cmd, err, errOut)
	default:
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(errOut, msg)
		}
	}
	return code
}

func printUsageError(root, cmd *Command, err error, errOut io.Writer) {
	msg := usageErrorMessage(err)
	if msg != "" {
		fmt.Fprintln(errOut, msg)
		fmt.Fprintln(errOut)
	}
	writeHelp(errOut, root, cmd)
}

func usageErrorMessage(err error) string {
	var ue UsageError
	if errors.As(err, &ue) && ue.Message != "" {
		return ue.Message
	}
	if err == nil {
		return ""
	}
	if errors.Is(err, errHelpPrinted) {
		return ""
	}
	return err.Error()
}
