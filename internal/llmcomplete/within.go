package llmcomplete

import (
	"context"
	"fmt"
	"time"
)

// ErrorMarker is inserted into the document in place of a completion that failed or took too long, so the writer sees the failure where they are
// looking and can retract it like any other draft.
const ErrorMarker = " error "

// DefaultTimeout is how long CompleteWithin waits when no timeout is given.
const DefaultTimeout = 2 * time.Second

// Result is the outcome of CompleteWithin. On failure Text is ErrorMarker and Err says why.
type Result struct {
	Text    string
	Err     error
	Elapsed time.Duration
}

// CompleteWithin calls p.Complete and waits at most timeout (DefaultTimeout if <= 0) for it. The call runs on its own goroutine with a context that is
// canceled when CompleteWithin returns; a provider that ignores cancellation is left to finish in the background and its answer is dropped.
func CompleteWithin(ctx context.Context, p Provider, prefix, suffix string, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("completion panicked: %v", r)}
			}
		}()
		text, err := p.Complete(ctx, prefix, suffix)
		done <- reply{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return Result{Text: ErrorMarker, Err: r.err, Elapsed: time.Since(start)}
		}
		return Result{Text: r.text, Elapsed: time.Since(start)}
	case <-ctx.Done():
		return Result{Text: ErrorMarker, Err: fmt.Errorf("completion timed out after %v: %w", timeout, ctx.Err()), Elapsed: time.Since(start)}
	}
}
