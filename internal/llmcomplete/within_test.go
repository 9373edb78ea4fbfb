package llmcomplete

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type funcProvider func(ctx context.Context, prefix, suffix string) (string, error)

func (f funcProvider) Complete(ctx context.Context, prefix, suffix string) (string, error) {
	return f(ctx, prefix, suffix)
}

func TestCompleteWithinSuccess(t *testing.T) {
	var gotPrefix, gotSuffix string
	p := funcProvider(func(ctx context.Context, prefix, suffix string) (string, error) {
		gotPrefix, gotSuffix = prefix, suffix
		return " sat", nil
	})

	res := CompleteWithin(context.Background(), p, "The cat", " on the mat", time.Second)
	assert.NoError(t, res.Err)
	assert.Equal(t, " sat", res.Text)
	assert.Equal(t, "The cat", gotPrefix)
	assert.Equal(t, " on the mat", gotSuffix)
}

func TestCompleteWithinError(t *testing.T) {
	boom := errors.New("boom")
	p := funcProvider(func(ctx context.Context, prefix, suffix string) (string, error) {
		return "ignored", boom
	})

	res := CompleteWithin(context.Background(), p, "x", "", time.Second)
	assert.ErrorIs(t, res.Err, boom)
	assert.Equal(t, ErrorMarker, res.Text)
}

func TestCompleteWithinTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	p := funcProvider(func(ctx context.Context, prefix, suffix string) (string, error) {
		<-release // ignores ctx
		return "late", nil
	})

	start := time.Now()
	res := CompleteWithin(context.Background(), p, "x", "", 20*time.Millisecond)
	assert.Less(t, time.Since(start), time.Second)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Equal(t, " error ", res.Text)
}

func TestCompleteWithinCancelsProvider(t *testing.T) {
	canceled := make(chan struct{})
	p := funcProvider(func(ctx context.Context, prefix, suffix string) (string, error) {
		<-ctx.Done()
		close(canceled)
		return "", ctx.Err()
	})

	res := CompleteWithin(context.Background(), p, "x", "", 10*time.Millisecond)
	assert.Equal(t, ErrorMarker, res.Text)
	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("provider context was not canceled")
	}
}

func TestCompleteWithinPanic(t *testing.T) {
	p := funcProvider(func(ctx context.Context, prefix, suffix string) (string, error) {
		panic("bad provider")
	})

	res := CompleteWithin(context.Background(), p, "x", "", time.Second)
	assert.Error(t, res.Err)
	assert.Equal(t, ErrorMarker, res.Text)
}

func TestCompleteWithinMock(t *testing.T) {
	m := &Mock{Default: " lorem", Delay: time.Hour}
	res := CompleteWithin(context.Background(), m, "x", "", 10*time.Millisecond)
	assert.Equal(t, ErrorMarker, res.Text)

	m.Delay = 0
	res = CompleteWithin(context.Background(), m, "x", "", 0)
	assert.NoError(t, res.Err)
	assert.Equal(t, " lorem", res.Text)
}

func TestCompleteWithinDefaultTimeout(t *testing.T) {
	var remaining time.Duration
	p := funcProvider(func(ctx context.Context, prefix, suffix string) (string, error) {
		deadline, ok := ctx.Deadline()
		if !ok {
			return "", errors.New("no deadline")
		}
		remaining = time.Until(deadline)
		return "ok", nil
	})

	res := CompleteWithin(context.Background(), p, "x", "", 0)
	assert.NoError(t, res.Err)
	assert.LessOrEqual(t, remaining, DefaultTimeout)
	assert.Greater(t, remaining, DefaultTimeout-time.Second)
}
