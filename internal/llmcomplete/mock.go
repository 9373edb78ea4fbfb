package llmcomplete

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Mock is an offline Provider that replies with the value of any key contained in the prefix (case-insensitive). When several keys match, the one
// appearing latest in the prefix wins, then the longest.
type Mock struct {
	Responses map[string]string
	Default   string        // reply when no key matches; if empty, no match is an error
	Delay     time.Duration // simulated latency; honors ctx
}

var _ Provider = (*Mock)(nil)

// NewMock returns a Mock replying from responses.
func NewMock(responses map[string]string) *Mock {
	return &Mock{Responses: responses}
}

func (m *Mock) Complete(ctx context.Context, prefix, suffix string) (string, error) {
	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	lower := strings.ToLower(prefix)
	bestAt, bestKey := -1, ""
	for k := range m.Responses {
		at := strings.LastIndex(lower, strings.ToLower(k))
		if at < 0 {
			continue
		}
		if at > bestAt || (at == bestAt && len(k) > len(bestKey)) {
			bestAt, bestKey = at, k
		}
	}
	if bestAt >= 0 {
		return m.Responses[bestKey], nil
	}
	if m.Default != "" {
		return m.Default, nil
	}
	return "", fmt.Errorf("no mock response for %q", tail(prefix, 40))
}
