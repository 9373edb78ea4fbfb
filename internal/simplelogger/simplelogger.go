// Package simplelogger builds the process *slog.Logger. Records are appended to a file; there is no rotation and nothing is kept open between writes.
package simplelogger

import (
	"log/slog"
	"os"
	"sync"
)

// EnvVar names the environment variable consulted by Path when no explicit path is given.
const EnvVar = "DRAFTER_LOG_FILE"

// Path returns explicit if non-empty, otherwise the value of EnvVar.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv(EnvVar)
}

// New returns a text logger appending to path at level. An empty path returns a logger that discards everything. Write failures (ex: path is a
// directory) are swallowed so logging never interrupts the editor.
func New(path string, level slog.Level) *slog.Logger {
	if path == "" {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(&appendFile{path: path}, &slog.HandlerOptions{Level: level}))
}

// appendFile opens, appends to, and closes path on every Write. Writes are serialized across all appendFiles in the process.
type appendFile struct {
	path string
}

var mu sync.Mutex

func (a *appendFile) Write(p []byte) (int, error) {
	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return len(p), nil
	}
	defer f.Close()

	_, _ = f.Write(p)
	return len(p), nil
}
