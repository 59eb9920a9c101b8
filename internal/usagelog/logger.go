package usagelog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// fileTimestamp names a run's log file after its start time.
const fileTimestamp = "20060102_150405"

// Logger owns one run-scoped log file for the run's duration. The file is
// opened in append mode once and never reopened or truncated mid-run. The
// batch runner drives one attempt at a time; the mutex only guards against
// a surrounding system adding concurrency later.
type Logger struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// Open creates the run's log file under dir, named from prefix and the
// run's start timestamp.
func Open(dir, prefix string, startedAt time.Time) (*Logger, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, errors.New("usagelog: empty log prefix")
	}
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	dir = strings.TrimSpace(dir)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("usagelog: create log dir: %w", err)
		}
	}

	name := fmt.Sprintf("%s_%s.json", prefix, startedAt.Format(fileTimestamp))
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("usagelog: open %q: %w", path, err)
	}
	return &Logger{f: f, path: path}, nil
}

// Path returns the log file path.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Write appends one entry as a single JSON line and returns only after the
// line is handed to the file. Exactly one call per attempt.
func (l *Logger) Write(e *Entry) error {
	if l == nil || l.f == nil {
		return errors.New("usagelog: nil logger")
	}
	if e == nil {
		return errors.New("usagelog: nil entry")
	}

	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("usagelog: marshal entry: %w", err)
	}
	b = append(b, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.Write(b); err != nil {
		return fmt.Errorf("usagelog: write entry: %w", err)
	}
	return nil
}

// Close flushes and releases the log file. The logger is unusable after.
func (l *Logger) Close() error {
	if l == nil || l.f == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.f.Sync()
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
