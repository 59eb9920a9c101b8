package usagelog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadEntries parses a log file into entries. Lines that do not start a
// JSON object (transport diagnostics such as "HTTP ...") are skipped, as
// are lines that fail to parse; the skipped count is returned alongside.
func ReadEntries(path string) ([]Entry, int, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, 0, errors.New("usagelog: empty log path")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("usagelog: open %q: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var out []Entry
	skipped := 0
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if line[0] != '{' {
			skipped++
			continue
		}

		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			skipped++
			continue
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return out, skipped, fmt.Errorf("usagelog: scan %q: %w", path, err)
	}
	return out, skipped, nil
}

// LatestLog finds the most recently modified log file in dir matching the
// glob pattern (e.g. "gpt-4o_*.json").
func LatestLog(dir, pattern string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "."
	}
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		pattern = "*.json"
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("usagelog: glob: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("usagelog: no log files matching %q in %q", pattern, dir)
	}

	latest := ""
	var latestMod int64
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if mod := info.ModTime().UnixNano(); latest == "" || mod > latestMod {
			latest = m
			latestMod = mod
		}
	}
	if latest == "" {
		return "", fmt.Errorf("usagelog: no readable log files in %q", dir)
	}
	return latest, nil
}
