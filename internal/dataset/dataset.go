// Package dataset loads finished benchmark questions from JSONL for
// evaluation runs.
package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Example is one evaluation item. Images and ImageSourceURLs keep their raw
// JSON shape (string, flat list, or nested figure groups); the payload
// builder flattens them.
type Example struct {
	QuestionID      string `json:"question_id"`
	CaseID          string `json:"case_id,omitempty"`
	Question        string `json:"question"`
	Explanation     string `json:"explanation,omitempty"`
	Answer          string `json:"answer"`
	Images          any    `json:"images,omitempty"`
	ImageSourceURLs any    `json:"image_source_urls,omitempty"`
}

// Load reads a JSONL dataset file. Blank lines are skipped; a malformed
// line fails the whole load with its line number.
func Load(path string) ([]Example, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("dataset: empty path")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)

	var out []Example
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var ex Example
		if err := json.Unmarshal([]byte(line), &ex); err != nil {
			return nil, fmt.Errorf("dataset: parse %q line %d: %w", path, lineNo, err)
		}
		if strings.TrimSpace(ex.Question) == "" {
			return nil, fmt.Errorf("dataset: %q line %d: missing question", path, lineNo)
		}
		out = append(out, ex)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dataset: scan %q: %w", path, err)
	}
	return out, nil
}

// Take returns at most n examples from the front. n <= 0 means all.
func Take(examples []Example, n int) []Example {
	if n <= 0 || n >= len(examples) {
		return examples
	}
	return examples[:n]
}

// ImageRefs picks the example's image references for the selected source:
// remote source URLs when useURLs is set, local references otherwise.
func (e *Example) ImageRefs(useURLs bool) any {
	if e == nil {
		return nil
	}
	if useURLs {
		return e.ImageSourceURLs
	}
	return e.Images
}
