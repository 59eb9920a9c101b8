// Package usagelog records one JSON line per attempted work item: a
// completed model call, a skip, or an error. Entries are append-only and
// strictly ordered by attempt.
package usagelog

import (
	"time"

	"github.com/stellarlinkco/chestbench/internal/llm"
)

// Entry is one attempt record. Exactly one of the three shapes is used:
// completed (Duration/Usage/ModelAnswer set), skipped (Status="skipped" with
// Reason), or errored (Status="error" with Error).
type Entry struct {
	QuestionID  string  `json:"question_id,omitempty"`
	CaseID      string  `json:"case_id,omitempty"`
	Timestamp   string  `json:"timestamp"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`

	Duration      *float64   `json:"duration,omitempty"`
	Usage         *llm.Usage `json:"usage,omitempty"`
	ModelAnswer   *string    `json:"model_answer,omitempty"`
	CorrectAnswer *string    `json:"correct_answer,omitempty"`
	Cost          *float64   `json:"cost,omitempty"`

	Status string `json:"status,omitempty"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`

	Input map[string]any `json:"input,omitempty"`
}

// IsSkipped reports whether the entry records a skip.
func (e *Entry) IsSkipped() bool {
	return e != nil && e.Status == "skipped"
}

// IsError reports whether the entry records an exhausted-retry failure.
func (e *Entry) IsError() bool {
	return e != nil && e.Status == "error"
}

// Stamp formats t the way entries carry timestamps.
func Stamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// Seconds converts a duration to the fractional seconds entries carry.
func Seconds(d time.Duration) float64 {
	return float64(d.Milliseconds()) / 1000
}
