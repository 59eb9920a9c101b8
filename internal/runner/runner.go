// Package runner drives the two batch pipelines: question generation over
// case records and benchmark evaluation over finished questions.
package runner

import (
	"regexp"
	"strings"
	"time"

	"github.com/stellarlinkco/chestbench/internal/llm"
)

// Summary accumulates one run's counters. Correct stays zero for
// generation runs.
type Summary struct {
	Processed int
	Skipped   int
	Errored   int
	Correct   int

	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Cost             float64

	StartedAt  time.Time
	FinishedAt time.Time
}

func (s *Summary) addUsage(u llm.Usage, cost float64) {
	s.PromptTokens += u.PromptTokens
	s.CompletionTokens += u.CompletionTokens
	s.TotalTokens += u.TotalTokens
	s.Cost += cost
}

// answerLetter matches a choice letter standing alone at the start of the
// reply, so "B) Right lower lobe" scores as B while prose such as "As shown,
// the answer is B" does not score as A.
var answerLetter = regexp.MustCompile(`^[A-F]\b`)

// AnswerMatches compares a raw model reply against the expected choice
// letter: the reply's leading standalone letter must equal it.
func AnswerMatches(model, correct string) bool {
	model = strings.ToUpper(strings.TrimSpace(model))
	correct = strings.ToUpper(strings.TrimSpace(correct))
	if correct == "" {
		return false
	}
	return answerLetter.FindString(model) == correct
}

type logfFunc func(format string, args ...any)

func logf(fn logfFunc, format string, args ...any) {
	if fn == nil {
		return
	}
	fn(format, args...)
}
