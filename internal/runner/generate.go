package runner

import (
	"context"
	"errors"
	"time"

	"github.com/stellarlinkco/chestbench/internal/casestore"
	"github.com/stellarlinkco/chestbench/internal/llm"
	"github.com/stellarlinkco/chestbench/internal/question"
	"github.com/stellarlinkco/chestbench/internal/taxonomy"
	"github.com/stellarlinkco/chestbench/internal/usagelog"
)

const (
	questionType       = "multiple choice (A/B/C/D/E/F)"
	questionDifficulty = "complex"
)

// GenerateRunner authors benchmark questions: for each selected case it
// renders one prompt per category combination, calls the model, extracts
// the labeled reply, and writes one question file.
type GenerateRunner struct {
	Store    *casestore.Store
	Provider llm.Provider
	Logger   *usagelog.Logger

	OutputDir string

	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int

	// SkipFirst excludes the newest N cases; MaxCases bounds how many of
	// the remaining newest cases are used (0 means all).
	SkipFirst int
	MaxCases  int

	Retry llm.RetryPolicy
	Logf  func(format string, args ...any)
}

// TargetCases selects case ids for the run: ids sort ascending, the newest
// SkipFirst are excluded, and the MaxCases immediately before them are
// taken, oldest first.
func (r *GenerateRunner) TargetCases() []string {
	if r == nil || r.Store == nil {
		return nil
	}
	ids := r.Store.IDs()

	end := len(ids) - r.SkipFirst
	if end <= 0 {
		return nil
	}
	start := 0
	if r.MaxCases > 0 && end-r.MaxCases > 0 {
		start = end - r.MaxCases
	}
	return ids[start:end]
}

// Run generates questions for every (case, combination) pair. A failed
// item is logged and counted, not fatal; context cancellation stops the
// run between items.
func (r *GenerateRunner) Run(ctx context.Context) (*Summary, error) {
	if r == nil {
		return nil, errors.New("runner: nil generate runner")
	}
	if r.Store == nil {
		return nil, errors.New("runner: nil case store")
	}
	if r.Provider == nil {
		return nil, errors.New("runner: nil provider")
	}
	if ctx == nil {
		return nil, errors.New("runner: nil context")
	}

	summary := &Summary{StartedAt: time.Now()}
	defer func() { summary.FinishedAt = time.Now() }()

	targets := r.TargetCases()
	logf(r.Logf, "generating questions for %d cases (%d combinations each)", len(targets), len(taxonomy.Combinations))

	for _, id := range targets {
		rec, ok := r.Store.Get(id)
		if !ok {
			continue
		}

		for _, combo := range taxonomy.Combinations {
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			if err := r.runOne(ctx, rec, combo, summary); err != nil {
				summary.Errored++
				logf(r.Logf, "case %s %v: %v", rec.CaseID, combo, err)
				continue
			}
			summary.Processed++
		}
	}

	logf(r.Logf, "generation finished: %d processed, %d errored", summary.Processed, summary.Errored)
	return summary, nil
}

func (r *GenerateRunner) runOne(ctx context.Context, rec *casestore.CaseRecord, combo []string, summary *Summary) error {
	q, err := question.New(rec, questionType, questionDifficulty, combo, taxonomy.DefaultSections)
	if err != nil {
		return err
	}

	req := &llm.Request{
		Model:       r.Model,
		System:      question.SystemPrompt,
		Parts:       []llm.Part{llm.TextPart(q.Prompt)},
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
		TopP:        r.TopP,
	}

	start := time.Now()
	resp, err := llm.Retry(ctx, r.Retry, func(ctx context.Context) (*llm.Response, error) {
		return r.Provider.Complete(ctx, req)
	})
	if err != nil {
		r.logEntry(&usagelog.Entry{
			QuestionID:  rec.CaseID + "_" + q.Fingerprint(),
			CaseID:      rec.CaseID,
			Timestamp:   usagelog.Stamp(time.Now()),
			Model:       r.Model,
			Temperature: r.Temperature,
			Status:      "error",
			Error:       err.Error(),
			Input:       map[string]any{"categories": combo},
		})
		return err
	}

	q.SetReply(resp.Text)
	duration := usagelog.Seconds(time.Since(start))
	summary.addUsage(resp.Usage, resp.Cost)
	usage := resp.Usage

	// The tokens are spent even if persistence fails, so a Save failure
	// still records the attempt with its usage.
	path, err := q.Save(r.OutputDir)
	if err != nil {
		r.logEntry(&usagelog.Entry{
			QuestionID:  rec.CaseID + "_" + q.Fingerprint(),
			CaseID:      rec.CaseID,
			Timestamp:   usagelog.Stamp(time.Now()),
			Model:       r.Model,
			Temperature: r.Temperature,
			Duration:    &duration,
			Usage:       &usage,
			Status:      "error",
			Error:       err.Error(),
			Input:       map[string]any{"categories": combo},
		})
		return err
	}

	r.logEntry(&usagelog.Entry{
		QuestionID:  rec.CaseID + "_" + q.Fingerprint(),
		CaseID:      rec.CaseID,
		Timestamp:   usagelog.Stamp(time.Now()),
		Model:       r.Model,
		Temperature: r.Temperature,
		Duration:    &duration,
		Usage:       &usage,
		Input:       map[string]any{"categories": combo},
	})

	logf(r.Logf, "saved %s", path)
	return nil
}

func (r *GenerateRunner) logEntry(e *usagelog.Entry) {
	if r.Logger == nil {
		return
	}
	if err := r.Logger.Write(e); err != nil {
		logf(r.Logf, "log write failed: %v", err)
	}
}
