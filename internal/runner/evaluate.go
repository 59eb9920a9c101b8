package runner

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/stellarlinkco/chestbench/internal/dataset"
	"github.com/stellarlinkco/chestbench/internal/llm"
	"github.com/stellarlinkco/chestbench/internal/payload"
	"github.com/stellarlinkco/chestbench/internal/usagelog"
)

// EvalSystemPrompt constrains the model to bare choice letters.
const EvalSystemPrompt = "You are a medical imaging expert. Provide only the letter corresponding to your answer choice (A/B/C/D/E/F)."

const evalPromptTemplate = "Given the following medical case:\n" +
	"Please answer this multiple choice question:\n" +
	"{{QUESTION}}\n" +
	"Base your answer only on the provided images and case information."

// EvalPrompt renders the per-question evaluation prompt.
func EvalPrompt(q string) string {
	return strings.ReplaceAll(evalPromptTemplate, "{{QUESTION}}", strings.TrimSpace(q))
}

// EvalRunner scores a model over finished benchmark questions. Each item
// produces exactly one log entry: completed, skipped (no usable images),
// or errored (retries exhausted).
type EvalRunner struct {
	Provider llm.Provider
	Payload  *payload.Builder
	Logger   *usagelog.Logger

	Model       string
	Temperature float64
	MaxTokens   int
	UseURLs     bool

	Retry llm.RetryPolicy
	Logf  func(format string, args ...any)
}

// Run evaluates the examples in order. Items that fail after retries are
// logged and counted, then the run continues; context cancellation stops
// it between items.
func (r *EvalRunner) Run(ctx context.Context, examples []dataset.Example) (*Summary, error) {
	if r == nil {
		return nil, errors.New("runner: nil eval runner")
	}
	if r.Provider == nil {
		return nil, errors.New("runner: nil provider")
	}
	if r.Payload == nil {
		return nil, errors.New("runner: nil payload builder")
	}
	if ctx == nil {
		return nil, errors.New("runner: nil context")
	}

	summary := &Summary{StartedAt: time.Now()}
	defer func() { summary.FinishedAt = time.Now() }()

	logf(r.Logf, "evaluating %d questions with model %s", len(examples), r.Model)

	for i := range examples {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		r.runOne(ctx, &examples[i], summary)
	}

	logf(r.Logf, "evaluation finished: %d processed, %d skipped, %d errored, %d correct",
		summary.Processed, summary.Skipped, summary.Errored, summary.Correct)
	return summary, nil
}

func (r *EvalRunner) runOne(ctx context.Context, ex *dataset.Example, summary *Summary) {
	refs := ex.ImageRefs(r.UseURLs)
	input := map[string]any{
		"question":    ex.Question,
		"explanation": ex.Explanation,
		"images":      payload.Describe(ex.Images),
	}
	if r.UseURLs {
		input["image_source"] = payload.Describe(ex.ImageSourceURLs)
	}

	prompt := EvalPrompt(ex.Question)
	parts, err := r.Payload.Build(ctx, prompt, refs)
	if errors.Is(err, payload.ErrNoImages) {
		summary.Skipped++
		logf(r.Logf, "skipping %s: no usable images", ex.QuestionID)
		r.logEntry(&usagelog.Entry{
			QuestionID:  ex.QuestionID,
			CaseID:      ex.CaseID,
			Timestamp:   usagelog.Stamp(time.Now()),
			Model:       r.Model,
			Temperature: r.Temperature,
			Status:      "skipped",
			Reason:      "no_images",
			Input:       input,
		})
		return
	}
	if err != nil {
		summary.Errored++
		r.logError(ex, input, err)
		return
	}

	req := &llm.Request{
		Model:       r.Model,
		System:      EvalSystemPrompt,
		Parts:       parts,
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
	}

	start := time.Now()
	resp, err := llm.Retry(ctx, r.Retry, func(ctx context.Context) (*llm.Response, error) {
		return r.Provider.Complete(ctx, req)
	})
	if err != nil {
		summary.Errored++
		logf(r.Logf, "question %s failed: %v", ex.QuestionID, err)
		r.logError(ex, input, err)
		return
	}

	modelAnswer := strings.TrimSpace(resp.Text)
	correct := strings.TrimSpace(ex.Answer)
	if AnswerMatches(modelAnswer, correct) {
		summary.Correct++
	}
	summary.Processed++
	summary.addUsage(resp.Usage, resp.Cost)

	duration := usagelog.Seconds(time.Since(start))
	usage := resp.Usage
	entry := &usagelog.Entry{
		QuestionID:    ex.QuestionID,
		CaseID:        ex.CaseID,
		Timestamp:     usagelog.Stamp(time.Now()),
		Model:         r.Model,
		Temperature:   r.Temperature,
		Duration:      &duration,
		Usage:         &usage,
		ModelAnswer:   &modelAnswer,
		CorrectAnswer: &correct,
		Input:         input,
	}
	if resp.Cost != 0 {
		cost := resp.Cost
		entry.Cost = &cost
	}
	r.logEntry(entry)
}

func (r *EvalRunner) logError(ex *dataset.Example, input map[string]any, err error) {
	r.logEntry(&usagelog.Entry{
		QuestionID:  ex.QuestionID,
		CaseID:      ex.CaseID,
		Timestamp:   usagelog.Stamp(time.Now()),
		Model:       r.Model,
		Temperature: r.Temperature,
		Status:      "error",
		Error:       err.Error(),
		Input:       input,
	})
}

func (r *EvalRunner) logEntry(e *usagelog.Entry) {
	if r.Logger == nil {
		return
	}
	if err := r.Logger.Write(e); err != nil {
		logf(r.Logf, "log write failed: %v", err)
	}
}
