package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stellarlinkco/chestbench/internal/casestore"
	"github.com/stellarlinkco/chestbench/internal/llm"
	"github.com/stellarlinkco/chestbench/internal/taxonomy"
	"github.com/stellarlinkco/chestbench/internal/usagelog"
)

type fakeProvider struct {
	name  string
	calls int
	fn    func(req *llm.Request) (*llm.Response, error)
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	p.calls++
	if p.fn == nil {
		return &llm.Response{Text: "ANSWER: A"}, nil
	}
	return p.fn(req)
}

var fastRetry = llm.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

func storeWithCases(t *testing.T, ids ...string) *casestore.Store {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("{")
	for i, id := range ids {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `%q: {"history": "History for case %s.", "diagnosis": "Dx %s"}`, id, id, id)
	}
	sb.WriteString("}")

	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	store, err := casestore.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return store
}

func TestTargetCases(t *testing.T) {
	store := storeWithCases(t, "1", "2", "3", "4", "5")

	t.Run("skip newest then take window", func(t *testing.T) {
		r := &GenerateRunner{Store: store, SkipFirst: 1, MaxCases: 2}
		want := []string{"3", "4"}
		if got := r.TargetCases(); !reflect.DeepEqual(got, want) {
			t.Fatalf("TargetCases = %v, want %v", got, want)
		}
	})

	t.Run("no limit takes everything below the skip window", func(t *testing.T) {
		r := &GenerateRunner{Store: store, SkipFirst: 2}
		want := []string{"1", "2", "3"}
		if got := r.TargetCases(); !reflect.DeepEqual(got, want) {
			t.Fatalf("TargetCases = %v, want %v", got, want)
		}
	})

	t.Run("skip larger than store", func(t *testing.T) {
		r := &GenerateRunner{Store: store, SkipFirst: 10}
		if got := r.TargetCases(); len(got) != 0 {
			t.Fatalf("TargetCases = %v, want empty", got)
		}
	})
}

func TestGenerateRun(t *testing.T) {
	store := storeWithCases(t, "1", "2", "3")
	outDir := t.TempDir()

	reply := "THOUGHTS: locate the finding\nQUESTION: Which lobe?\nFIGURES: [\"Figure 1\"]\nEXPLANATION: stated in findings\nANSWER: B"
	provider := &fakeProvider{name: "fake", fn: func(req *llm.Request) (*llm.Response, error) {
		if req.System == "" {
			t.Error("generation request missing system prompt")
		}
		if len(req.Parts) != 1 || req.Parts[0].Type != "text" {
			t.Errorf("generation request parts = %+v", req.Parts)
		}
		return &llm.Response{Text: reply, Usage: llm.Usage{PromptTokens: 50, CompletionTokens: 20, TotalTokens: 70}}, nil
	}}

	r := &GenerateRunner{
		Store:     store,
		Provider:  provider,
		OutputDir: outDir,
		Model:     "gpt-4o",
		MaxCases:  2,
		Retry:     fastRetry,
	}

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantItems := 2 * len(taxonomy.Combinations)
	if summary.Processed != wantItems {
		t.Fatalf("Processed = %d, want %d", summary.Processed, wantItems)
	}
	if summary.Errored != 0 {
		t.Fatalf("Errored = %d", summary.Errored)
	}
	if summary.TotalTokens != 70*wantItems {
		t.Fatalf("TotalTokens = %d, want %d", summary.TotalTokens, 70*wantItems)
	}

	for _, id := range []string{"2", "3"} {
		files, err := os.ReadDir(filepath.Join(outDir, id))
		if err != nil {
			t.Fatalf("read case dir %s: %v", id, err)
		}
		if len(files) != len(taxonomy.Combinations) {
			t.Fatalf("case %s has %d files, want %d", id, len(files), len(taxonomy.Combinations))
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "1")); !os.IsNotExist(err) {
		t.Fatal("case 1 is outside the window and should have no output")
	}
}

func TestGenerateRunContinuesAfterFailures(t *testing.T) {
	store := storeWithCases(t, "1")
	provider := &fakeProvider{name: "flaky", fn: func(req *llm.Request) (*llm.Response, error) {
		return nil, errors.New("boom")
	}}

	r := &GenerateRunner{
		Store:     store,
		Provider:  provider,
		OutputDir: t.TempDir(),
		Model:     "gpt-4o",
		Retry:     fastRetry,
	}

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run should not fail the whole batch: %v", err)
	}
	if summary.Errored != len(taxonomy.Combinations) {
		t.Fatalf("Errored = %d, want %d", summary.Errored, len(taxonomy.Combinations))
	}
	if summary.Processed != 0 {
		t.Fatalf("Processed = %d, want 0", summary.Processed)
	}
}

func TestGenerateRunLogsSaveFailures(t *testing.T) {
	store := storeWithCases(t, "1")

	// A regular file where the output directory should be makes every
	// Save fail after the model call has already succeeded.
	outDir := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(outDir, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker file: %v", err)
	}

	logger, err := usagelog.Open(t.TempDir(), "generation", time.Now())
	if err != nil {
		t.Fatalf("open logger: %v", err)
	}
	defer logger.Close()

	provider := &fakeProvider{name: "fake", fn: func(req *llm.Request) (*llm.Response, error) {
		return &llm.Response{
			Text:  "QUESTION: q\nANSWER: A",
			Usage: llm.Usage{PromptTokens: 50, CompletionTokens: 20, TotalTokens: 70},
		}, nil
	}}

	r := &GenerateRunner{
		Store:     store,
		Provider:  provider,
		Logger:    logger,
		OutputDir: outDir,
		Model:     "gpt-4o",
		Retry:     fastRetry,
	}

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Errored != len(taxonomy.Combinations) || summary.Processed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.TotalTokens != 70*len(taxonomy.Combinations) {
		t.Fatalf("TotalTokens = %d, tokens were spent and must be counted", summary.TotalTokens)
	}

	entries, _, err := usagelog.ReadEntries(logger.Path())
	if err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}
	if len(entries) != len(taxonomy.Combinations) {
		t.Fatalf("got %d log entries for %d attempts, want one per attempt",
			len(entries), len(taxonomy.Combinations))
	}
	for i := range entries {
		if !entries[i].IsError() {
			t.Fatalf("entry %d = %+v, want error status", i, entries[i])
		}
		if entries[i].Usage == nil || entries[i].Usage.TotalTokens != 70 {
			t.Fatalf("entry %d should carry the usage of the paid call: %+v", i, entries[i])
		}
	}
}

func TestGenerateRunStopsOnCancel(t *testing.T) {
	store := storeWithCases(t, "1", "2")
	ctx, cancel := context.WithCancel(context.Background())

	provider := &fakeProvider{name: "fake", fn: func(req *llm.Request) (*llm.Response, error) {
		cancel()
		return &llm.Response{Text: "ANSWER: A"}, nil
	}}

	r := &GenerateRunner{
		Store:     store,
		Provider:  provider,
		OutputDir: t.TempDir(),
		Model:     "gpt-4o",
		Retry:     fastRetry,
	}

	summary, err := r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if summary == nil {
		t.Fatal("partial summary should be returned on cancellation")
	}
	if provider.calls != 1 {
		t.Fatalf("calls = %d, want 1 (stop between items)", provider.calls)
	}
}
