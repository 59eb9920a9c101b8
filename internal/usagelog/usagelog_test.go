package usagelog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stellarlinkco/chestbench/internal/llm"
)

func TestLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	started := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	lg, err := Open(dir, "gpt-4o", started)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	wantName := "gpt-4o_20250314_092653.json"
	if filepath.Base(lg.Path()) != wantName {
		t.Fatalf("log name = %q, want %q", filepath.Base(lg.Path()), wantName)
	}

	duration := 1.25
	answer := "B"
	correct := "B"
	entries := []*Entry{
		{
			QuestionID:    "42_abc123def456",
			Timestamp:     Stamp(started),
			Model:         "gpt-4o",
			Temperature:   0.2,
			Duration:      &duration,
			Usage:         &llm.Usage{PromptTokens: 100, CompletionTokens: 5, TotalTokens: 105},
			ModelAnswer:   &answer,
			CorrectAnswer: &correct,
		},
		{
			QuestionID:  "43_000000000000",
			Timestamp:   Stamp(started),
			Model:       "gpt-4o",
			Temperature: 0.2,
			Status:      "skipped",
			Reason:      "no_images",
		},
		{
			QuestionID:  "44_ffffffffffff",
			Timestamp:   Stamp(started),
			Model:       "gpt-4o",
			Temperature: 0.2,
			Status:      "error",
			Error:       "rate limited",
		},
	}
	for _, e := range entries {
		if err := lg.Write(e); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := lg.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, skipped, err := ReadEntries(lg.Path())
	if err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	if got[0].Usage == nil || got[0].Usage.TotalTokens != 105 {
		t.Fatalf("usage = %+v", got[0].Usage)
	}
	if !got[1].IsSkipped() || got[1].Reason != "no_images" {
		t.Fatalf("entry 1 = %+v, want skipped", got[1])
	}
	if !got[2].IsError() || got[2].Error != "rate limited" {
		t.Fatalf("entry 2 = %+v, want error", got[2])
	}
}

func TestReadEntriesTolerance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.json")
	content := strings.Join([]string{
		`{"question_id":"1","timestamp":"t","model":"m","temperature":0.2}`,
		`HTTP Request: POST https://api.example.org/v1/chat/completions "200 OK"`,
		``,
		`{broken json`,
		`{"question_id":"2","timestamp":"t","model":"m","temperature":0.2,"status":"skipped","reason":"no_images"}`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	entries, skipped, err := ReadEntries(path)
	if err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if skipped != 2 {
		t.Fatalf("skipped = %d, want 2 (HTTP line and broken json)", skipped)
	}
	if entries[0].QuestionID != "1" || entries[1].QuestionID != "2" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestLatestLog(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "gpt-4o_20250101_000000.json")
	newer := filepath.Join(dir, "gpt-4o_20250601_000000.json")
	for _, p := range []string{older, newer} {
		if err := os.WriteFile(p, []byte("{}\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	now := time.Now()
	if err := os.Chtimes(older, now.Add(-time.Hour), now.Add(-time.Hour)); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := os.Chtimes(newer, now, now); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	got, err := LatestLog(dir, "gpt-4o_*.json")
	if err != nil {
		t.Fatalf("LatestLog: %v", err)
	}
	if got != newer {
		t.Fatalf("LatestLog = %q, want %q", got, newer)
	}

	if _, err := LatestLog(dir, "claude_*.json"); err == nil {
		t.Fatal("expected error when nothing matches")
	}
}

func TestOpenRejectsEmptyPrefix(t *testing.T) {
	if _, err := Open(t.TempDir(), "  ", time.Now()); err == nil {
		t.Fatal("expected error for blank prefix")
	}
}
