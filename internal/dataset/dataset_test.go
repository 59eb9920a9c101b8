package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDataset(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeDataset(t,
		`{"question_id":"42_ab","case_id":"42","question":"Which lobe?","answer":"B","images":["figures/42_1a.jpg"]}`,
		``,
		`{"question_id":"43_cd","question":"How many nodules?","answer":"C","images":[["figures/43_1.jpg","figures/43_2.jpg"]],"image_source_urls":["https://example.org/43.jpg"]}`,
	)

	examples, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(examples) != 2 {
		t.Fatalf("got %d examples, want 2 (blank line skipped)", len(examples))
	}
	if examples[0].QuestionID != "42_ab" || examples[0].Answer != "B" {
		t.Fatalf("example 0 = %+v", examples[0])
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("malformed line reports line number", func(t *testing.T) {
		path := writeDataset(t,
			`{"question_id":"1","question":"q","answer":"A"}`,
			`{broken`,
		)
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "line 2") {
			t.Fatalf("err = %v, want line 2 mentioned", err)
		}
	})

	t.Run("missing question", func(t *testing.T) {
		path := writeDataset(t, `{"question_id":"1","answer":"A"}`)
		if _, err := Load(path); err == nil {
			t.Fatal("expected error for missing question")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.jsonl")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}

func TestTake(t *testing.T) {
	examples := []Example{{QuestionID: "1"}, {QuestionID: "2"}, {QuestionID: "3"}}
	if got := Take(examples, 2); len(got) != 2 {
		t.Fatalf("Take(2) = %d examples", len(got))
	}
	if got := Take(examples, 0); len(got) != 3 {
		t.Fatalf("Take(0) should keep all, got %d", len(got))
	}
	if got := Take(examples, 10); len(got) != 3 {
		t.Fatalf("Take beyond length should keep all, got %d", len(got))
	}
}

func TestImageRefs(t *testing.T) {
	ex := &Example{
		Images:          []any{"figures/1.jpg"},
		ImageSourceURLs: []any{"https://example.org/1.jpg"},
	}
	if refs := ex.ImageRefs(false); refs == nil {
		t.Fatal("local refs should be the images field")
	}
	urls, ok := ex.ImageRefs(true).([]any)
	if !ok || len(urls) != 1 || urls[0] != "https://example.org/1.jpg" {
		t.Fatalf("url refs = %v", ex.ImageRefs(true))
	}
}
