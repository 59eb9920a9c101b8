// Package question builds clinical benchmark questions from case records,
// parses the model's labeled reply, and persists the result per case.
package question

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stellarlinkco/chestbench/internal/casestore"
)

// Question binds one case to one category combination. The prompt is
// rendered eagerly at construction; RawContent and Content stay empty until
// a model call succeeds. A question is never mutated after persistence.
type Question struct {
	Type       string
	Difficulty string
	CaseID     string
	Categories []string
	Sections   []string

	CaseContent string
	Prompt      string

	RawContent string
	Content    Fields
}

// New constructs a question for one (case, category combination) pair and
// renders its case content and prompt.
func New(rec *casestore.CaseRecord, questionType, difficulty string, categories, sections []string) (*Question, error) {
	if rec == nil {
		return nil, errors.New("question: nil case record")
	}
	if strings.TrimSpace(rec.CaseID) == "" {
		return nil, errors.New("question: case record missing id")
	}
	if len(categories) == 0 {
		return nil, errors.New("question: empty category combination")
	}

	q := &Question{
		Type:        strings.TrimSpace(questionType),
		Difficulty:  strings.TrimSpace(difficulty),
		CaseID:      strings.TrimSpace(rec.CaseID),
		Categories:  categories,
		Sections:    sections,
		CaseContent: SelectSections(rec, sections),
	}
	q.Prompt = BuildPrompt(rec, sections, categories, q.Difficulty, q.Type)
	return q, nil
}

// SetReply records the raw model reply and extracts its labeled fields.
func (q *Question) SetReply(raw string) {
	if q == nil {
		return
	}
	q.RawContent = raw
	q.Content = Extract(raw)
}

// Fingerprint is a stable content hash of the rendered prompt and category
// combination, used as the output filename suffix. Identical inputs yield
// identical fingerprints across process restarts.
func (q *Question) Fingerprint() string {
	if q == nil {
		return ""
	}
	h := sha256.New()
	h.Write([]byte(q.Prompt))
	h.Write([]byte(strings.Join(q.Categories, ",")))
	return hex.EncodeToString(h.Sum(nil))[:12]
}

type fileMetadata struct {
	CaseID     string   `json:"case_id"`
	Type       string   `json:"type"`
	Difficulty string   `json:"difficulty"`
	Categories []string `json:"categories"`
	Sections   []string `json:"sections"`
}

type fileRecord struct {
	Thoughts    *string      `json:"thoughts"`
	Question    *string      `json:"question"`
	Figures     *string      `json:"figures"`
	Explanation *string      `json:"explanation"`
	Answer      *string      `json:"answer"`
	Metadata    fileMetadata `json:"metadata"`
}

// Save writes the extracted fields plus metadata to
// dir/<case_id>/<case_id>_<fingerprint>.json and returns the file path.
// It fails if extraction has not run yet; nil field values are written as
// JSON null.
func (q *Question) Save(dir string) (string, error) {
	if q == nil {
		return "", errors.New("question: nil question")
	}
	if q.Content == nil {
		return "", errors.New("question: no extracted content to save")
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", errors.New("question: empty output dir")
	}

	caseDir := filepath.Join(dir, q.CaseID)
	if err := os.MkdirAll(caseDir, 0o755); err != nil {
		return "", fmt.Errorf("question: create case dir: %w", err)
	}

	rec := fileRecord{
		Thoughts:    q.Content.Get("thoughts"),
		Question:    q.Content.Get("question"),
		Figures:     q.Content.Get("figures"),
		Explanation: q.Content.Get("explanation"),
		Answer:      q.Content.Get("answer"),
		Metadata: fileMetadata{
			CaseID:     q.CaseID,
			Type:       q.Type,
			Difficulty: q.Difficulty,
			Categories: q.Categories,
			Sections:   q.Sections,
		},
	}

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("question: marshal: %w", err)
	}

	path := filepath.Join(caseDir, fmt.Sprintf("%s_%s.json", q.CaseID, q.Fingerprint()))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("question: write %q: %w", path, err)
	}
	return path, nil
}
