package question

import (
	"regexp"
	"strings"
)

// Labels is the ordered set of fields a model reply must carry. Extraction
// keys are the lowercased label names.
var Labels = []string{"THOUGHTS", "QUESTION", "FIGURES", "EXPLANATION", "ANSWER"}

// nextLabel marks where a field's value ends: a newline followed by an
// all-caps label and a colon.
var nextLabel = regexp.MustCompile(`\n[A-Z]+:`)

// Fields maps lowercased label names to extracted values. A nil value means
// the label was absent from the reply; that is a tolerated outcome, not an
// error.
type Fields map[string]*string

// Get returns the value for key, or nil when absent.
func (f Fields) Get(key string) *string {
	if f == nil {
		return nil
	}
	return f[strings.ToLower(strings.TrimSpace(key))]
}

// Extract scans raw independently for each label. A field's value is the
// trimmed text between "LABEL:" and the next all-caps label (or end of
// string). Fields may appear in any order; a missing label yields nil.
func Extract(raw string) Fields {
	return ExtractLabels(raw, Labels)
}

// ExtractLabels is Extract with an explicit label set.
func ExtractLabels(raw string, labels []string) Fields {
	out := make(Fields, len(labels))
	for _, label := range labels {
		out[strings.ToLower(label)] = extractOne(raw, label)
	}
	return out
}

func extractOne(raw, label string) *string {
	idx := strings.Index(raw, label+":")
	if idx < 0 {
		return nil
	}

	rest := raw[idx+len(label)+1:]
	if loc := nextLabel.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}
	value := strings.TrimSpace(rest)
	return &value
}
