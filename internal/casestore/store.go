// Package casestore loads Eurorad case metadata and provides lookup by
// case identifier.
package casestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Subfigure is one image within a figure group.
type Subfigure struct {
	Number  string `json:"number"`
	Caption string `json:"caption"`
	URL     string `json:"url"`
}

// Figure is one figure group with its subfigures.
type Figure struct {
	Subfigures []Subfigure `json:"subfigures"`
}

// CaseRecord is one clinical case. Records are immutable once loaded.
type CaseRecord struct {
	CaseID                string   `json:"case_id"`
	History               string   `json:"history"`
	ImageFinding          string   `json:"image_finding"`
	Discussion            string   `json:"discussion"`
	DifferentialDiagnosis string   `json:"differential_diagnosis"`
	Diagnosis             string   `json:"diagnosis"`
	Figures               []Figure `json:"figures"`
}

// Section returns the named text section, or "" if the case has no content
// for it. Figures are not a text section; see FigureLines.
func (r *CaseRecord) Section(name string) string {
	if r == nil {
		return ""
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "history":
		return r.History
	case "image_finding":
		return r.ImageFinding
	case "discussion":
		return r.Discussion
	case "differential_diagnosis":
		return r.DifferentialDiagnosis
	case "diagnosis":
		return r.Diagnosis
	default:
		return ""
	}
}

// FigureLines flattens every subfigure to one "number: caption" line.
func (r *CaseRecord) FigureLines() []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, fig := range r.Figures {
		for _, sub := range fig.Subfigures {
			out = append(out, sub.Number+": "+sub.Caption)
		}
	}
	return out
}

// Store is a read-only collection of case records keyed by case id.
type Store struct {
	cases map[string]*CaseRecord
}

// Load reads a case metadata JSON file (a map from case id to record).
func Load(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("casestore: empty metadata path")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("casestore: read %q: %w", path, err)
	}

	var raw map[string]*CaseRecord
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("casestore: parse %q: %w", path, err)
	}

	cases := make(map[string]*CaseRecord, len(raw))
	for id, rec := range raw {
		id = strings.TrimSpace(id)
		if id == "" || rec == nil {
			continue
		}
		if strings.TrimSpace(rec.CaseID) == "" {
			rec.CaseID = id
		}
		cases[id] = rec
	}
	return &Store{cases: cases}, nil
}

// Get returns the record for id, if present.
func (s *Store) Get(id string) (*CaseRecord, bool) {
	if s == nil {
		return nil, false
	}
	rec, ok := s.cases[strings.TrimSpace(id)]
	return rec, ok
}

// Len returns the number of cases.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.cases)
}

// IDs returns all case ids sorted numerically ascending. Non-numeric ids
// sort after numeric ones, lexically.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.cases))
	for id := range s.cases {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		a, aerr := strconv.Atoi(out[i])
		b, berr := strconv.Atoi(out[j])
		switch {
		case aerr == nil && berr == nil:
			return a < b
		case aerr == nil:
			return true
		case berr == nil:
			return false
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// FilterByCaption returns a new store keeping only cases where at least one
// subfigure caption contains one of the keywords, case-insensitively.
func (s *Store) FilterByCaption(keywords []string) *Store {
	if s == nil {
		return nil
	}
	if len(keywords) == 0 {
		return s
	}

	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}

	kept := make(map[string]*CaseRecord)
	for id, rec := range s.cases {
		if captionMatches(rec, lowered) {
			kept[id] = rec
		}
	}
	return &Store{cases: kept}
}

func captionMatches(rec *CaseRecord, keywords []string) bool {
	if rec == nil {
		return false
	}
	for _, fig := range rec.Figures {
		for _, sub := range fig.Subfigures {
			caption := strings.ToLower(sub.Caption)
			for _, kw := range keywords {
				if strings.Contains(caption, kw) {
					return true
				}
			}
		}
	}
	return false
}
