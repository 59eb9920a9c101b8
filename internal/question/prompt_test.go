package question

import (
	"strings"
	"testing"

	"github.com/stellarlinkco/chestbench/internal/casestore"
	"github.com/stellarlinkco/chestbench/internal/taxonomy"
)

func sampleRecord() *casestore.CaseRecord {
	return &casestore.CaseRecord{
		CaseID:       "42",
		History:      "Progressive dyspnea.",
		ImageFinding: "Bilateral infiltrates.",
		Diagnosis:    "ARDS",
		Figures: []casestore.Figure{
			{Subfigures: []casestore.Subfigure{
				{Number: "Figure 1", Caption: "Portable chest X-ray", URL: "https://example.org/42/1.jpg"},
			}},
		},
	}
}

func TestSelectSections(t *testing.T) {
	t.Run("renders sections with placeholders", func(t *testing.T) {
		got := SelectSections(sampleRecord(), taxonomy.DefaultSections)

		if !strings.Contains(got, "history:\nProgressive dyspnea.") {
			t.Fatalf("missing history block:\n%s", got)
		}
		if !strings.Contains(got, "discussion:\nNo discussion provided.") {
			t.Fatalf("missing discussion placeholder:\n%s", got)
		}
		if !strings.Contains(got, "figures:\nFigure 1: Portable chest X-ray") {
			t.Fatalf("missing figure line:\n%s", got)
		}
	})

	t.Run("unknown sections are skipped", func(t *testing.T) {
		got := SelectSections(sampleRecord(), []string{"history", "treatment"})
		if strings.Contains(got, "treatment") {
			t.Fatalf("unknown section leaked into output:\n%s", got)
		}
	})

	t.Run("section order follows the request", func(t *testing.T) {
		got := SelectSections(sampleRecord(), []string{"diagnosis", "history"})
		if strings.Index(got, "diagnosis:") > strings.Index(got, "history:") {
			t.Fatalf("requested order not preserved:\n%s", got)
		}
	})
}

func TestBuildPrompt(t *testing.T) {
	combo := []string{"detection", "reasoning"}
	got := BuildPrompt(sampleRecord(), taxonomy.DefaultSections, combo, "complex", "multiple choice (A/B/C/D/E/F)")

	if strings.Contains(got, "{{") {
		t.Fatalf("unreplaced placeholder in prompt:\n%s", got)
	}
	if !strings.Contains(got, "Create a complex multiple choice (A/B/C/D/E/F) clinical question") {
		t.Fatal("difficulty and type not substituted")
	}
	if !strings.Contains(got, "detection: ") || !strings.Contains(got, "reasoning: ") {
		t.Fatal("category descriptions not substituted")
	}
	for _, other := range []string{"enumeration: Count", "comparison: Compare", "diagnosis: Make a diagnosis"} {
		if strings.Contains(got, other) {
			t.Fatalf("unrequested category description %q leaked into prompt", other)
		}
	}
	if !strings.Contains(got, "history:\nProgressive dyspnea.") {
		t.Fatal("case content not substituted")
	}
	if !strings.Contains(got, "THOUGHTS:") || !strings.Contains(got, "ANSWER:") {
		t.Fatal("response format block missing")
	}
}
