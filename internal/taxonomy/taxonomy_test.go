package taxonomy

import (
	"strings"
	"testing"
)

func TestCombinationsUseKnownCategories(t *testing.T) {
	for i, combo := range Combinations {
		if len(combo) != 4 {
			t.Fatalf("combination %d has %d categories, want 4", i, len(combo))
		}
		for _, name := range combo {
			if !Known(name) {
				t.Fatalf("combination %d references unknown category %q", i, name)
			}
		}
		if combo[len(combo)-1] != "reasoning" {
			t.Fatalf("combination %d does not end with reasoning: %v", i, combo)
		}
	}
}

func TestDescribe(t *testing.T) {
	t.Run("renders requested categories in canonical order", func(t *testing.T) {
		got := Describe([]string{"reasoning", "detection"})
		lines := strings.Split(got, "\n")
		if len(lines) != 2 {
			t.Fatalf("got %d lines, want 2: %q", len(lines), got)
		}
		if !strings.HasPrefix(lines[0], "detection: ") {
			t.Fatalf("first line = %q, want detection first", lines[0])
		}
		if !strings.HasPrefix(lines[1], "reasoning: ") {
			t.Fatalf("second line = %q, want reasoning second", lines[1])
		}
	})

	t.Run("ignores unknown names", func(t *testing.T) {
		if got := Describe([]string{"bogus"}); got != "" {
			t.Fatalf("got %q, want empty", got)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := Describe(nil); got != "" {
			t.Fatalf("got %q, want empty", got)
		}
	})
}

func TestKnown(t *testing.T) {
	if !Known("Diagnosis") {
		t.Fatal("Known should be case-insensitive")
	}
	if Known("surgery") {
		t.Fatal("surgery should not be a known category")
	}
}
