// Package taxonomy defines the fixed analytical categories, category
// combinations, and case sections used to steer question generation.
package taxonomy

import "strings"

// Category is one analytical capability a generated question can test.
type Category struct {
	Name        string
	Description string
}

// Categories lists every category in canonical order.
var Categories = []Category{
	{Name: "detection", Description: "Identify and locate specific findings in the chest X-ray."},
	{Name: "classification", Description: "Determine whether specific findings are present or absent in the chest X-ray."},
	{Name: "enumeration", Description: "Count the number of target findings in the chest X-ray."},
	{Name: "localization", Description: "Locate a given finding in the chest X-ray."},
	{Name: "comparison", Description: "Compare the size or position of a specific finding in the chest X-ray."},
	{Name: "relationship", Description: "Determine the relationship between two or more findings in the chest X-ray."},
	{Name: "diagnosis", Description: "Make a diagnosis or determine a treatment plan by interpreting the chest X-ray."},
	{Name: "characterization", Description: "Describe specific attributes (shape, density, margins, etc.) of findings."},
	{Name: "reasoning", Description: "Explain the medical rationale and thought process behind findings and conclusions."},
}

// Combinations are the fixed 4-element category subsets used to vary
// question complexity.
var Combinations = [][]string{
	{"detection", "localization", "characterization", "reasoning"},   // detailed finding analysis
	{"detection", "classification", "relationship", "reasoning"},     // pattern recognition and relations
	{"localization", "comparison", "relationship", "reasoning"},      // spatial understanding
	{"classification", "comparison", "diagnosis", "reasoning"},       // clinical decision making
	{"classification", "characterization", "diagnosis", "reasoning"}, // diagnostic characterization
}

// DefaultSections is the section order used when building case content.
var DefaultSections = []string{
	"history",
	"image_finding",
	"discussion",
	"differential_diagnosis",
	"diagnosis",
	"figures",
}

// Describe renders "name: description" lines for the requested categories
// only, in canonical taxonomy order. Unknown names are ignored.
func Describe(names []string) string {
	if len(names) == 0 {
		return ""
	}

	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		want[n] = struct{}{}
	}

	var sb strings.Builder
	for _, c := range Categories {
		if _, ok := want[c.Name]; !ok {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(c.Name)
		sb.WriteString(": ")
		sb.WriteString(c.Description)
	}
	return sb.String()
}

// Known reports whether name is a defined category.
func Known(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range Categories {
		if c.Name == name {
			return true
		}
	}
	return false
}
