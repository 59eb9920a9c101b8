package question

import (
	"strings"

	"github.com/stellarlinkco/chestbench/internal/casestore"
	"github.com/stellarlinkco/chestbench/internal/taxonomy"
)

// SystemPrompt is the instruction sent alongside every generation request.
const SystemPrompt = "You are an expert medical benchmark creation assistant.\n" +
	"Your goal is to generate questions that evaluate a multimodal medical AI agent's ability to interpret and reason about chest X-rays."

const promptTemplate = `You must follow these guidelines:
1. Questions must be answerable using only context and chest X-rays.
- Questions must explicitly mention the referenced figures
- Questions can only reference the chest X-ray figures

2. Questions must have unambiguous, verifiable answers, and should:
- Challenge the agent's analytical capabilities
- Require multi-step reasoning
- Test ability to make precise observations
- Evaluate capability to derive insights and findings from the chest X-ray

3. The agent has access to tools like classification, report generation, segmentation, grounding, visual question answering, etc. Your question should be complex to require the use of such tools.


Create a {{DIFFICULTY}} {{TYPE}} clinical question that integrates the following:

{{CATEGORY_DESCRIPTIONS}}

based on the following clinical case:

{{CASE_CONTENT}}

Do not use any information derived from the CT and MRI images. Do not provide any information and findings about the chest X-rays.
Your question should require the agent to derive insights and findings from the chest X-ray by itself.
Your answer should be verifiable directly in the context of the case.
You can only use the image findings that come from the chest X-ray figures.

Your response must follow this exact format:
THOUGHTS: [Think about different reasoning steps and tools the agent should use to answer the question]
QUESTION: [complete question with relevant context. Incorrect choices should be very close to the correct answer.]
FIGURES: [list of required figures, e.g. ["Figure 1", "Figure 2a"]]
EXPLANATION: [short explanation of why your answer is verifiable in the case]
ANSWER: [correct answer e.g. "A"]`

// sectionPlaceholders maps each known section to its missing-content text.
var sectionPlaceholders = map[string]string{
	"history":                "No history provided.",
	"image_finding":          "No findings provided.",
	"discussion":             "No discussion provided.",
	"differential_diagnosis": "No differential diagnosis provided.",
	"diagnosis":              "No diagnosis provided.",
	"figures":                "No figures provided.",
}

// BuildPrompt renders the generation prompt for one case and category
// combination. Pure function of its inputs.
func BuildPrompt(rec *casestore.CaseRecord, sections []string, categories []string, difficulty, questionType string) string {
	out := strings.ReplaceAll(promptTemplate, "{{DIFFICULTY}}", strings.TrimSpace(difficulty))
	out = strings.ReplaceAll(out, "{{TYPE}}", strings.TrimSpace(questionType))
	out = strings.ReplaceAll(out, "{{CATEGORY_DESCRIPTIONS}}", taxonomy.Describe(categories))
	out = strings.ReplaceAll(out, "{{CASE_CONTENT}}", SelectSections(rec, sections))
	return out
}

// SelectSections formats the requested case sections into paragraphs, one
// "section:\ncontent" block per section. A missing or empty section renders
// its fixed placeholder; unknown section names are skipped. Figure sections
// flatten every subfigure to one "number: caption" line.
func SelectSections(rec *casestore.CaseRecord, sections []string) string {
	var blocks []string
	for _, section := range sections {
		name := strings.ToLower(strings.TrimSpace(section))
		placeholder, ok := sectionPlaceholders[name]
		if !ok {
			continue
		}

		var content string
		if name == "figures" {
			if rec != nil {
				content = strings.Join(rec.FigureLines(), "\n")
			}
		} else {
			content = rec.Section(name)
		}
		if strings.TrimSpace(content) == "" {
			content = placeholder
		}

		blocks = append(blocks, name+":\n"+content)
	}
	return strings.Join(blocks, "\n\n")
}
