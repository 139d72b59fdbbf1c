package completion

import (
	"strings"

	"vision-router/internal/classifier"
	"vision-router/internal/tasks"
)

// ModelName identifies this endpoint in responses.
const ModelName = "qwen-api"

// predictRules mirror the rule-based stand-in model. Unlike the keyword
// tier, OCR is checked before everything and medical comes last.
var predictRules = []classifier.KeywordRule{
	{Label: tasks.OCR, Keywords: []string{"text", "read", "extract", "ocr", "words"}},
	{Label: tasks.ImageCaptioning, Keywords: []string{"describe", "caption", "what is this"}},
	{Label: tasks.VisualQA, Keywords: []string{"what color", "how many", "count"}},
	{Label: tasks.ImageClassification, Keywords: []string{"classify", "category", "type"}},
	{Label: tasks.ObjectDetection, Keywords: []string{"objects", "items", "detect"}},
	{Label: tasks.StyleTransfer, Keywords: []string{"style", "art", "transform"}},
	{Label: tasks.MedicalDiagnosis, Keywords: []string{"medical", "diagnosis", "health"}},
}

// Predict answers a completion prompt with a task label.
func Predict(prompt string) tasks.Label {
	p := strings.ToLower(questionOf(prompt))
	for _, rule := range predictRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(p, kw) {
				return rule.Label
			}
		}
	}
	return tasks.Other
}

// questionOf pulls the question line out of a classification prompt so the
// option list ("- OCR", ...) does not match every rule. Free-form prompts
// are used whole.
func questionOf(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, "Question:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return prompt
}
