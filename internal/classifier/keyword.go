package classifier

import (
	"strings"

	"vision-router/internal/tasks"
)

// KeywordRule maps a label to the substrings that select it.
type KeywordRule struct {
	Label    tasks.Label
	Keywords []string
}

// DefaultRules is the keyword table in evaluation order. Medical comes first
// because its vocabulary overlaps OCR ("read the patient's chart").
var DefaultRules = []KeywordRule{
	{Label: tasks.MedicalDiagnosis, Keywords: []string{"medical", "diagnosis", "health", "doctor", "patient", "disease", "condition", "symptoms", "diagnose"}},
	{Label: tasks.OCR, Keywords: []string{"text", "read", "extract", "ocr", "words", "letters", "characters", "document"}},
	{Label: tasks.ImageClassification, Keywords: []string{"classify", "category", "type", "kind", "sort", "group", "label"}},
	{Label: tasks.ObjectDetection, Keywords: []string{"objects", "items", "things", "find", "locate", "bounding box", "coordinates", "detect"}},
	{Label: tasks.StyleTransfer, Keywords: []string{"style", "art", "transform", "convert", "change style", "make it look like"}},
	{Label: tasks.ImageCaptioning, Keywords: []string{"describe", "caption", "what is this", "what do you see", "scene", "picture", "image"}},
	{Label: tasks.VisualQA, Keywords: []string{"what color", "how many", "count", "identify", "recognize"}},
}

var questionPrefixes = []string{"what", "where", "how"}

// KeywordClassifier is the terminal tier of the cascade. It never fails.
type KeywordClassifier struct {
	Rules []KeywordRule
}

// Classify returns the label of the first rule with a keyword contained in
// the question, then falls back to the open-question prefixes, then Other.
func (k KeywordClassifier) Classify(question string) tasks.Label {
	rules := k.Rules
	if rules == nil {
		rules = DefaultRules
	}
	q := strings.ToLower(question)
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(q, kw) {
				return rule.Label
			}
		}
	}
	for _, prefix := range questionPrefixes {
		if strings.HasPrefix(q, prefix) {
			return tasks.VisualQA
		}
	}
	return tasks.Other
}
