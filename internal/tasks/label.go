package tasks

import "strings"

// Label is one of the canonical visual-AI task categories.
type Label string

const (
	OCR                 Label = "OCR"
	ImageCaptioning     Label = "Image Captioning"
	VisualQA            Label = "Visual QA"
	ImageClassification Label = "Image Classification"
	ObjectDetection     Label = "Object Detection"
	StyleTransfer       Label = "Style Transfer"
	MedicalDiagnosis    Label = "Medical Diagnosis"
	Other               Label = "Other"
)

// all is the declaration order. Normalize relies on it as the tie-break.
var all = []Label{
	OCR,
	ImageCaptioning,
	VisualQA,
	ImageClassification,
	ObjectDetection,
	StyleTransfer,
	MedicalDiagnosis,
	Other,
}

// All returns the vocabulary in declaration order.
func All() []Label {
	out := make([]Label, len(all))
	copy(out, all)
	return out
}

// String returns the display string.
func (l Label) String() string {
	return string(l)
}

// Valid reports whether l is part of the vocabulary.
func (l Label) Valid() bool {
	_, ok := Parse(string(l))
	return ok
}

// Parse maps a display string ("Visual QA") or identifier ("VisualQA"),
// case-insensitively, to a Label.
func Parse(raw string) (Label, bool) {
	key := compact(raw)
	if key == "" {
		return "", false
	}
	for _, l := range all {
		if compact(string(l)) == key {
			return l, true
		}
	}
	return "", false
}

func compact(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}
