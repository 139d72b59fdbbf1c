package tasks

import "testing"

func TestNormalizeSingleLabel(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Label
	}{
		{name: "ocr", raw: "OCR", want: OCR},
		{name: "caption with punctuation", raw: "Task: Image Captioning.", want: ImageCaptioning},
		{name: "vqa lower", raw: "visual qa", want: VisualQA},
		{name: "classification", raw: "I think Image Classification!", want: ImageClassification},
		{name: "detection", raw: "object detection?", want: ObjectDetection},
		{name: "style", raw: "  Style Transfer ", want: StyleTransfer},
		{name: "medical", raw: "Medical Diagnosis, clearly", want: MedicalDiagnosis},
		{name: "other", raw: "Other", want: Other},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeMultipleLabelsUsesDeclarationOrder(t *testing.T) {
	tests := []struct {
		raw  string
		want Label
	}{
		{raw: "Medical Diagnosis or OCR", want: OCR},
		{raw: "Style Transfer, maybe Visual QA", want: VisualQA},
		{raw: "object detection then image captioning", want: ImageCaptioning},
		{raw: "Other than Image Classification", want: ImageClassification},
	}
	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeNoMatchIsOther(t *testing.T) {
	for _, raw := range []string{"", "banana", "captioning", "Error: API call failed with status 500"} {
		if got := Normalize(raw); got != Other {
			t.Fatalf("Normalize(%q) = %q, want Other", raw, got)
		}
	}
}

func TestNormalizeAlwaysInVocabulary(t *testing.T) {
	inputs := []string{"OCR!!", "???", "visual-qa", "IMAGE CAPTIONING", "medical diagnosis."}
	for _, raw := range inputs {
		if got := Normalize(raw); !got.Valid() {
			t.Fatalf("Normalize(%q) produced out-of-vocabulary %q", raw, got)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		raw    string
		want   Label
		wantOK bool
	}{
		{raw: "Visual QA", want: VisualQA, wantOK: true},
		{raw: "visualqa", want: VisualQA, wantOK: true},
		{raw: "MedicalDiagnosis", want: MedicalDiagnosis, wantOK: true},
		{raw: "image_captioning", want: ImageCaptioning, wantOK: true},
		{raw: "ocr", want: OCR, wantOK: true},
		{raw: "segmentation", wantOK: false},
		{raw: "  ", wantOK: false},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.raw)
		if ok != tt.wantOK || got != tt.want {
			t.Fatalf("Parse(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	labels := All()
	if len(labels) != 8 {
		t.Fatalf("expected 8 labels, got %d", len(labels))
	}
	labels[0] = "mutated"
	if All()[0] != OCR {
		t.Fatalf("All must not expose internal slice")
	}
}
