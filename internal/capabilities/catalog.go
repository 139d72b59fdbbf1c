package capabilities

import (
	"strings"
	"time"

	"vision-router/internal/dispatch"
)

// Degraded answers, one per capability.
const (
	NoTextDetected   = "No text detected in image"
	ImageNotFound    = "Image file not found"
	CaptionFailed    = "Unable to generate image caption"
	VQAFailed        = "Unable to answer visual question"
	MedicalFailed    = "Unable to perform medical analysis"
	SimOCRModelLabel = "PaddleOCR (Simple)"
)

const (
	ocrPrompt     = "Extract all readable text from this image. Reply with the text only."
	simOCRPrompt  = "Transcribe every piece of text in this image on a single line, separated by spaces."
	captionPrompt = "Describe this image in one short sentence."
	vqaDefault    = "What is shown in this image?"
	medicalPrompt = "This is a medical image. Name the most likely finding in one short sentence."
)

// RemoteHandlers builds the client-side handler set keyed by handler ID.
// The OCR endpoint falls back to the simple OCR endpoint.
func RemoteHandlers(baseURL string, timeout time.Duration) map[string]dispatch.Handler {
	simocr := NewRemoteHandler(baseURL, dispatch.HandlerSimOCR, dispatch.ModelSimOCR, NoTextDetected, timeout)
	ocr := NewRemoteHandler(baseURL, dispatch.HandlerOCR, dispatch.ModelPytesseract, NoTextDetected, timeout)
	ocr.Fallback = simocr

	return map[string]dispatch.Handler{
		dispatch.HandlerOCR:     ocr,
		dispatch.HandlerSimOCR:  simocr,
		dispatch.HandlerCaption: NewRemoteHandler(baseURL, dispatch.HandlerCaption, dispatch.ModelBLIP2, CaptionFailed, timeout),
		dispatch.HandlerVQA:     NewRemoteHandler(baseURL, dispatch.HandlerVQA, dispatch.ModelBLIP2, VQAFailed, timeout),
		dispatch.HandlerMedical: NewRemoteHandler(baseURL, dispatch.HandlerMedical, dispatch.ModelResNet50, MedicalFailed, timeout),
		dispatch.HandlerOther:   Unsupported{},
	}
}

// LocalHandlers builds the server-side handler set behind /task/:handler.
// A nil engine makes every capability answer with its degraded text.
func LocalHandlers(engine Engine, images Loader) map[string]dispatch.Handler {
	fixed := func(p string) func(dispatch.Input) string {
		return func(dispatch.Input) string { return p }
	}
	return map[string]dispatch.Handler{
		dispatch.HandlerOCR: &LocalHandler{
			Name:     dispatch.HandlerOCR,
			Model:    dispatch.ModelPytesseract,
			Degraded: NoTextDetected,
			NotFound: ImageNotFound,
			Prompt:   fixed(ocrPrompt),
			Engine:   engine,
			Images:   images,
		},
		dispatch.HandlerSimOCR: &LocalHandler{
			Name:     dispatch.HandlerSimOCR,
			Model:    SimOCRModelLabel,
			Degraded: NoTextDetected,
			Prompt:   fixed(simOCRPrompt),
			Engine:   engine,
			Images:   images,
		},
		dispatch.HandlerCaption: &LocalHandler{
			Name:     dispatch.HandlerCaption,
			Model:    dispatch.ModelBLIP2,
			Degraded: CaptionFailed,
			Prompt:   fixed(captionPrompt),
			Engine:   engine,
			Images:   images,
		},
		dispatch.HandlerVQA: &LocalHandler{
			Name:     dispatch.HandlerVQA,
			Model:    dispatch.ModelBLIP2,
			Degraded: VQAFailed,
			Prompt:   vqaPrompt,
			Engine:   engine,
			Images:   images,
		},
		dispatch.HandlerMedical: &LocalHandler{
			Name:     dispatch.HandlerMedical,
			Model:    dispatch.ModelResNet50,
			Degraded: MedicalFailed,
			Prompt:   medicalPromptFor,
			Engine:   engine,
			Images:   images,
		},
		dispatch.HandlerOther: Unsupported{},
	}
}

func vqaPrompt(in dispatch.Input) string {
	if q := strings.TrimSpace(in.Question); q != "" {
		return q
	}
	return vqaDefault
}

func medicalPromptFor(in dispatch.Input) string {
	if q := strings.TrimSpace(in.Question); q != "" {
		return medicalPrompt + "\nQuestion: " + q
	}
	return medicalPrompt
}
