package analyze

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"vision-router/internal/classifier"
	"vision-router/internal/dispatch"
	"vision-router/internal/shared/metrics"
	"vision-router/internal/shared/storage/object"
	"vision-router/internal/shared/telemetry"
)

var (
	// ErrInvalidInput is returned for a missing question or file.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedImage is returned for anything but JPEG and PNG.
	ErrUnsupportedImage = errors.New("unsupported image type")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// Classifier resolves a question to a task label.
type Classifier interface {
	Resolve(ctx context.Context, req classifier.Request) classifier.Result
}

// Runner dispatches a labelled request.
type Runner interface {
	Run(ctx context.Context, req dispatch.Request) (dispatch.Outcome, error)
}

// Service runs one analysis end to end: store, classify, dispatch.
type Service struct {
	Store      object.Store
	Classifier Classifier
	Dispatcher Runner
	// Captioner, when set, supplies the image context for classification.
	Captioner dispatch.Handler
	Now       func() time.Time
}

// Input is one uploaded image plus question.
type Input struct {
	Question    string
	FileName    string
	ContentType string
	// Namespace groups uploads in storage, typically the client IP.
	Namespace string
	Body      io.Reader
}

// Analysis is the response of a completed run.
type Analysis struct {
	ID       string  `json:"id"`
	Task     string  `json:"task"`
	Question string  `json:"question"`
	FileName string  `json:"filename"`
	Result   string  `json:"result"`
	Latency  float64 `json:"latency"`
	Model    string  `json:"model"`
}

// Analyze saves the image, classifies the question and dispatches it.
func (s *Service) Analyze(ctx context.Context, in Input) (Analysis, error) {
	start := s.now()

	question := strings.TrimSpace(in.Question)
	if question == "" || in.FileName == "" || in.Body == nil {
		return Analysis{}, ErrInvalidInput
	}
	if !allowedTypes[mediaType(in.ContentType)] {
		return Analysis{}, ErrUnsupportedImage
	}

	body, sniffed, err := sniff(in.Body)
	if err != nil {
		return Analysis{}, fmt.Errorf("read image: %w", err)
	}
	if !allowedTypes[sniffed] {
		telemetry.Warn("analyze.content_mismatch", map[string]any{
			"declared": in.ContentType,
			"sniffed":  sniffed,
			"filename": in.FileName,
		})
		return Analysis{}, ErrUnsupportedImage
	}

	metrics.IncAnalyzeStarted()

	obj, err := s.Store.Save(ctx, in.Namespace, in.FileName, body)
	if err != nil {
		return Analysis{}, fmt.Errorf("save image: %w", err)
	}

	imageContext := s.imageContext(ctx, obj, question)

	resolved := s.Classifier.Resolve(ctx, classifier.Request{
		Question:     question,
		ImageContext: imageContext,
	})
	metrics.IncClassifierTier(resolved.Tier)

	outcome, err := s.Dispatcher.Run(ctx, dispatch.Request{
		Task:      resolved.Label,
		Question:  question,
		ImagePath: obj.Location,
		ImageKey:  obj.Key,
		Started:   start,
	})
	if err != nil {
		return Analysis{}, err
	}
	metrics.IncAnalyzeCompleted()

	telemetry.Info("analyze.completed", map[string]any{
		"id":      outcome.Entry.ID,
		"task":    outcome.Entry.Task,
		"tier":    resolved.Tier,
		"handler": outcome.Decision.HandlerID,
		"model":   outcome.Entry.Model,
		"latency": outcome.Result.LatencySeconds,
	})

	return Analysis{
		ID:       outcome.Entry.ID,
		Task:     outcome.Entry.Task,
		Question: question,
		FileName: path.Base(obj.Key),
		Result:   outcome.Result.ResultText,
		Latency:  outcome.Result.LatencySeconds,
		Model:    outcome.Entry.Model,
	}, nil
}

// imageContext captions the image when a captioner is configured and falls
// back to the stored file name.
func (s *Service) imageContext(ctx context.Context, obj object.Object, question string) string {
	fallback := "Image file: " + path.Base(obj.Key)
	if s.Captioner == nil {
		return fallback
	}
	res, err := s.Captioner.Handle(ctx, dispatch.Input{
		ImagePath: obj.Location,
		ImageKey:  obj.Key,
		Question:  question,
	})
	if err != nil || strings.TrimSpace(res.ResultText) == "" {
		telemetry.Warn("analyze.caption_context_failed", map[string]any{
			"key":   obj.Key,
			"error": err,
		})
		return fallback
	}
	return res.ResultText
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// sniff detects the content type from the leading bytes and returns a reader
// that still yields the whole body.
func sniff(r io.Reader) (io.Reader, string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, "", err
	}
	head = head[:n]
	return io.MultiReader(bytes.NewReader(head), r), http.DetectContentType(head), nil
}

func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
