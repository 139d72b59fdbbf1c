package dispatch

import (
	"math/rand"
	"sync"
	"time"

	"vision-router/internal/tasks"
)

// Handler IDs, also the path segment under /task/.
const (
	HandlerOCR     = "ocr"
	HandlerSimOCR  = "simocr"
	HandlerCaption = "caption"
	HandlerVQA     = "vqa"
	HandlerMedical = "medical"
	HandlerOther   = "other"
)

// Model identities recorded in logs and metrics.
const (
	ModelPytesseract = "pytesseract"
	ModelSimOCR      = "simocr"
	ModelBLIP2       = "BLIP-2"
	ModelResNet50    = "ResNet-50"
	ModelNone        = "None"
	ModelError       = "error"
)

// RandSource is the subset of *rand.Rand the table needs.
type RandSource interface {
	Intn(n int) int
}

// Decision is the routing outcome for one label.
type Decision struct {
	Task          tasks.Label `json:"task"`
	HandlerID     string      `json:"handler_id"`
	ModelIdentity string      `json:"model"`
}

type route struct {
	handlerID string
	model     string
}

var routes = map[tasks.Label]route{
	tasks.ImageCaptioning:     {HandlerCaption, ModelBLIP2},
	tasks.VisualQA:            {HandlerVQA, ModelBLIP2},
	tasks.ImageClassification: {HandlerOther, ModelNone},
	tasks.ObjectDetection:     {HandlerOther, ModelNone},
	tasks.StyleTransfer:       {HandlerOther, ModelNone},
	tasks.MedicalDiagnosis:    {HandlerMedical, ModelResNet50},
	tasks.Other:               {HandlerOther, ModelNone},
}

// OCR is split evenly between the two engines.
var ocrRoutes = [2]route{
	{HandlerOCR, ModelPytesseract},
	{HandlerSimOCR, ModelSimOCR},
}

// Table maps labels to handlers. The zero value uses a time-seeded source.
type Table struct {
	Rand RandSource
}

// NewTable builds a Table over src. A nil src gets a locked time-seeded source.
func NewTable(src RandSource) *Table {
	if src == nil {
		src = newLockedRand(time.Now().UnixNano())
	}
	return &Table{Rand: src}
}

// Decide returns the routing decision for label. Labels outside the
// vocabulary route like Other.
func (t *Table) Decide(label tasks.Label) Decision {
	if label == tasks.OCR {
		r := ocrRoutes[t.source().Intn(len(ocrRoutes))]
		return Decision{Task: label, HandlerID: r.handlerID, ModelIdentity: r.model}
	}
	r, ok := routes[label]
	if !ok {
		r = routes[tasks.Other]
	}
	return Decision{Task: label, HandlerID: r.handlerID, ModelIdentity: r.model}
}

// HandlerIDs lists every handler the table can route to.
func HandlerIDs() []string {
	return []string{HandlerOCR, HandlerSimOCR, HandlerCaption, HandlerVQA, HandlerMedical, HandlerOther}
}

var (
	defaultRandOnce sync.Once
	defaultRand     RandSource
)

func (t *Table) source() RandSource {
	if t.Rand != nil {
		return t.Rand
	}
	defaultRandOnce.Do(func() {
		defaultRand = newLockedRand(time.Now().UnixNano())
	})
	return defaultRand
}

// lockedRand guards a *rand.Rand, which is not safe for concurrent use.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newLockedRand(seed int64) *lockedRand {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
