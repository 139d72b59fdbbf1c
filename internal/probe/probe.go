package probe

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single existence probe.
const DefaultTimeout = 5 * time.Second

// Prober checks candidate URLs with HEAD requests.
type Prober struct {
	Client  *http.Client
	Timeout time.Duration
}

// New constructs a Prober with the given per-probe timeout.
func New(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{
		Client:  &http.Client{},
		Timeout: timeout,
	}
}

// Report is the outcome of probing one URL.
type Report struct {
	URL            string  `json:"url"`
	Reachable      bool    `json:"reachable"`
	StatusCode     int     `json:"status_code,omitempty"`
	LatencySeconds float64 `json:"latency"`
	Error          string  `json:"error,omitempty"`
}

// FindReachable probes urls in order and returns the first one answering
// with a status below 500. Later candidates are not probed once one answers.
func (p *Prober) FindReachable(ctx context.Context, urls []string) (string, bool) {
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", false
		}
		if r := p.probe(ctx, u); r.Reachable {
			return u, true
		}
	}
	return "", false
}

// Check probes every candidate and reports each result.
func (p *Prober) Check(ctx context.Context, urls []string) []Report {
	reports := make([]Report, 0, len(urls))
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			continue
		}
		reports = append(reports, p.probe(ctx, u))
	}
	return reports
}

func (p *Prober) probe(ctx context.Context, url string) Report {
	start := time.Now()
	report := Report{URL: url}

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, url, nil)
	if err != nil {
		report.Error = err.Error()
		report.LatencySeconds = time.Since(start).Seconds()
		return report
	}
	resp, err := p.client().Do(req)
	report.LatencySeconds = time.Since(start).Seconds()
	if err != nil {
		report.Error = err.Error()
		return report
	}
	resp.Body.Close()

	report.StatusCode = resp.StatusCode
	report.Reachable = resp.StatusCode < http.StatusInternalServerError
	return report
}

func (p *Prober) client() *http.Client {
	if p == nil || p.Client == nil {
		return http.DefaultClient
	}
	return p.Client
}

func (p *Prober) timeout() time.Duration {
	if p == nil || p.Timeout <= 0 {
		return DefaultTimeout
	}
	return p.Timeout
}
