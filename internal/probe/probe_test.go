package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func countingServer(t *testing.T, status int, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func closedURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestFindReachableReturnsFirstBelow500(t *testing.T) {
	var downHits, okHits, laterHits int32
	down := countingServer(t, http.StatusServiceUnavailable, &downHits)
	ok := countingServer(t, http.StatusMethodNotAllowed, &okHits)
	later := countingServer(t, http.StatusOK, &laterHits)

	p := New(time.Second)
	got, found := p.FindReachable(context.Background(), []string{closedURL(t), down.URL, ok.URL, later.URL})
	if !found {
		t.Fatalf("expected a reachable endpoint")
	}
	if got != ok.URL {
		t.Fatalf("expected %s, got %s", ok.URL, got)
	}
	if atomic.LoadInt32(&downHits) != 1 || atomic.LoadInt32(&okHits) != 1 {
		t.Fatalf("expected one probe each, got down=%d ok=%d", downHits, okHits)
	}
	if atomic.LoadInt32(&laterHits) != 0 {
		t.Fatalf("candidate after the first reachable one must not be probed")
	}
}

func TestFindReachableNoneWhenAllFail(t *testing.T) {
	var hits int32
	down := countingServer(t, http.StatusInternalServerError, &hits)

	p := New(time.Second)
	if got, found := p.FindReachable(context.Background(), []string{down.URL, closedURL(t)}); found {
		t.Fatalf("expected none, got %s", got)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected exactly one probe of the failing server, got %d", hits)
	}
}

func TestFindReachableTimeoutAdvances(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)
	var hits int32
	fast := countingServer(t, http.StatusOK, &hits)

	p := New(50 * time.Millisecond)
	got, found := p.FindReachable(context.Background(), []string{slow.URL, fast.URL})
	if !found || got != fast.URL {
		t.Fatalf("expected %s after timeout, got %q found=%v", fast.URL, got, found)
	}
}

func TestFindReachableEmptyList(t *testing.T) {
	p := New(0)
	if _, found := p.FindReachable(context.Background(), nil); found {
		t.Fatalf("expected none for empty candidate list")
	}
	if p.Timeout != DefaultTimeout {
		t.Fatalf("expected default timeout, got %s", p.Timeout)
	}
}

func TestCheckReportsEveryCandidate(t *testing.T) {
	var hits int32
	ok := countingServer(t, http.StatusOK, &hits)
	down := countingServer(t, http.StatusBadGateway, &hits)

	p := New(time.Second)
	reports := p.Check(context.Background(), []string{ok.URL, down.URL, closedURL(t)})
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	if !reports[0].Reachable || reports[0].StatusCode != http.StatusOK {
		t.Fatalf("unexpected first report: %+v", reports[0])
	}
	if reports[1].Reachable || reports[1].StatusCode != http.StatusBadGateway {
		t.Fatalf("unexpected second report: %+v", reports[1])
	}
	if reports[2].Reachable || reports[2].Error == "" {
		t.Fatalf("expected connection error in third report: %+v", reports[2])
	}
}
