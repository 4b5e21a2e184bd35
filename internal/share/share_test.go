package share

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"wb-content-manager/internal/model"
)

type fakeItem struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// fakeShare serves the public listing API over an in-memory tree.
type fakeShare struct {
	mu       sync.Mutex
	trees    map[string]map[string][]fakeItem // root -> path -> items
	statuses map[string]int                   // path -> forced listing status
	links    map[string]string                // root|path -> href
	linkCode map[string]int                   // root -> forced link status
	requests []string
}

func newFakeShare() *fakeShare {
	return &fakeShare{
		trees:    make(map[string]map[string][]fakeItem),
		statuses: make(map[string]int),
		links:    make(map[string]string),
		linkCode: make(map[string]int),
	}
}

func (f *fakeShare) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		root := q.Get("public_key")
		path := q.Get("path")

		f.mu.Lock()
		defer f.mu.Unlock()

		if strings.HasSuffix(r.URL.Path, "/download") {
			f.requests = append(f.requests, "download "+root+" "+path)
			if code := f.linkCode[root]; code != 0 {
				w.WriteHeader(code)
				return
			}
			href, ok := f.links[root+"|"+path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"href": href})
			return
		}

		offset, _ := strconv.Atoi(q.Get("offset"))
		limit, _ := strconv.Atoi(q.Get("limit"))
		f.requests = append(f.requests, fmt.Sprintf("list %s %s offset=%d", root, path, offset))

		if code := f.statuses[path]; code != 0 {
			w.WriteHeader(code)
			fmt.Fprint(w, "forced failure")
			return
		}

		items := f.trees[root][path]
		end := offset + limit
		if offset > len(items) {
			offset = len(items)
		}
		if end > len(items) {
			end = len(items)
		}
		page := items[offset:end]
		_ = json.NewEncoder(w).Encode(map[string]any{
			"_embedded": map[string]any{"items": page},
		})
	})
}

func (f *fakeShare) requestLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func newTestClient(t *testing.T, f *fakeShare, roots []string, pageSize int) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return New(roots, Options{
		BaseURL:  srv.URL,
		PageSize: pageSize,
		Sleep:    func(context.Context, time.Duration) error { return nil },
	})
}

func TestEnumeratePaginatesAndRecursesInListingOrder(t *testing.T) {
	f := newFakeShare()
	f.trees["rootA"] = map[string][]fakeItem{
		"/": {
			{Name: "sub", Type: "dir"},
			{Name: "AAA1_1.jpg", Type: "file"},
			{Name: "AAA1_2.jpg", Type: "file"},
			{Name: "notes.txt", Type: "file"},
		},
		"/sub": {
			{Name: "BBB2.png", Type: "file"},
		},
	}
	c := newTestClient(t, f, []string{"rootA"}, 2)

	files, err := c.Enumerate(context.Background(), []string{"AAA1", "BBB2"})
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d: %+v", len(files), files)
	}
	// Root files first (enumeration order), then the subdirectory.
	if files[0].Name != "AAA1_1.jpg" || files[0].TreePath != "/AAA1_1.jpg" || files[0].PhotoNumber != 1 {
		t.Fatalf("unexpected first file: %+v", files[0])
	}
	if files[2].VendorCode != "BBB2" || files[2].TreePath != "/sub/BBB2.png" {
		t.Fatalf("unexpected subdir file: %+v", files[2])
	}

	// Page size 2 with 4 root items needs offsets 0 and 2 for "/".
	log := f.requestLog()
	var rootPages int
	for _, line := range log {
		if strings.HasPrefix(line, "list rootA / ") {
			rootPages++
		}
	}
	if rootPages < 2 {
		t.Fatalf("expected paginated root listing, request log: %v", log)
	}
}

func TestEnumerateStopsEarlyOnceAllCodesFound(t *testing.T) {
	f := newFakeShare()
	f.trees["rootA"] = map[string][]fakeItem{
		"/": {
			{Name: "CODE1.jpg", Type: "file"},
			{Name: "huge", Type: "dir"},
		},
		"/huge": {
			{Name: "CODE1_2.jpg", Type: "file"},
		},
	}
	c := newTestClient(t, f, []string{"rootA"}, 100)

	files, err := c.Enumerate(context.Background(), []string{"CODE1"})
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected only the first directory's match, got %d", len(files))
	}
	for _, line := range f.requestLog() {
		if strings.Contains(line, "/huge") {
			t.Fatalf("unvisited directory was listed: %v", f.requestLog())
		}
	}
}

func TestEnumerateSkipsFailingSubdirectory(t *testing.T) {
	f := newFakeShare()
	f.trees["rootA"] = map[string][]fakeItem{
		"/": {
			{Name: "bad", Type: "dir"},
			{Name: "ok", Type: "dir"},
		},
		"/ok": {
			{Name: "X1.jpg", Type: "file"},
		},
	}
	f.statuses["/bad"] = http.StatusInternalServerError
	c := newTestClient(t, f, []string{"rootA"}, 100)

	files, err := c.Enumerate(context.Background(), []string{"X1", "Y2"})
	if err != nil {
		t.Fatalf("a failing subdirectory must not abort enumeration: %v", err)
	}
	if len(files) != 1 || files[0].VendorCode != "X1" {
		t.Fatalf("expected partial results, got %+v", files)
	}
}

func TestEnumerateRootListingFailureIsHard(t *testing.T) {
	f := newFakeShare()
	f.trees["rootA"] = map[string][]fakeItem{"/": {}}
	f.statuses["/"] = http.StatusForbidden
	c := newTestClient(t, f, []string{"rootA"}, 100)

	_, err := c.Enumerate(context.Background(), []string{"X1"})
	if !errors.Is(err, model.ErrEnumeration) {
		t.Fatalf("expected enumeration error, got %v", err)
	}
	// Non-2xx is not retried: exactly one listing request.
	if got := len(f.requestLog()); got != 1 {
		t.Fatalf("expected 1 request, got %d", got)
	}
}

func TestEnumerateRetriesTransportFailures(t *testing.T) {
	f := newFakeShare()
	f.trees["rootA"] = map[string][]fakeItem{
		"/": {{Name: "X1.jpg", Type: "file"}},
	}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	failures := 2
	c := New([]string{"rootA"}, Options{
		BaseURL: srv.URL,
		HTTPClient: &http.Client{Transport: &flakyTransport{
			failures: &failures,
			inner:    http.DefaultTransport,
		}},
		Sleep: func(context.Context, time.Duration) error { return nil },
	})

	files, err := c.Enumerate(context.Background(), []string{"X1"})
	if err != nil {
		t.Fatalf("expected success after transport retries: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
}

type flakyTransport struct {
	failures *int
	inner    http.RoundTripper
}

func (t *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if *t.failures > 0 {
		*t.failures--
		return nil, errors.New("connection reset")
	}
	return t.inner.RoundTrip(req)
}

func TestResolveDownloadURLSkips401Root(t *testing.T) {
	f := newFakeShare()
	f.linkCode["rootA"] = http.StatusUnauthorized
	f.links["rootB|/x.jpg"] = "https://downloader.example/x.jpg"
	c := newTestClient(t, f, []string{"rootA", "rootB"}, 100)

	href, err := c.ResolveDownloadURL(context.Background(), "/x.jpg")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if href != "https://downloader.example/x.jpg" {
		t.Fatalf("unexpected href %q", href)
	}

	// The 401 root must be abandoned after a single request.
	var rootARequests int
	for _, line := range f.requestLog() {
		if strings.HasPrefix(line, "download rootA") {
			rootARequests++
		}
	}
	if rootARequests != 1 {
		t.Fatalf("401 should not be retried, got %d requests", rootARequests)
	}
}

func TestResolveDownloadURLExhaustsAllRoots(t *testing.T) {
	f := newFakeShare()
	f.linkCode["rootA"] = http.StatusInternalServerError
	f.linkCode["rootB"] = http.StatusInternalServerError
	c := newTestClient(t, f, []string{"rootA", "rootB"}, 100)

	_, err := c.ResolveDownloadURL(context.Background(), "/x.jpg")
	if !errors.Is(err, model.ErrResolution) {
		t.Fatalf("expected resolution error, got %v", err)
	}

	// Each root gets the full 3-attempt budget for retryable statuses.
	log := f.requestLog()
	if len(log) != 6 {
		t.Fatalf("expected 6 attempts across 2 roots, got %d: %v", len(log), log)
	}
}

func TestUploadAndCleanupAreUnsupported(t *testing.T) {
	c := New([]string{"rootA"}, Options{})
	if err := c.Upload("/tmp/a.jpg", "/a.jpg"); !errors.Is(err, model.ErrUnsupported) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
	if err := c.Cleanup("/a.jpg"); !errors.Is(err, model.ErrUnsupported) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}
