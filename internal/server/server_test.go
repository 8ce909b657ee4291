package server

// Notes:
// - Handlers are tested through Handler() with httptest and a fake Runner;
//   the real converter is covered in the root package.
// - Serve is tested on a loopback listener with context cancellation.

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	web2md "github.com/alnah/go-web2md"
	"github.com/alnah/go-web2md/internal/journal"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeRunner struct {
	mu   sync.Mutex
	urls []string
	out  web2md.Outcome
}

func (f *fakeRunner) Run(ctx context.Context, req web2md.Request) web2md.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, req.URL)
	out := f.out
	out.URL = req.URL
	return out
}

func (f *fakeRunner) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

type fakeHistory struct {
	entries []journal.Entry
	err     error
	limit   int
}

func (f *fakeHistory) Recent(ctx context.Context, limit int) ([]journal.Entry, error) {
	f.limit = limit
	return f.entries, f.err
}

var fixedNow = time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

func newTestServer(runner web2md.Runner, opts ...Option) http.Handler {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(runner, opts...).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("response is not JSON: %q", rec.Body.String())
	}
	return rec, decoded
}

var failedOutcome = web2md.Outcome{Failure: &web2md.Failure{Kind: web2md.KindTimeout, Message: "page did not settle"}}

// ---------------------------------------------------------------------------
// GET /ok
// ---------------------------------------------------------------------------

func TestHandleOK(t *testing.T) {
	t.Parallel()

	rec, body := do(t, newTestServer(&fakeRunner{}), http.MethodGet, "/ok", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["status"] != "ok" || body["timestamp"] != "2026-03-01T10:30:00Z" {
		t.Errorf("body = %v", body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
}

// ---------------------------------------------------------------------------
// POST /convert
// ---------------------------------------------------------------------------

func TestHandleConvertStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		out        web2md.Outcome
		wantStatus int
		wantKey    string
		wantValue  string
		wantRuns   int
	}{
		{name: "success", body: `{"url":"https://example.com"}`, out: web2md.Outcome{Markdown: "# Hi"}, wantStatus: 200, wantKey: "markdown", wantValue: "# Hi", wantRuns: 1},
		{name: "empty markdown is success", body: `{"url":"https://example.com"}`, wantStatus: 200, wantKey: "markdown", wantValue: "", wantRuns: 1},
		{name: "missing url", body: `{}`, wantStatus: 400, wantKey: "message", wantValue: "URL is required"},
		{name: "empty body", body: ``, wantStatus: 400, wantKey: "message", wantValue: "URL is required"},
		{name: "malformed json", body: `{"url":`, wantStatus: 400, wantKey: "message", wantValue: "URL is required"},
		{name: "failure", body: `{"url":"https://example.com"}`, out: failedOutcome, wantStatus: 500, wantKey: "message", wantValue: "Error converting URL to markdown: page did not settle", wantRuns: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := &fakeRunner{out: tt.out}
			rec, body := do(t, newTestServer(runner), http.MethodPost, "/convert", tt.body)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got, ok := body[tt.wantKey]; !ok || got != tt.wantValue {
				t.Errorf("%s = %v, want %q (body %v)", tt.wantKey, got, tt.wantValue, body)
			}
			if len(runner.calls()) != tt.wantRuns {
				t.Errorf("runs = %d, want %d", len(runner.calls()), tt.wantRuns)
			}
		})
	}
}

func TestHandleConvertStrict_InvalidURL(t *testing.T) {
	t.Parallel()

	rec, body := do(t, newTestServer(&fakeRunner{}), http.MethodPost, "/convert", `{"url":"ftp://example.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
	if msg, _ := body["message"].(string); !strings.Contains(msg, "invalid URL") {
		t.Errorf("message = %q", msg)
	}
}

func TestHandleConvertStrict_HTML(t *testing.T) {
	t.Parallel()

	h := newTestServer(&fakeRunner{out: web2md.Outcome{Markdown: "# Title"}}, WithCSS("body{margin:0}"))
	_, body := do(t, h, http.MethodPost, "/convert?format=html", `{"url":"https://example.com"}`)

	page, _ := body["html"].(string)
	if !strings.Contains(page, `<h1 id="title">Title</h1>`) || !strings.Contains(page, "body{margin:0}") {
		t.Errorf("html = %q", page)
	}
}

// ---------------------------------------------------------------------------
// GET /convert/*
// ---------------------------------------------------------------------------

func TestHandleConvertTolerant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		path        string
		out         web2md.Outcome
		wantSuccess bool
		wantURL     string
		wantErr     string
	}{
		{name: "escaped url", path: "/convert/" + url.PathEscape("https://example.com/a?b=c"), out: web2md.Outcome{Markdown: "x"}, wantSuccess: true, wantURL: "https://example.com/a?b=c"},
		{name: "failure reported as data", path: "/convert/" + url.PathEscape("https://example.com"), out: failedOutcome, wantURL: "https://example.com", wantErr: "page did not settle"},
		{name: "invalid url", path: "/convert/not-a-url", wantURL: "not-a-url", wantErr: "invalid URL"},
		{name: "empty url", path: "/convert/", wantURL: "", wantErr: "URL is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, body := do(t, newTestServer(&fakeRunner{out: tt.out}), http.MethodGet, tt.path, "")

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
			if body["success"] != tt.wantSuccess {
				t.Errorf("success = %v, want %v", body["success"], tt.wantSuccess)
			}
			if body["url"] != tt.wantURL {
				t.Errorf("url = %v, want %q", body["url"], tt.wantURL)
			}
			if tt.wantErr != "" {
				if msg, _ := body["error"].(string); !strings.Contains(msg, tt.wantErr) {
					t.Errorf("error = %q, want containing %q", msg, tt.wantErr)
				}
				if _, ok := body["markdown"]; ok {
					t.Error("failed response carries markdown")
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// GET /history
// ---------------------------------------------------------------------------

func TestHandleHistory(t *testing.T) {
	t.Parallel()

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()

		rec, _ := do(t, newTestServer(&fakeRunner{}), http.MethodGet, "/history", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("default limit", func(t *testing.T) {
		t.Parallel()

		h := &fakeHistory{entries: []journal.Entry{{RunID: "r1", URL: "https://example.com", OK: true}}}
		rec, body := do(t, newTestServer(&fakeRunner{}, WithHistory(h, 7)), http.MethodGet, "/history", "")
		if rec.Code != http.StatusOK || h.limit != 7 {
			t.Errorf("status = %d, limit = %d", rec.Code, h.limit)
		}
		entries, _ := body["entries"].([]any)
		if len(entries) != 1 {
			t.Errorf("entries = %v", body["entries"])
		}
	})

	t.Run("explicit limit", func(t *testing.T) {
		t.Parallel()

		h := &fakeHistory{}
		do(t, newTestServer(&fakeRunner{}, WithHistory(h, 7)), http.MethodGet, "/history?limit=3", "")
		if h.limit != 3 {
			t.Errorf("limit = %d, want 3", h.limit)
		}
	})

	t.Run("bad limit", func(t *testing.T) {
		t.Parallel()

		rec, _ := do(t, newTestServer(&fakeRunner{}, WithHistory(&fakeHistory{}, 7)), http.MethodGet, "/history?limit=abc", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()

		h := &fakeHistory{err: errors.New("disk I/O error")}
		rec, _ := do(t, newTestServer(&fakeRunner{}, WithHistory(h, 7)), http.MethodGet, "/history", "")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}

// ---------------------------------------------------------------------------
// Serve
// ---------------------------------------------------------------------------

func TestServe_ShutdownOnCancel(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- New(&fakeRunner{}).Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/ok")
	if err != nil {
		t.Fatalf("GET /ok: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v, want nil after shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
