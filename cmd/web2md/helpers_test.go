package main

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	web2md "github.com/alnah/go-web2md"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - fake pool and environment
// ---------------------------------------------------------------------------

// fixedNow is the clock used by command tests.
var fixedNow = time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)

// fakePool answers runs from a function instead of a browser.
type fakePool struct {
	mu     sync.Mutex
	size   int
	urls   []string
	closed bool
	opts   int
	run    func(url string) web2md.Outcome
}

var _ Pool = (*fakePool)(nil)

func (p *fakePool) Run(_ context.Context, req web2md.Request) web2md.Outcome {
	p.mu.Lock()
	p.urls = append(p.urls, req.URL)
	p.mu.Unlock()
	if p.run == nil {
		return web2md.Outcome{URL: req.URL, Markdown: "# Hello\n\nfrom " + req.URL}
	}
	return p.run(req.URL)
}

func (p *fakePool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return max(p.size, 1)
}

func (p *fakePool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePool) calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.urls...)
}

// lockedBuffer is a bytes.Buffer safe for concurrent writers.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newTestEnv returns an environment whose pools are pool.
func newTestEnv(t *testing.T, pool *fakePool) (*Environment, *lockedBuffer, *lockedBuffer) {
	t.Helper()
	stdout, stderr := &lockedBuffer{}, &lockedBuffer{}
	env := &Environment{
		Now:    func() time.Time { return fixedNow },
		Stdout: stdout,
		Stderr: stderr,
		NewPool: func(size int, opts ...web2md.Option) Pool {
			pool.mu.Lock()
			pool.size = size
			pool.opts = len(opts)
			pool.mu.Unlock()
			return pool
		},
	}
	return env, stdout, stderr
}

// failWith returns a run function failing every URL with kind.
func failWith(kind web2md.Kind, msg string) func(string) web2md.Outcome {
	return func(url string) web2md.Outcome {
		return web2md.Outcome{URL: url, Failure: &web2md.Failure{Kind: kind, Message: msg}}
	}
}
