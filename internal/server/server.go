// Package server exposes the converter over HTTP.
//
// Routes:
//
//	POST /convert          strict: 400 on a bad request, 500 on a failed run
//	GET  /convert/{url...} tolerant: always 200 with a success flag
//	GET  /ok               liveness
//	GET  /history          recent runs, when a journal is configured
//
// Both convert routes accept ?format=html to add a rendered page.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	web2md "github.com/alnah/go-web2md"
	"github.com/alnah/go-web2md/internal/journal"
	"github.com/alnah/go-web2md/internal/mdhtml"
)

// Server timeouts. Conversions can take minutes, so writes are bounded by
// the converter timeout rather than here.
const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
	maxBodyBytes      = 64 << 10
)

// History lists recent runs.
type History interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Compile-time interface check.
var _ History = (*journal.Journal)(nil)

// Server serves conversion requests with a web2md.Runner.
type Server struct {
	runner       web2md.Runner
	html         *mdhtml.Converter
	css          string
	history      History
	historyLimit int
	log          zerolog.Logger
	now          func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithHistory enables GET /history. limit is the default page size.
func WithHistory(h History, limit int) Option {
	return func(s *Server) {
		s.history = h
		s.historyLimit = limit
	}
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithCSS sets the style sheet inlined in html output.
func WithCSS(css string) Option {
	return func(s *Server) { s.css = css }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a Server around runner.
func New(runner web2md.Runner, opts ...Option) *Server {
	s := &Server{
		runner:       runner,
		html:         mdhtml.New(),
		historyLimit: 20,
		log:          zerolog.Nop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/ok", s.handleOK)
	r.Post("/convert", s.handleConvertStrict)
	r.Get("/convert/*", s.handleConvertTolerant)
	r.Get("/history", s.handleHistory)
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully, letting in-flight conversions finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("server listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// logRequests logs one line per request with zerolog.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", s.now().Sub(start)).
			Msg("request")
	})
}
