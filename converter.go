package web2md

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-web2md/internal/assets"
	"github.com/alnah/go-web2md/internal/assetstore"
	"github.com/alnah/go-web2md/internal/ocr"
)

// Recorder persists run outcomes.
type Recorder interface {
	Record(ctx context.Context, out Outcome) error
}

// Converter turns a URL into Markdown: it renders the page, stores the
// screenshot, runs OCR on it and normalizes the text.
// Create with NewConverter, use Run or Convert, and Close when done.
//
// A Converter may serve concurrent runs; each run gets its own browser
// session and its own temporary file.
type Converter struct {
	cfg          converterConfig
	renderer     Renderer
	ownsRenderer bool
	extractor    TextExtractor
	store        *assetstore.Store
	logger       zerolog.Logger
	recorder     Recorder
	stateHook    StateHook
	newID        func() string
}

// NewConverter creates a Converter. Without WithExtractor, the OCR backend
// is built from WithOCR settings; an unknown backend or a vision backend
// without API key is an error here rather than on the first run.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		logger: zerolog.Nop(),
		newID:  assetstore.NewV7,
	}

	for _, opt := range opts {
		opt(c)
	}

	store, err := assetstore.New(c.cfg.tempDir)
	if err != nil {
		return nil, fmt.Errorf("initializing temp store: %w", err)
	}
	c.store = store

	if c.extractor == nil {
		x, err := c.buildExtractor()
		if err != nil {
			return nil, err
		}
		c.extractor = x
	}

	// Create renderer if not injected (e.g., by tests)
	if c.renderer == nil {
		c.renderer = NewRenderer(c.cfg.render)
		c.ownsRenderer = true
	}

	return c, nil
}

func (c *Converter) buildExtractor() (TextExtractor, error) {
	o := c.cfg.ocr
	backend := o.Backend
	if backend == "" {
		backend = ocr.TesseractName
		if o.APIKey != "" {
			backend = ocr.VisionName
		}
	}

	var prompt string
	if backend == ocr.VisionName {
		resolver, err := assets.NewResolver(c.cfg.assetPath)
		if err != nil {
			return nil, fmt.Errorf("loading assets: %w", err)
		}
		name := o.Prompt
		if name == "" {
			name = assets.DefaultPromptName
		}
		if prompt, err = resolver.LoadPrompt(name); err != nil {
			return nil, fmt.Errorf("loading prompt %q: %w", name, err)
		}
	}

	engine, err := ocr.New(backend, ocr.Settings{
		Languages: o.Languages,
		APIKey:    o.APIKey,
		BaseURL:   o.BaseURL,
		Model:     o.Model,
		Prompt:    prompt,
	})
	if err != nil {
		if errors.Is(err, ocr.ErrUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		return nil, err
	}
	return NewOCRExtractor(engine, c.cfg.limits, o.Languages...), nil
}

// Run converts req and reports the result as data: it never returns an error
// and never panics. A failed run carries its kind and message in Failure.
func (c *Converter) Run(ctx context.Context, req Request) Outcome {
	out, _ := c.run(ctx, req)
	return out
}

// Convert converts url and returns the Markdown, or a *ConversionError
// whose chain includes the typed RenderError or ExtractionError.
func (c *Converter) Convert(ctx context.Context, url string) (string, error) {
	out, err := c.run(ctx, Request{URL: url})
	if err != nil {
		return "", &ConversionError{Kind: out.Failure.Kind, URL: url, Err: err}
	}
	return out.Markdown, nil
}

// Close releases the browser if the converter created it.
func (c *Converter) Close() error {
	if c.ownsRenderer && c.renderer != nil {
		return c.renderer.Close()
	}
	return nil
}

// run executes one conversion. Resources are released on every path: the
// browser session when rendering ends, the capture file when extraction
// ends, and both (session first) if the run stops early or panics.
func (c *Converter) run(ctx context.Context, req Request) (out Outcome, err error) {
	start := time.Now()
	r := &runScope{
		conv: c,
		id:   c.newID(),
		log:  c.logger.With().Str("url", req.URL).Logger(),
	}
	r.log = r.log.With().Str("run_id", r.id).Logger()
	out = Outcome{RunID: r.id, URL: req.URL}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("internal error: %v", p)
		}
		if err != nil {
			out.Markdown = ""
			out.Failure = &Failure{Kind: KindOf(err), Message: err.Error()}
			r.transition(StateFailed)
		}
		r.releaseAll()
		out.Duration = time.Since(start)
		c.finish(ctx, r.log, out)
	}()

	// An empty URL never starts a run. Any other malformed URL is one the
	// browser cannot navigate to.
	invalid := req.Validate()
	if errors.Is(invalid, ErrEmptyURL) {
		return out, invalid
	}

	if c.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.timeout)
		defer cancel()
	}

	r.transition(StateRendering)
	if invalid != nil {
		return out, &RenderError{Kind: KindNavigation, URL: req.URL, Err: invalid}
	}
	capture, err := c.render(ctx, r, req.URL)
	if err != nil {
		return out, err
	}

	r.asset, err = c.store.Put(r.id, capture.Image, "png")
	if err != nil {
		return out, &RenderError{Kind: KindCaptureFailed, URL: req.URL, Err: fmt.Errorf("%w: %v", ErrCaptureFailed, err)}
	}
	r.log.Debug().Int("bytes", len(capture.Image)).Str("path", r.asset.Path).Msg("capture stored")

	r.transition(StateExtracting)
	ext, err := c.extractor.Extract(ctx, r.asset.Path)
	switch {
	case errors.Is(err, ErrNoText):
		r.log.Debug().Msg("no text recognized")
		ext = &Extraction{}
	case err != nil:
		return out, err
	}
	ext.SourceURL = capture.PageURL
	if ext.SourceURL == "" {
		ext.SourceURL = req.URL
	}
	r.log.Debug().Str("source_url", ext.SourceURL).Str("backend", ext.Backend).Int("chars", len(ext.Text)).Msg("text extracted")

	out.Markdown = normalizeText(ext.Text)
	r.transition(StateDone)
	return out, nil
}

// render opens a session on the run scope and captures url.
func (c *Converter) render(ctx context.Context, r *runScope, url string) (*Capture, error) {
	session, err := c.renderer.Open(ctx)
	if err != nil {
		kind := KindNavigation
		if ctx.Err() != nil {
			kind = KindTimeout
		}
		return nil, &RenderError{Kind: kind, URL: url, Err: err}
	}
	r.session = session

	capture, err := session.Capture(ctx, url)
	if err != nil {
		var re *RenderError
		if errors.As(err, &re) {
			return nil, err
		}
		return nil, &RenderError{Kind: KindCaptureFailed, URL: url, Err: err}
	}
	if capture == nil || len(capture.Image) == 0 {
		return nil, &RenderError{Kind: KindCaptureFailed, URL: url, Err: fmt.Errorf("%w: empty image", ErrCaptureFailed)}
	}
	return capture, nil
}

// finish logs and records a completed run.
func (c *Converter) finish(ctx context.Context, log zerolog.Logger, out Outcome) {
	if out.OK() {
		log.Debug().Dur("duration", out.Duration).Int("chars", len(out.Markdown)).Msg("conversion succeeded")
	} else {
		log.Info().Dur("duration", out.Duration).Str("kind", string(out.Failure.Kind)).Msg(out.Failure.Message)
	}

	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(context.WithoutCancel(ctx), out); err != nil {
		log.Warn().Err(err).Msg("recording outcome failed")
	}
}

// runScope owns the resources of one run.
type runScope struct {
	conv  *Converter
	id    string
	log   zerolog.Logger
	state State

	session Session
	asset   *assetstore.Handle
}

// transition moves the run to a new state and releases what the state it
// leaves owned. Terminal states are absorbing.
func (r *runScope) transition(to State) {
	from := r.state
	if from.Terminal() {
		return
	}
	switch from {
	case StateRendering:
		r.releaseSession()
	case StateExtracting:
		r.releaseAsset()
	}
	r.state = to
	if to.Terminal() {
		r.releaseAll()
	}
	if h := r.conv.stateHook; h != nil {
		h(r.id, from, to)
	}
}

// releaseAll releases the session, then the capture file.
func (r *runScope) releaseAll() {
	r.releaseSession()
	r.releaseAsset()
}

func (r *runScope) releaseSession() {
	if r.session == nil {
		return
	}
	s := r.session
	r.session = nil
	if err := s.Close(); err != nil {
		r.logCleanup("browser session", err)
	}
}

func (r *runScope) releaseAsset() {
	if r.asset == nil {
		return
	}
	h := r.asset
	r.asset = nil
	if err := r.conv.store.Release(h); err != nil {
		r.logCleanup("capture file", err)
	}
}

// logCleanup reports a release failure. It never changes the run outcome.
func (r *runScope) logCleanup(resource string, err error) {
	rerr := &ResourceError{Resource: resource, Err: err}
	r.log.Warn().Err(rerr).Str("kind", string(KindCleanupFailed)).Msg("cleanup failed")
}
