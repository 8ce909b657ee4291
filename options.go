package web2md

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-web2md/internal/imageprep"
)

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	timeout   time.Duration
	render    RenderOptions
	ocr       OCRConfig
	tempDir   string
	assetPath string
	limits    imageprep.Limits
}

// OCRConfig selects and configures the OCR backend.
type OCRConfig struct {
	// Backend is "tesseract" or "vision". Empty picks vision when an API key
	// is set and tesseract otherwise.
	Backend string
	// Languages are Tesseract language codes. Default "eng".
	Languages []string
	// APIKey authenticates the vision backend. It is never read from the
	// environment by the library.
	APIKey  string
	BaseURL string
	Model   string
	// Prompt names a prompt asset. Empty uses the built-in one.
	Prompt string
}

// StateHook observes run state transitions.
type StateHook func(runID string, from, to State)

// WithTimeout bounds a whole run, rendering and extraction together.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("web2md: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithRenderOptions configures the built-in browser renderer.
func WithRenderOptions(o RenderOptions) Option {
	return func(c *Converter) {
		c.cfg.render = o
	}
}

// WithRenderer replaces the built-in browser renderer. The converter does not
// close a renderer it did not create.
func WithRenderer(r Renderer) Option {
	return func(c *Converter) {
		c.renderer = r
	}
}

// WithOCR configures the built-in OCR extractor.
func WithOCR(o OCRConfig) Option {
	return func(c *Converter) {
		c.cfg.ocr = o
	}
}

// WithExtractor replaces the built-in OCR extractor.
func WithExtractor(x TextExtractor) Option {
	return func(c *Converter) {
		c.extractor = x
	}
}

// WithImageLimits bounds the width and tile height of images sent to OCR.
func WithImageLimits(maxWidth, maxTileHeight int) Option {
	return func(c *Converter) {
		c.cfg.limits = imageprep.Limits{MaxWidth: maxWidth, MaxTileHeight: maxTileHeight}
	}
}

// WithTempDir sets where captures are stored during a run. Default os.TempDir().
func WithTempDir(dir string) Option {
	return func(c *Converter) {
		c.cfg.tempDir = dir
	}
}

// WithAssetPath sets a directory overriding the built-in prompts.
func WithAssetPath(path string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = path
	}
}

// WithLogger sets the structured logger. Default is a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Converter) {
		c.logger = l
	}
}

// WithRecorder stores every outcome, e.g. in a journal.
func WithRecorder(r Recorder) Option {
	return func(c *Converter) {
		c.recorder = r
	}
}

// WithStateHook observes run state transitions.
func WithStateHook(h StateHook) Option {
	return func(c *Converter) {
		c.stateHook = h
	}
}
