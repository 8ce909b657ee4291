package main

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	web2md "github.com/alnah/go-web2md"
	"github.com/alnah/go-web2md/internal/config"
	"github.com/alnah/go-web2md/internal/logging"
)

// settings is the resolved configuration of one command invocation.
type settings struct {
	cfg    *config.Config
	apiKey string
	log    zerolog.Logger
}

// loadSettings resolves configuration with precedence
// flags > WEB2MD_* environment > config file > defaults.
// apply receives the config after the environment is applied and merges
// command flags into it.
func loadSettings(common commonFlags, stderr io.Writer, apply func(*config.Config) error) (*settings, error) {
	warnUnknownEnvVars(stderr)
	env := loadEnvConfig()

	cfg := config.DefaultConfig()
	name := common.config
	if name == "" {
		name = env.ConfigPath
	}
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	applyEnvConfig(env, cfg)

	if common.logLevel != "" {
		cfg.Log.Level = common.logLevel
	}
	if common.logFormat != "" {
		cfg.Log.Format = common.logFormat
	}
	if apply != nil {
		if err := apply(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := newLogger(cfg.Log, common, stderr)
	if err != nil {
		return nil, err
	}
	return &settings{cfg: cfg, apiKey: env.APIKey, log: log}, nil
}

// newLogger builds the command logger. --quiet keeps errors only and
// --verbose enables debug, both overriding the configured level.
func newLogger(lc config.LogConfig, common commonFlags, stderr io.Writer) (zerolog.Logger, error) {
	level := lc.Level
	switch {
	case common.quiet:
		level = "error"
	case common.verbose:
		level = "debug"
	}
	return logging.New(logging.Config{Level: level, Format: lc.Format, Output: stderr})
}

// mergePipelineFlags applies flags shared by every converting command.
func mergePipelineFlags(cfg *config.Config, p pipelineFlags, r renderFlags, o ocrFlags) error {
	if p.workers < 0 {
		return usageError("--workers must not be negative, got %d", p.workers)
	}
	if p.workers > 0 {
		cfg.Pipeline.Workers = p.workers
	}
	if p.timeout != "" {
		d, err := time.ParseDuration(p.timeout)
		if err != nil || d <= 0 {
			return usageError("--timeout must be a positive duration, got %q", p.timeout)
		}
		cfg.Pipeline.Timeout = d
	}
	if p.tempDir != "" {
		cfg.Pipeline.TempDir = p.tempDir
	}
	if p.assetPath != "" {
		cfg.Assets.BasePath = p.assetPath
	}

	if r.stealth {
		cfg.Render.Stealth = true
	}
	if r.noSandbox {
		cfg.Render.NoSandbox = true
	}
	if len(r.block) > 0 {
		cfg.Render.Block = r.block
	}
	if r.width > 0 {
		cfg.Render.Viewport.Width = r.width
	}
	if r.height > 0 {
		cfg.Render.Viewport.Height = r.height
	}
	if r.browserBin != "" {
		cfg.Render.BrowserBin = r.browserBin
	}
	if r.controlURL != "" {
		cfg.Render.ControlURL = r.controlURL
	}

	if o.backend != "" {
		cfg.OCR.Backend = o.backend
	}
	if len(o.languages) > 0 {
		cfg.OCR.Languages = o.languages
	}
	if o.model != "" {
		cfg.OCR.Model = o.model
	}
	if o.baseURL != "" {
		cfg.OCR.BaseURL = o.baseURL
	}
	if o.prompt != "" {
		cfg.OCR.Prompt = o.prompt
	}
	return nil
}

// converterOptions maps resolved settings to library options.
func (s *settings) converterOptions(extra ...web2md.Option) []web2md.Option {
	cfg := s.cfg
	opts := []web2md.Option{
		web2md.WithRenderOptions(web2md.RenderOptions{
			Timeout:    cfg.Render.Timeout,
			SettleIdle: cfg.Render.SettleIdle,
			Viewport: web2md.Viewport{
				Width:  cfg.Render.Viewport.Width,
				Height: cfg.Render.Viewport.Height,
				Scale:  cfg.Render.Viewport.Scale,
			},
			Stealth:    cfg.Render.Stealth,
			Block:      cfg.Render.Block,
			BrowserBin: cfg.Render.BrowserBin,
			ControlURL: cfg.Render.ControlURL,
			NoSandbox:  cfg.Render.NoSandbox,
		}),
		web2md.WithOCR(web2md.OCRConfig{
			Backend:   cfg.OCR.Backend,
			Languages: cfg.OCR.Languages,
			APIKey:    s.apiKey,
			BaseURL:   cfg.OCR.BaseURL,
			Model:     cfg.OCR.Model,
			Prompt:    cfg.OCR.Prompt,
		}),
		web2md.WithTempDir(cfg.Pipeline.TempDir),
		web2md.WithAssetPath(cfg.Assets.BasePath),
		web2md.WithLogger(logging.Component(s.log, "pipeline")),
	}
	if cfg.Pipeline.Timeout > 0 {
		opts = append(opts, web2md.WithTimeout(cfg.Pipeline.Timeout))
	}
	return append(opts, extra...)
}

// poolSize bounds the pool by the configured workers and the amount of work.
// jobs <= 0 means unbounded work, as for servers.
func (s *settings) poolSize(jobs int) int {
	n := web2md.ResolvePoolSize(s.cfg.Pipeline.Workers)
	if jobs > 0 && jobs < n {
		n = jobs
	}
	return n
}
