package main

// Notes:
// - loadSettings: precedence is checked with a real config file in
//   t.TempDir() plus t.Setenv(), so those tests are not parallel.
// - converterOptions is only counted: the options are opaque closures and
//   their effect is covered by the root package tests.

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	web2md "github.com/alnah/go-web2md"
	"github.com/alnah/go-web2md/internal/assets"
	"github.com/alnah/go-web2md/internal/config"
	"github.com/alnah/go-web2md/internal/ocr"
)

// ---------------------------------------------------------------------------
// TestLoadSettings - Precedence flags > env > file > defaults
// ---------------------------------------------------------------------------

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "web2md.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSettings(t *testing.T) {
	path := writeConfig(t, "pipeline:\n  workers: 2\nserver:\n  port: 4000\nocr:\n  backend: tesseract\n")

	t.Run("file only", func(t *testing.T) {
		t.Setenv("WEB2MD_PORT", "")
		t.Setenv("WEB2MD_WORKERS", "")

		s, err := loadSettings(commonFlags{config: path}, io.Discard, nil)
		if err != nil {
			t.Fatalf("loadSettings() error = %v", err)
		}
		if s.cfg.Pipeline.Workers != 2 || s.cfg.Server.Port != 4000 {
			t.Errorf("cfg = %+v", s.cfg)
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("WEB2MD_PORT", "5000")

		s, err := loadSettings(commonFlags{config: path}, io.Discard, nil)
		if err != nil {
			t.Fatalf("loadSettings() error = %v", err)
		}
		if s.cfg.Server.Port != 5000 {
			t.Errorf("Port = %d, want 5000", s.cfg.Server.Port)
		}
	})

	t.Run("flags override env", func(t *testing.T) {
		t.Setenv("WEB2MD_PORT", "5000")

		s, err := loadSettings(commonFlags{config: path}, io.Discard, func(cfg *config.Config) error {
			cfg.Server.Port = 6000
			return nil
		})
		if err != nil {
			t.Fatalf("loadSettings() error = %v", err)
		}
		if s.cfg.Server.Port != 6000 {
			t.Errorf("Port = %d, want 6000", s.cfg.Server.Port)
		}
	})

	t.Run("config from env", func(t *testing.T) {
		t.Setenv("WEB2MD_CONFIG", path)
		t.Setenv("WEB2MD_WORKERS", "")

		s, err := loadSettings(commonFlags{}, io.Discard, nil)
		if err != nil {
			t.Fatalf("loadSettings() error = %v", err)
		}
		if s.cfg.Pipeline.Workers != 2 {
			t.Errorf("Workers = %d, want 2", s.cfg.Pipeline.Workers)
		}
	})

	t.Run("api key", func(t *testing.T) {
		t.Setenv("WEB2MD_OCR_API_KEY", "k")

		s, err := loadSettings(commonFlags{}, io.Discard, nil)
		if err != nil {
			t.Fatal(err)
		}
		if s.apiKey != "k" {
			t.Errorf("apiKey = %q", s.apiKey)
		}
	})
}

func TestLoadSettings_Errors(t *testing.T) {
	t.Setenv("WEB2MD_CONFIG", "")

	tests := []struct {
		name    string
		common  commonFlags
		apply   func(*config.Config) error
		wantErr error
	}{
		{
			name:    "missing file",
			common:  commonFlags{config: "./does-not-exist.yaml"},
			wantErr: config.ErrConfigNotFound,
		},
		{
			name:    "apply error",
			apply:   func(*config.Config) error { return usageError("bad") },
			wantErr: ErrUsage,
		},
		{
			name:    "invalid after flags",
			apply:   func(c *config.Config) error { c.Output.Format = "pdf"; return nil },
			wantErr: config.ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadSettings(tt.common, io.Discard, tt.apply)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("loadSettings() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestNewLogger - Quiet and verbose overrides
// ---------------------------------------------------------------------------

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		level  string
		common commonFlags
		want   zerolog.Level
	}{
		{name: "configured", level: "warn", want: zerolog.WarnLevel},
		{name: "quiet", level: "debug", common: commonFlags{quiet: true}, want: zerolog.ErrorLevel},
		{name: "verbose", level: "warn", common: commonFlags{verbose: true}, want: zerolog.DebugLevel},
		{name: "quiet wins", level: "info", common: commonFlags{quiet: true, verbose: true}, want: zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			log, err := newLogger(config.LogConfig{Level: tt.level, Format: "json"}, tt.common, io.Discard)
			if err != nil {
				t.Fatalf("newLogger() error = %v", err)
			}
			if got := log.GetLevel(); got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestMergePipelineFlags - Flag validation and merging
// ---------------------------------------------------------------------------

func TestMergePipelineFlags(t *testing.T) {
	t.Parallel()

	t.Run("merges", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		err := mergePipelineFlags(cfg,
			pipelineFlags{workers: 3, timeout: "45s", tempDir: "/tmp/w"},
			renderFlags{stealth: true, block: []string{"images"}, width: 800},
			ocrFlags{backend: "vision", languages: []string{"fra"}},
		)
		if err != nil {
			t.Fatalf("mergePipelineFlags() error = %v", err)
		}
		if cfg.Pipeline.Workers != 3 || cfg.Pipeline.Timeout != 45*time.Second || cfg.Pipeline.TempDir != "/tmp/w" {
			t.Errorf("Pipeline = %+v", cfg.Pipeline)
		}
		if !cfg.Render.Stealth || cfg.Render.Viewport.Width != 800 || len(cfg.Render.Block) != 1 {
			t.Errorf("Render = %+v", cfg.Render)
		}
		if cfg.OCR.Backend != "vision" || cfg.OCR.Languages[0] != "fra" {
			t.Errorf("OCR = %+v", cfg.OCR)
		}
	})

	t.Run("zero values keep config", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		want := cfg.Render.Viewport
		if err := mergePipelineFlags(cfg, pipelineFlags{}, renderFlags{}, ocrFlags{}); err != nil {
			t.Fatal(err)
		}
		if cfg.Render.Viewport != want {
			t.Errorf("Viewport = %+v, want %+v", cfg.Render.Viewport, want)
		}
	})

	errTests := []struct {
		name string
		p    pipelineFlags
		want string
	}{
		{name: "negative workers", p: pipelineFlags{workers: -1}, want: "--workers"},
		{name: "bad timeout", p: pipelineFlags{timeout: "later"}, want: "--timeout"},
		{name: "zero timeout", p: pipelineFlags{timeout: "0s"}, want: "--timeout"},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := mergePipelineFlags(config.DefaultConfig(), tt.p, renderFlags{}, ocrFlags{})
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("error = %v, want ErrUsage", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %s", err, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestSettings - Pool sizing, options, backend and hints
// ---------------------------------------------------------------------------

func testSettings(mutate func(*config.Config), apiKey string) *settings {
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	return &settings{cfg: cfg, apiKey: apiKey, log: zerolog.Nop()}
}

func TestSettings_PoolSize(t *testing.T) {
	t.Parallel()

	s := testSettings(func(c *config.Config) { c.Pipeline.Workers = 4 }, "")

	tests := []struct {
		jobs int
		want int
	}{
		{jobs: 0, want: 4},
		{jobs: 1, want: 1},
		{jobs: 3, want: 3},
		{jobs: 10, want: 4},
	}
	for _, tt := range tests {
		if got := s.poolSize(tt.jobs); got != tt.want {
			t.Errorf("poolSize(%d) = %d, want %d", tt.jobs, got, tt.want)
		}
	}
}

func TestSettings_ConverterOptions(t *testing.T) {
	t.Parallel()

	noTimeout := func(c *config.Config) { c.Pipeline.Timeout = 0 }
	base := len(testSettings(noTimeout, "").converterOptions())
	withTimeout := len(testSettings(func(c *config.Config) { c.Pipeline.Timeout = time.Minute }, "").converterOptions())
	if withTimeout != base+1 {
		t.Errorf("timeout option count = %d, want %d", withTimeout, base+1)
	}
	if got := len(testSettings(nil, "").converterOptions()); got != base+1 {
		t.Errorf("default config option count = %d, want %d (default timeout applied)", got, base+1)
	}
	extra := len(testSettings(noTimeout, "").converterOptions(web2md.WithTempDir("/x")))
	if extra != base+1 {
		t.Errorf("extra option count = %d, want %d", extra, base+1)
	}
}

func TestSettings_Backend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		backend string
		apiKey  string
		want    string
	}{
		{name: "explicit", backend: ocr.TesseractName, apiKey: "k", want: ocr.TesseractName},
		{name: "auto with key", apiKey: "k", want: ocr.VisionName},
		{name: "auto without key", want: ocr.TesseractName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := testSettings(func(c *config.Config) { c.OCR.Backend = tt.backend }, tt.apiKey)
			if got := s.backend(); got != tt.want {
				t.Errorf("backend() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHintFor(t *testing.T) {
	t.Parallel()

	vision := testSettings(func(c *config.Config) { c.OCR.Backend = ocr.VisionName }, "")
	visionKeyed := testSettings(func(c *config.Config) { c.OCR.Backend = ocr.VisionName }, "k")
	tesseract := testSettings(func(c *config.Config) { c.OCR.Backend = ocr.TesseractName }, "")

	tests := []struct {
		name     string
		err      error
		s        *settings
		wantHint bool
	}{
		{name: "browser connect", err: web2md.ErrBrowserConnect, wantHint: true},
		{name: "navigation", err: &web2md.RenderError{Kind: web2md.KindNavigation}, wantHint: true},
		{name: "timeout", err: web2md.ErrRenderTimeout, wantHint: true},
		{name: "vision without key", err: web2md.ErrBackendUnavailable, s: vision, wantHint: true},
		{name: "vision with key", err: web2md.ErrBackendUnavailable, s: visionKeyed, wantHint: false},
		{name: "tesseract", err: web2md.ErrBackendUnavailable, s: tesseract, wantHint: true},
		{name: "backend before settings", err: web2md.ErrBackendUnavailable, wantHint: false},
		{name: "config not found", err: config.ErrConfigNotFound, wantHint: true},
		{name: "style not found", err: assets.ErrStyleNotFound, wantHint: true},
		{name: "write output", err: ErrWriteOutput, wantHint: true},
		{name: "no text", err: web2md.ErrNoText, wantHint: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hint := hintFor(tt.err, tt.s)
			if (hint != "") != tt.wantHint {
				t.Errorf("hintFor(%v) = %q, wantHint %v", tt.err, hint, tt.wantHint)
			}

			wrapped := withHint(tt.err, tt.s)
			if !errors.Is(wrapped, tt.err) {
				t.Errorf("withHint lost the cause: %v", wrapped)
			}
		})
	}
}
