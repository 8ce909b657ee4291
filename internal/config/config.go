package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alnah/go-web2md/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// appDir is the directory under the user config dir searched for named configs.
const appDir = "go-web2md"

// Field length limits.
const (
	MaxURLLength      = 2048
	MaxPathLength     = 4096
	MaxNameLength     = 200
	MaxLanguageLength = 20
	MaxLanguages      = 8
	MaxWorkers        = 64
)

// Output formats.
const (
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

// Config holds all file-level configuration. API keys are deliberately not
// part of it: they come from the environment only.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Render   RenderConfig   `yaml:"render"`
	OCR      OCRConfig      `yaml:"ocr"`
	Output   OutputConfig   `yaml:"output"`
	Server   ServerConfig   `yaml:"server"`
	Journal  JournalConfig  `yaml:"journal"`
	Assets   AssetsConfig   `yaml:"assets"`
	Log      LogConfig      `yaml:"log"`
}

// PipelineConfig bounds whole runs.
type PipelineConfig struct {
	Timeout time.Duration `yaml:"timeout"` // rendering plus extraction
	Workers int           `yaml:"workers"` // 0 = auto
	TempDir string        `yaml:"tempDir"` // empty = OS temp dir
}

// RenderConfig configures the headless browser.
type RenderConfig struct {
	Timeout    time.Duration  `yaml:"timeout"`
	SettleIdle time.Duration  `yaml:"settleIdle"`
	Viewport   ViewportConfig `yaml:"viewport"`
	Stealth    bool           `yaml:"stealth"`
	Block      []string       `yaml:"block"` // images, fonts, media, stylesheets
	BrowserBin string         `yaml:"browserBin"`
	ControlURL string         `yaml:"controlURL"`
	NoSandbox  bool           `yaml:"noSandbox"`
}

// ViewportConfig is the emulated window size.
type ViewportConfig struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Scale  float64 `yaml:"scale"`
}

// OCRConfig selects the text extraction backend.
type OCRConfig struct {
	Backend   string   `yaml:"backend"` // tesseract, vision, or empty for auto
	Languages []string `yaml:"languages"`
	BaseURL   string   `yaml:"baseURL"`
	Model     string   `yaml:"model"`
	Prompt    string   `yaml:"prompt"`
}

// OutputConfig defines where and how results are written.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"`
	Format     string `yaml:"format"` // md or html
	Style      string `yaml:"style"`  // CSS style for html output
}

// ServerConfig configures `web2md serve`.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// JournalConfig enables the SQLite run journal.
type JournalConfig struct {
	Path         string `yaml:"path"` // empty disables the journal
	HistoryLimit int    `yaml:"historyLimit"`
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // empty = embedded assets
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{Timeout: 2 * time.Minute},
		Render: RenderConfig{
			Timeout:    30 * time.Second,
			SettleIdle: 500 * time.Millisecond,
			Viewport:   ViewportConfig{Width: 1280, Height: 800, Scale: 1},
		},
		OCR:     OCRConfig{Languages: []string{"eng"}},
		Output:  OutputConfig{Format: FormatMarkdown, Style: "default"},
		Server:  ServerConfig{Host: "0.0.0.0", Port: 3000},
		Journal: JournalConfig{HistoryLimit: 20},
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

// applyDefaults fills zero values from DefaultConfig so a partial file only
// overrides what it names.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Pipeline.Timeout == 0 {
		c.Pipeline.Timeout = d.Pipeline.Timeout
	}
	if c.Render.Timeout == 0 {
		c.Render.Timeout = d.Render.Timeout
	}
	if c.Render.SettleIdle == 0 {
		c.Render.SettleIdle = d.Render.SettleIdle
	}
	if c.Render.Viewport == (ViewportConfig{}) {
		c.Render.Viewport = d.Render.Viewport
	}
	if len(c.OCR.Languages) == 0 {
		c.OCR.Languages = d.OCR.Languages
	}
	if c.Output.Format == "" {
		c.Output.Format = d.Output.Format
	}
	if c.Output.Style == "" {
		c.Output.Style = d.Output.Style
	}
	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Journal.HistoryLimit == 0 {
		c.Journal.HistoryLimit = d.Journal.HistoryLimit
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

var (
	validBackends  = []string{"", "tesseract", "vision"}
	validFormats   = []string{FormatMarkdown, FormatHTML}
	validLogFormat = []string{"", "console", "json"}
	validBlocks    = []string{"image", "images", "font", "fonts", "media", "stylesheet", "stylesheets"}
)

// Validate checks ranges, enumerations and field lengths. Called by
// LoadConfig, and by callers that build a Config by hand.
func (c *Config) Validate() error {
	if c.Pipeline.Timeout < 0 {
		return invalid("pipeline.timeout", "must not be negative, got %s", c.Pipeline.Timeout)
	}
	if c.Pipeline.Workers < 0 || c.Pipeline.Workers > MaxWorkers {
		return invalid("pipeline.workers", "must be between 0 and %d, got %d", MaxWorkers, c.Pipeline.Workers)
	}
	if err := validateFieldLength("pipeline.tempDir", c.Pipeline.TempDir, MaxPathLength); err != nil {
		return err
	}

	if c.Render.Timeout < 0 || c.Render.SettleIdle < 0 {
		return invalid("render.timeout", "durations must not be negative")
	}
	if v := c.Render.Viewport; v.Width < 0 || v.Height < 0 || v.Scale < 0 || v.Scale > 4 {
		return invalid("render.viewport", "dimensions must not be negative and scale at most 4, got %dx%d@%g", v.Width, v.Height, v.Scale)
	}
	for _, b := range c.Render.Block {
		if !slices.Contains(validBlocks, strings.ToLower(b)) {
			return invalid("render.block", "unknown resource type %q (images, fonts, media, stylesheets)", b)
		}
	}
	if err := validateFieldLength("render.browserBin", c.Render.BrowserBin, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("render.controlURL", c.Render.ControlURL, MaxURLLength); err != nil {
		return err
	}

	if !slices.Contains(validBackends, strings.ToLower(c.OCR.Backend)) {
		return invalid("ocr.backend", "must be tesseract or vision, got %q", c.OCR.Backend)
	}
	if len(c.OCR.Languages) > MaxLanguages {
		return invalid("ocr.languages", "at most %d languages, got %d", MaxLanguages, len(c.OCR.Languages))
	}
	for i, lang := range c.OCR.Languages {
		if err := validateFieldLength(fmt.Sprintf("ocr.languages[%d]", i), lang, MaxLanguageLength); err != nil {
			return err
		}
	}
	if err := validateFieldLength("ocr.baseURL", c.OCR.BaseURL, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("ocr.model", c.OCR.Model, MaxNameLength); err != nil {
		return err
	}
	if err := validateFieldLength("ocr.prompt", c.OCR.Prompt, MaxNameLength); err != nil {
		return err
	}

	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return invalid("output.format", "must be md or html, got %q", c.Output.Format)
	}
	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return invalid("server.port", "must be between 0 and 65535, got %d", c.Server.Port)
	}
	if c.Journal.HistoryLimit < 0 {
		return invalid("journal.historyLimit", "must not be negative, got %d", c.Journal.HistoryLimit)
	}
	if err := validateFieldLength("journal.path", c.Journal.Path, MaxPathLength); err != nil {
		return err
	}
	if !slices.Contains(validLogFormat, c.Log.Format) {
		return invalid("log.format", "must be console or json, got %q", c.Log.Format)
	}

	return nil
}

func invalid(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidValue, field, fmt.Sprintf(format, args...))
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !isFilePath(nameOrPath) {
		var err error
		if configPath, err = resolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yamlutil.ReadStrict(f, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// SearchPaths lists where a config name is looked up, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(dir, appDir, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing search path for name.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
