package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-web2md/internal/config"
)

// envPrefix marks the variables this tool reads.
const envPrefix = "WEB2MD_"

// envConfig holds configuration from environment variables.
type envConfig struct {
	// Pipeline
	ConfigPath string        // WEB2MD_CONFIG: config file name or path
	Timeout    time.Duration // WEB2MD_TIMEOUT: whole-run timeout
	Workers    int           // WEB2MD_WORKERS: parallel conversions

	// OCR
	OCRBackend string   // WEB2MD_OCR_BACKEND: tesseract or vision
	APIKey     string   // WEB2MD_OCR_API_KEY, falling back to TOGETHER_API_KEY
	Model      string   // WEB2MD_OCR_MODEL: vision model name
	BaseURL    string   // WEB2MD_OCR_BASE_URL: OpenAI-compatible endpoint
	Languages  []string // WEB2MD_OCR_LANGUAGES: comma-separated Tesseract codes

	// Output
	OutputDir string // WEB2MD_OUTPUT_DIR: batch output directory
	Format    string // WEB2MD_FORMAT: md or html
	Style     string // WEB2MD_STYLE: CSS style for html output
	AssetPath string // WEB2MD_ASSET_PATH: custom prompts and styles

	// Server
	Host    string // WEB2MD_HOST
	Port    int    // WEB2MD_PORT
	Journal string // WEB2MD_JOURNAL: SQLite journal path

	// Logging
	LogLevel  string // WEB2MD_LOG_LEVEL
	LogFormat string // WEB2MD_LOG_FORMAT: console or json
}

// knownEnvVars lists valid WEB2MD_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"WEB2MD_CONFIG":        true,
	"WEB2MD_TIMEOUT":       true,
	"WEB2MD_WORKERS":       true,
	"WEB2MD_OCR_BACKEND":   true,
	"WEB2MD_OCR_API_KEY":   true,
	"WEB2MD_OCR_MODEL":     true,
	"WEB2MD_OCR_BASE_URL":  true,
	"WEB2MD_OCR_LANGUAGES": true,
	"WEB2MD_OUTPUT_DIR":    true,
	"WEB2MD_FORMAT":        true,
	"WEB2MD_STYLE":         true,
	"WEB2MD_ASSET_PATH":    true,
	"WEB2MD_HOST":          true,
	"WEB2MD_PORT":          true,
	"WEB2MD_JOURNAL":       true,
	"WEB2MD_LOG_LEVEL":     true,
	"WEB2MD_LOG_FORMAT":    true,
	"WEB2MD_CONTAINER":     true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
// Unparseable numbers and durations are ignored, not errors.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("WEB2MD_CONFIG"),
		OCRBackend: os.Getenv("WEB2MD_OCR_BACKEND"),
		APIKey:     resolveAPIKey(),
		Model:      os.Getenv("WEB2MD_OCR_MODEL"),
		BaseURL:    os.Getenv("WEB2MD_OCR_BASE_URL"),
		OutputDir:  os.Getenv("WEB2MD_OUTPUT_DIR"),
		Format:     os.Getenv("WEB2MD_FORMAT"),
		Style:      os.Getenv("WEB2MD_STYLE"),
		AssetPath:  os.Getenv("WEB2MD_ASSET_PATH"),
		Host:       os.Getenv("WEB2MD_HOST"),
		Journal:    os.Getenv("WEB2MD_JOURNAL"),
		LogLevel:   os.Getenv("WEB2MD_LOG_LEVEL"),
		LogFormat:  os.Getenv("WEB2MD_LOG_FORMAT"),
	}

	if timeout := os.Getenv("WEB2MD_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if workers := os.Getenv("WEB2MD_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}
	if port := os.Getenv("WEB2MD_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			cfg.Port = p
		}
	}
	cfg.Languages = splitList(os.Getenv("WEB2MD_OCR_LANGUAGES"))

	return cfg
}

// resolveAPIKey returns the vision API key. TOGETHER_API_KEY is accepted for
// compatibility with existing deployments.
func resolveAPIKey() string {
	if key := os.Getenv("WEB2MD_OCR_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("TOGETHER_API_KEY")
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// warnUnknownEnvVars logs warnings for unrecognized WEB2MD_* variables.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overrides file values with every variable that is set.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied afterwards by each command).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Timeout > 0 {
		cfg.Pipeline.Timeout = env.Timeout
	}
	if env.Workers > 0 {
		cfg.Pipeline.Workers = env.Workers
	}

	if env.OCRBackend != "" {
		cfg.OCR.Backend = env.OCRBackend
	}
	if env.Model != "" {
		cfg.OCR.Model = env.Model
	}
	if env.BaseURL != "" {
		cfg.OCR.BaseURL = env.BaseURL
	}
	if len(env.Languages) > 0 {
		cfg.OCR.Languages = env.Languages
	}

	if env.OutputDir != "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.Format != "" {
		cfg.Output.Format = env.Format
	}
	if env.Style != "" {
		cfg.Output.Style = env.Style
	}
	if env.AssetPath != "" {
		cfg.Assets.BasePath = env.AssetPath
	}

	if env.Host != "" {
		cfg.Server.Host = env.Host
	}
	if env.Port > 0 {
		cfg.Server.Port = env.Port
	}
	if env.Journal != "" {
		cfg.Journal.Path = env.Journal
	}

	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.LogFormat != "" {
		cfg.Log.Format = env.LogFormat
	}
}
