package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	quiet     bool
	verbose   bool
	logLevel  string
	logFormat string
}

// pipelineFlags bound whole runs.
type pipelineFlags struct {
	workers   int
	timeout   string
	tempDir   string
	assetPath string
}

// renderFlags configure the headless browser.
type renderFlags struct {
	stealth    bool
	noSandbox  bool
	block      []string
	width      int
	height     int
	browserBin string
	controlURL string
}

// ocrFlags select and configure the OCR backend.
type ocrFlags struct {
	backend   string
	languages []string
	model     string
	baseURL   string
	prompt    string
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common   commonFlags
	pipeline pipelineFlags
	render   renderFlags
	ocr      ocrFlags

	output string
	links  string
	merge  string
	format string
	style  string
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common   commonFlags
	pipeline pipelineFlags
	render   renderFlags
	ocr      ocrFlags

	host    string
	port    int
	journal string
	style   string
}

// mcpFlags holds all flags for the mcp command.
type mcpFlags struct {
	common   commonFlags
	pipeline pipelineFlags
	render   renderFlags
	ocr      ocrFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show per-run details")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error, quiet")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: console, json")
}

func addPipelineFlags(fs *flag.FlagSet, f *pipelineFlags) {
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel conversions (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "whole-run timeout (e.g., 45s, 2m)")
	fs.StringVar(&f.tempDir, "temp-dir", "", "directory for temporary captures")
	fs.StringVar(&f.assetPath, "asset-path", "", "directory with custom prompts and styles")
}

func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.BoolVar(&f.stealth, "stealth", false, "patch headless browser fingerprints")
	fs.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chrome sandbox (containers)")
	fs.StringSliceVar(&f.block, "block", nil, "resource types to skip: images, fonts, media, stylesheets")
	fs.IntVar(&f.width, "width", 0, "viewport width in pixels")
	fs.IntVar(&f.height, "height", 0, "viewport height in pixels")
	fs.StringVar(&f.browserBin, "browser-bin", "", "Chrome/Chromium binary")
	fs.StringVar(&f.controlURL, "control-url", "", "DevTools URL of a running browser")
}

func addOCRFlags(fs *flag.FlagSet, f *ocrFlags) {
	fs.StringVar(&f.backend, "ocr", "", "OCR backend: tesseract, vision (default: vision if an API key is set)")
	fs.StringSliceVarP(&f.languages, "lang", "l", nil, "Tesseract languages (e.g., eng,fra)")
	fs.StringVar(&f.model, "model", "", "vision model name")
	fs.StringVar(&f.baseURL, "base-url", "", "OpenAI-compatible API base URL")
	fs.StringVar(&f.prompt, "prompt", "", "vision prompt asset name")
}

// newFlagSet creates a FlagSet that reports errors to the caller only.
func newFlagSet(name string, usage func(io.Writer), stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { usage(stderr) }
	return fs
}

// newConvertFlagSet registers the convert flags into f.
func newConvertFlagSet(f *convertFlags, stderr io.Writer) *flag.FlagSet {
	fs := newFlagSet("convert", printConvertUsage, stderr)

	fs.StringVarP(&f.output, "output", "o", "", "output file, or directory for batches")
	fs.StringVar(&f.links, "links", "", "file with one URL per line")
	fs.StringVar(&f.merge, "merge", "", "merge batch results into <name>_merged_<timestamp>.md")
	fs.StringVarP(&f.format, "format", "f", "", "output format: md, html")
	fs.StringVar(&f.style, "style", "", "CSS style for html output")

	addCommonFlags(fs, &f.common)
	addPipelineFlags(fs, &f.pipeline)
	addRenderFlags(fs, &f.render)
	addOCRFlags(fs, &f.ocr)
	return fs
}

// newServeFlagSet registers the serve flags into f.
func newServeFlagSet(f *serveFlags, stderr io.Writer) *flag.FlagSet {
	fs := newFlagSet("serve", printServeUsage, stderr)

	fs.StringVar(&f.host, "host", "", "listen host (default 0.0.0.0)")
	fs.IntVarP(&f.port, "port", "p", 0, "listen port (default 3000)")
	fs.StringVar(&f.journal, "journal", "", "SQLite journal path (enables /history)")
	fs.StringVar(&f.style, "style", "", "CSS style for ?format=html")

	addCommonFlags(fs, &f.common)
	addPipelineFlags(fs, &f.pipeline)
	addRenderFlags(fs, &f.render)
	addOCRFlags(fs, &f.ocr)
	return fs
}

// newMCPFlagSet registers the mcp flags into f.
func newMCPFlagSet(f *mcpFlags, stderr io.Writer) *flag.FlagSet {
	fs := newFlagSet("mcp", printMCPUsage, stderr)

	addCommonFlags(fs, &f.common)
	addPipelineFlags(fs, &f.pipeline)
	addRenderFlags(fs, &f.render)
	addOCRFlags(fs, &f.ocr)
	return fs
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, stderr io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newConvertFlagSet(f, stderr)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, error) {
	f := &serveFlags{}
	fs := newServeFlagSet(f, stderr)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, usageError("serve takes no arguments, got %q", fs.Arg(0))
	}
	return f, nil
}

// parseMCPFlags parses mcp command flags.
func parseMCPFlags(args []string, stderr io.Writer) (*mcpFlags, error) {
	f := &mcpFlags{}
	fs := newMCPFlagSet(f, stderr)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, usageError("mcp takes no arguments, got %q", fs.Arg(0))
	}
	return f, nil
}
