package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	web2md "github.com/alnah/go-web2md"
	"github.com/alnah/go-web2md/internal/assets"
	"github.com/alnah/go-web2md/internal/config"
	"github.com/alnah/go-web2md/internal/fileutil"
	"github.com/alnah/go-web2md/internal/mdhtml"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput     = errors.New("no URL specified")
	ErrReadLinks   = errors.New("failed to read links file")
	ErrWriteOutput = errors.New("failed to write output")
	ErrBatchFailed = errors.New("some conversions failed")
)

// File permission constants.
const filePermissions = 0o644 // rw-r--r--: owner read+write, others read

// maxLinksLineLength bounds one raw line of a links file, surrounding
// whitespace included. The URL itself is held to config.MaxURLLength.
const maxLinksLineLength = 2 * config.MaxURLLength

// ConversionResult holds the outcome of a single conversion in a batch.
type ConversionResult struct {
	URL        string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// outputParams groups what is needed to turn Markdown into an output file.
type outputParams struct {
	format string // md or html
	css    string
	html   *mdhtml.Converter
}

// ext returns the output file extension.
func (p *outputParams) ext() string {
	if p.format == config.FormatHTML {
		return "html"
	}
	return "md"
}

// render returns the file content for md.
func (p *outputParams) render(ctx context.Context, md, url string) (string, error) {
	if p.format != config.FormatHTML {
		if md == "" {
			return "", nil
		}
		return md + "\n", nil
	}
	return p.html.Page(ctx, md, url, p.css)
}

// runConvert orchestrates the conversion of one URL or a batch.
func runConvert(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		return flagError(err)
	}

	s, err := loadSettings(flags.common, env.Stderr, func(cfg *config.Config) error {
		if flags.format != "" {
			cfg.Output.Format = flags.format
		}
		if flags.style != "" {
			cfg.Output.Style = flags.style
		}
		return mergePipelineFlags(cfg, flags.pipeline, flags.render, flags.ocr)
	})
	if err != nil {
		return withHint(err, nil)
	}

	urls, err := resolveURLs(positional, flags.links)
	if err != nil {
		return err
	}
	if flags.merge != "" {
		if err := validateMergeName(flags.merge); err != nil {
			return err
		}
		if s.cfg.Output.Format != config.FormatMarkdown {
			return usageError("--merge needs md output, got format %q", s.cfg.Output.Format)
		}
	}

	params, err := newOutputParams(s.cfg)
	if err != nil {
		return withHint(err, s)
	}

	pool := env.NewPool(s.poolSize(len(urls)), s.converterOptions()...)
	defer pool.Close()

	s.log.Debug().
		Int("urls", len(urls)).
		Int("workers", pool.Size()).
		Str("ocr", s.cfg.OCR.Backend).
		Dur("timeout", s.cfg.Pipeline.Timeout).
		Msg("starting conversion")

	if len(urls) == 1 && flags.links == "" && flags.merge == "" {
		return withHint(convertSingle(ctx, pool, urls[0], flags.output, params, env), s)
	}

	outDir := resolveOutputDir(flags.output, s.cfg)
	if err := fileutil.EnsureDir(outDir); err != nil {
		return withHint(fmt.Errorf("%w: %v", ErrWriteOutput, err), s)
	}

	results := convertBatch(ctx, pool, urls, outDir, params, progressWriter(env.Stderr, flags.common.quiet, s))
	failed := printSummary(env.Stderr, results, flags.common.quiet)

	if flags.merge != "" {
		merged, err := mergeMarkdown(outDir, flags.merge, succeededFiles(results), env.Now())
		if err != nil {
			return err
		}
		if !flags.common.quiet {
			fmt.Fprintf(env.Stderr, "Merged into %s\n", merged)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrBatchFailed, failed, len(results))
	}
	return nil
}

// resolveURLs collects URLs from positional args and the links file.
func resolveURLs(positional []string, linksPath string) ([]string, error) {
	urls := append([]string(nil), positional...)
	if linksPath != "" {
		links, err := readLinks(linksPath)
		if err != nil {
			return nil, err
		}
		urls = append(urls, links...)
	}
	if len(urls) == 0 {
		return nil, ErrNoInput
	}
	for _, u := range urls {
		if err := (web2md.Request{URL: u}).Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", u, err)
		}
	}
	return urls, nil
}

// readLinks reads one URL per line. Blank lines and lines starting with #
// are skipped.
func readLinks(path string) ([]string, error) {
	f, err := os.Open(path) // #nosec G304 -- path is user-provided
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadLinks, err)
	}
	defer f.Close()
	return parseLinks(f)
}

func parseLinks(r io.Reader) ([]string, error) {
	var links []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024), maxLinksLineLength)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if len(line) > config.MaxURLLength {
			return nil, fmt.Errorf("%w: line %d: URL longer than %d bytes", ErrReadLinks, n, config.MaxURLLength)
		}
		links = append(links, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadLinks, err)
	}
	return links, nil
}

// newOutputParams loads the CSS needed by html output.
func newOutputParams(cfg *config.Config) (*outputParams, error) {
	p := &outputParams{format: cfg.Output.Format}
	if p.format != config.FormatHTML {
		return p, nil
	}
	resolver, err := assets.NewResolver(cfg.Assets.BasePath)
	if err != nil {
		return nil, err
	}
	if p.css, err = resolver.LoadStyle(cfg.Output.Style); err != nil {
		return nil, err
	}
	p.html = mdhtml.New()
	return p, nil
}

// resolveOutputDir picks the batch directory: flag, then config, then ".".
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	if cfg.Output.DefaultDir != "" {
		return cfg.Output.DefaultDir
	}
	return "."
}

// convertSingle converts one URL to stdout, a file, or a file in a directory.
func convertSingle(ctx context.Context, pool Pool, url, output string, params *outputParams, env *Environment) error {
	out := pool.Run(ctx, web2md.Request{URL: url})
	if !out.OK() {
		return out.Err()
	}

	content, err := params.render(ctx, out.Markdown, url)
	if err != nil {
		return err
	}
	if output == "" {
		_, err := io.WriteString(env.Stdout, content)
		return err
	}

	path := output
	if isDirTarget(output) {
		name, err := fileutil.OutputName(url, params.ext())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
		path = filepath.Join(output, name)
	}
	return writeOutput(path, content)
}

// isDirTarget reports whether output names a directory rather than a file.
func isDirTarget(output string) bool {
	if strings.HasSuffix(output, "/") || strings.HasSuffix(output, string(os.PathSeparator)) {
		return true
	}
	info, err := os.Stat(output)
	return err == nil && info.IsDir()
}

func writeOutput(path, content string) error {
	if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	if err := os.WriteFile(path, []byte(content), filePermissions); err != nil { // #nosec G306 -- output is meant to be shared
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}

// convertBatch converts urls concurrently, bounded by the pool size.
// Results keep the input order. progress is called as each run completes.
func convertBatch(ctx context.Context, pool Pool, urls []string, outDir string, params *outputParams, progress func(done, total int, r ConversionResult)) []ConversionResult {
	results := make([]ConversionResult, len(urls))

	var (
		mu   sync.Mutex
		done int
	)

	var g errgroup.Group
	g.SetLimit(pool.Size())
	for i, url := range urls {
		g.Go(func() error {
			r := convertOne(ctx, pool, url, outDir, params)
			results[i] = r

			mu.Lock()
			done++
			progress(done, len(urls), r)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers report failures in results

	return results
}

// convertOne runs one URL of a batch and writes its file.
func convertOne(ctx context.Context, pool Pool, url, outDir string, params *outputParams) ConversionResult {
	start := time.Now()
	r := ConversionResult{URL: url}

	name, err := fileutil.OutputName(url, params.ext())
	if err != nil {
		r.Err = fmt.Errorf("%w: %v", ErrWriteOutput, err)
		return r
	}

	out := pool.Run(ctx, web2md.Request{URL: url})
	r.Duration = time.Since(start)
	if !out.OK() {
		r.Err = out.Err()
		return r
	}

	content, err := params.render(ctx, out.Markdown, url)
	if err != nil {
		r.Err = err
		return r
	}
	path := filepath.Join(outDir, name)
	if err := writeOutput(path, content); err != nil {
		r.Err = err
		return r
	}
	r.OutputPath = path
	return r
}

// progressWriter prints one line per completed run unless quiet.
func progressWriter(w io.Writer, quiet bool, s *settings) func(done, total int, r ConversionResult) {
	return func(done, total int, r ConversionResult) {
		if quiet {
			return
		}
		if r.Err != nil {
			fmt.Fprintf(w, "[%d/%d] FAIL %s: %v%s\n", done, total, r.URL, r.Err, hintFor(r.Err, s))
			return
		}
		fmt.Fprintf(w, "[%d/%d] ok   %s -> %s (%s)\n", done, total, r.URL, r.OutputPath, r.Duration.Round(time.Millisecond))
	}
}

// printSummary prints the batch totals and returns the failure count.
// Failures are always listed, even when quiet.
func printSummary(w io.Writer, results []ConversionResult, quiet bool) int {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			if quiet {
				fmt.Fprintf(w, "FAIL %s: %v\n", r.URL, r.Err)
			}
		}
	}
	if !quiet || failed > 0 {
		fmt.Fprintf(w, "%d succeeded, %d failed\n", len(results)-failed, failed)
	}
	return failed
}

func succeededFiles(results []ConversionResult) []string {
	var files []string
	for _, r := range results {
		if r.Err == nil && r.OutputPath != "" {
			files = append(files, r.OutputPath)
		}
	}
	return files
}
