// Package mdhtml renders converted Markdown as a standalone, sanitized HTML
// page for the html output format.
package mdhtml

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// pageTemplate wraps the rendered fragment in an HTML5 document.
const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
%s
</style>
</head>
<body>
%s
</body>
</html>`

// Converter renders Markdown to HTML. Safe for concurrent use.
type Converter struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New creates a Converter with GFM extensions and class-based syntax
// highlighting.
func New() *Converter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithXHTML(),
		),
	)

	// OCR text comes from arbitrary pages: keep UGC markup only, plus the
	// classes chroma emits and heading ids.
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").OnElements("span", "pre", "code", "div")
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")

	return &Converter{md: md, policy: policy}
}

// Fragment converts markdown to sanitized HTML without a document wrapper.
// Supports context cancellation via goroutine + select pattern since
// Goldmark doesn't natively support context.
func (c *Converter) Fragment(ctx context.Context, markdown string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(markdown), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: c.policy.Sanitize(buf.String())}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

// Page converts markdown to a complete HTML document titled title, with css
// inlined in the head.
func (c *Converter) Page(ctx context.Context, markdown, title, css string) (string, error) {
	body, err := c.Fragment(ctx, markdown)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(pageTemplate, html.EscapeString(title), sanitizeCSS(css), body), nil
}

var closeTagPattern = regexp.MustCompile(`(?i)</`)

// sanitizeCSS stops a style sheet from closing the style element.
func sanitizeCSS(css string) string {
	return closeTagPattern.ReplaceAllString(css, `<\/`)
}
