package web2md

import (
	"regexp"
	"strings"
)

// Precompiled regex patterns for performance.
var (
	// Line ending normalization
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// Compress multiple blank lines to max 2
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)

	trailingSpace = regexp.MustCompile(`[ \t]+\n`)

	// Vision models sometimes wrap the whole answer in a fenced block.
	wrappingFence = regexp.MustCompile("(?s)^```(?:markdown|md)?[ \t]*\n(.*?)\n?```$")
)

// normalizeText cleans OCR output into Markdown body text.
func normalizeText(content string) string {
	content = normalizeLineEndings(content)
	content = stripWrappingFence(strings.TrimSpace(content))
	content = trailingSpace.ReplaceAllString(content, "\n")
	content = compressBlankLines(content)
	return strings.TrimSpace(content)
}

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// compressBlankLines limits consecutive blank lines to one.
func compressBlankLines(content string) string {
	return multipleBlankLines.ReplaceAllString(content, "\n\n")
}

func stripWrappingFence(content string) string {
	if m := wrappingFence.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	return content
}
