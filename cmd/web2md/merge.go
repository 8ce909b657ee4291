package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Merge layout.
const (
	mergeHeader      = "# Merged Markdown Documents"
	mergeStampLayout = "20060102_150405"
	mergeDateLayout  = "2006-01-02 15:04:05"
)

// mergeMarkdown concatenates files, sorted by name, into
// <dir>/<name>_merged_<YYYYMMDD_HHMMSS>.md and returns its path.
// Each file becomes a section headed by its base name.
func mergeMarkdown(dir, name string, files []string, now time.Time) (string, error) {
	if err := validateMergeName(name); err != nil {
		return "", err
	}

	sorted := slices.Clone(files)
	slices.SortFunc(sorted, func(a, b string) int {
		return strings.Compare(filepath.Base(a), filepath.Base(b))
	})

	var buf bytes.Buffer
	fmt.Fprintln(&buf, mergeHeader)
	fmt.Fprintf(&buf, "*Generated on: %s*\n\n", now.Format(mergeDateLayout))

	for _, path := range sorted {
		content, err := os.ReadFile(path) // #nosec G304 -- files were written by this run
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
		fmt.Fprintf(&buf, "\n---\n## Source: %s\n\n", filepath.Base(path))
		buf.Write(content)
		buf.WriteByte('\n')
	}

	out := filepath.Join(dir, fmt.Sprintf("%s_merged_%s.md", name, now.Format(mergeStampLayout)))
	if err := os.WriteFile(out, buf.Bytes(), filePermissions); err != nil { // #nosec G306 -- output is meant to be shared
		return "", fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return out, nil
}

// validateMergeName rejects names that would escape the output directory.
func validateMergeName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return usageError("--merge must be a plain file name, got %q", name)
	}
	return nil
}
