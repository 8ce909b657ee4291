package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMergeMarkdown(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	b := filepath.Join(dir, "b.md")
	a := filepath.Join(dir, "a.md")
	if err := os.WriteFile(b, []byte("B\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(a, []byte("A\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := mergeMarkdown(dir, "site", []string{b, a}, fixedNow)
	if err != nil {
		t.Fatalf("mergeMarkdown() error = %v", err)
	}
	if want := filepath.Join(dir, "site_merged_20261019_083000.md"); got != want {
		t.Errorf("path = %q, want %q", got, want)
	}

	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatal(err)
	}
	want := "# Merged Markdown Documents\n" +
		"*Generated on: 2026-10-19 08:30:00*\n\n" +
		"\n---\n## Source: a.md\n\nA\n\n" +
		"\n---\n## Source: b.md\n\nB\n\n"
	if string(data) != want {
		t.Errorf("merged =\n%q\nwant\n%q", data, want)
	}
}

func TestMergeMarkdown_Empty(t *testing.T) {
	t.Parallel()

	got, err := mergeMarkdown(t.TempDir(), "none", nil, fixedNow)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(got)
	if string(data) != "# Merged Markdown Documents\n*Generated on: 2026-10-19 08:30:00*\n\n" {
		t.Errorf("merged = %q", data)
	}
}

func TestMergeMarkdown_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		merge   string
		files   []string
		wantErr error
	}{
		{name: "empty name", merge: "", wantErr: ErrUsage},
		{name: "dot dot", merge: "..", wantErr: ErrUsage},
		{name: "separator", merge: "a/b", wantErr: ErrUsage},
		{name: "missing input", merge: "x", files: []string{"/nonexistent/a.md"}, wantErr: ErrWriteOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := mergeMarkdown(t.TempDir(), tt.merge, tt.files, fixedNow)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("mergeMarkdown() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
