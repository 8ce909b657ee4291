package web2md

import (
	"errors"
	"testing"
)

func TestRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{name: "https", url: "https://example.com"},
		{name: "http with path", url: "http://example.com/a/b?c=d"},
		{name: "file", url: "file:///tmp/page.html"},
		{name: "data", url: "data:text/html,<h1>hi</h1>"},
		{name: "surrounding spaces", url: "  https://example.com  "},
		{name: "empty", url: "", wantErr: ErrEmptyURL},
		{name: "blank", url: "   ", wantErr: ErrEmptyURL},
		{name: "no scheme", url: "example.com", wantErr: ErrInvalidURL},
		{name: "ftp", url: "ftp://example.com", wantErr: ErrInvalidURL},
		{name: "javascript", url: "javascript:alert(1)", wantErr: ErrInvalidURL},
		{name: "missing host", url: "https:///path", wantErr: ErrInvalidURL},
		{name: "unparseable", url: "http://[::1", wantErr: ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Request{URL: tt.url}.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate(%q) = %v, want %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestOutcome(t *testing.T) {
	t.Parallel()

	ok := Outcome{URL: "https://example.com", Markdown: "abc"}
	if !ok.OK() || ok.Err() != nil {
		t.Errorf("success outcome: OK()=%v Err()=%v", ok.OK(), ok.Err())
	}
	if ok.String() != "https://example.com: ok (3 chars)" {
		t.Errorf("String() = %q", ok.String())
	}

	failed := Outcome{URL: "https://example.com", Failure: &Failure{Kind: KindTimeout, Message: "too slow"}}
	if failed.OK() {
		t.Error("failed outcome reports OK")
	}
	var ce *ConversionError
	if err := failed.Err(); !errors.As(err, &ce) || ce.Kind != KindTimeout || err.Error() != "too slow" {
		t.Errorf("Err() = %v", err)
	}
}

func TestState(t *testing.T) {
	t.Parallel()

	for s, want := range map[State]string{
		StateIdle:       "idle",
		StateRendering:  "rendering",
		StateExtracting: "extracting",
		StateDone:       "done",
		StateFailed:     "failed",
		State(42):       "state(42)",
	} {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), s.String(), want)
		}
	}
	if !StateDone.Terminal() || !StateFailed.Terminal() || StateExtracting.Terminal() {
		t.Error("Terminal() misreports")
	}
}

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "crlf", in: "a\r\nb\rc", want: "a\nb\nc"},
		{name: "blank lines compressed", in: "a\n\n\n\n\nb", want: "a\n\nb"},
		{name: "trailing spaces", in: "a   \nb\t\nc", want: "a\nb\nc"},
		{name: "outer whitespace", in: "\n\n  # Title\n\n", want: "# Title"},
		{name: "markdown fence", in: "```markdown\n# T\n```", want: "# T"},
		{name: "md fence", in: "```md\n- a\n- b\n```", want: "- a\n- b"},
		{name: "bare fence", in: "```\ntext\n```", want: "text"},
		{name: "inner code block kept", in: "# T\n\n```go\nx := 1\n```", want: "# T\n\n```go\nx := 1\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := normalizeText(tt.in); got != tt.want {
				t.Errorf("normalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
