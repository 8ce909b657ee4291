package web2md

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Request identifies the page to convert.
type Request struct {
	URL string `json:"url"`
}

// allowedSchemes lists the URL schemes a Request may use. file and data
// are accepted for local pages.
var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"file":  true,
	"data":  true,
}

// Validate checks the URL is present, absolute and uses a supported scheme.
func (r Request) Validate() error {
	raw := strings.TrimSpace(r.URL)
	if raw == "" {
		return ErrEmptyURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !allowedSchemes[strings.ToLower(u.Scheme)] {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if (u.Scheme == "http" || u.Scheme == "https") && u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

// Capture is a full-page screenshot produced by a render session.
type Capture struct {
	Image      []byte
	PageURL    string
	Status     int // HTTP status of the main document, 0 if unknown
	CapturedAt time.Time
}

// Extraction is the text recognized in a capture.
type Extraction struct {
	Text      string
	SourceURL string // page the text was read from, after redirects
	Backend   string
}

// Failure describes why a run did not produce Markdown.
type Failure struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Outcome is the result of one conversion run. A nil Failure means success,
// in which case Markdown may still be empty when the page had no readable text.
type Outcome struct {
	RunID    string        `json:"run_id"`
	URL      string        `json:"url"`
	Markdown string        `json:"markdown"`
	Failure  *Failure      `json:"failure,omitempty"`
	Duration time.Duration `json:"duration"`
}

// OK reports whether the run succeeded.
func (o Outcome) OK() bool {
	return o.Failure == nil
}

// String renders a short description for logs.
func (o Outcome) String() string {
	if o.OK() {
		return fmt.Sprintf("%s: ok (%d chars)", o.URL, len(o.Markdown))
	}
	return fmt.Sprintf("%s: %s: %s", o.URL, o.Failure.Kind, strings.TrimSpace(o.Failure.Message))
}

// Err returns the failure as a *ConversionError, or nil on success.
func (o Outcome) Err() error {
	if o.Failure == nil {
		return nil
	}
	return &ConversionError{Kind: o.Failure.Kind, URL: o.URL, Err: fmt.Errorf("%s", o.Failure.Message)}
}

// State is the lifecycle position of a run.
type State int

const (
	StateIdle State = iota
	StateRendering
	StateExtracting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRendering:
		return "rendering"
	case StateExtracting:
		return "extracting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
