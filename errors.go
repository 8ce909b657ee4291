package web2md

import (
	"errors"
	"fmt"
)

// Sentinel errors for library operations.
var (
	ErrEmptyURL       = errors.New("URL is required")
	ErrInvalidURL     = errors.New("invalid URL")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPoolClosed     = errors.New("converter pool is closed")

	// Render failures.
	ErrNavigation    = errors.New("navigation failed")
	ErrRenderTimeout = errors.New("page did not settle before timeout")
	ErrCaptureFailed = errors.New("screenshot capture failed")

	// Extraction failures.
	ErrBackendUnavailable = errors.New("OCR backend unavailable")
	ErrNoText             = errors.New("no text recognized")
	ErrMalformedResponse  = errors.New("malformed OCR response")

	// Resource failures. Never surfaced to callers, only logged.
	ErrCleanupFailed = errors.New("resource cleanup failed")
)

// Kind classifies a conversion failure.
type Kind string

// Failure kinds. The zero Kind means no failure.
const (
	KindInvalidRequest     Kind = "invalid_request"
	KindNavigation         Kind = "navigation"
	KindTimeout            Kind = "timeout"
	KindCaptureFailed      Kind = "capture_failed"
	KindBackendUnavailable Kind = "backend_unavailable"
	KindNoText             Kind = "no_text"
	KindMalformed          Kind = "malformed"
	KindCleanupFailed      Kind = "cleanup_failed"
	KindInternal           Kind = "internal"
)

var kindSentinels = map[Kind]error{
	KindNavigation:         ErrNavigation,
	KindTimeout:            ErrRenderTimeout,
	KindCaptureFailed:      ErrCaptureFailed,
	KindBackendUnavailable: ErrBackendUnavailable,
	KindNoText:             ErrNoText,
	KindMalformed:          ErrMalformedResponse,
	KindCleanupFailed:      ErrCleanupFailed,
}

// RenderError reports a failure while loading or capturing a page.
type RenderError struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind, so errors.Is(err, ErrRenderTimeout)
// holds for a timeout regardless of the underlying cause.
func (e *RenderError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// ExtractionError reports a failure while recognizing text in a capture.
type ExtractionError struct {
	Kind    Kind
	Backend string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract (%s): %s: %v", e.Backend, e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// ResourceError reports a failure to release a run-scoped resource.
type ResourceError struct {
	Resource string
	Err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("release %s: %v", e.Resource, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

func (e *ResourceError) Is(target error) bool {
	return target == ErrCleanupFailed
}

// ConversionError is returned by Converter.Convert. It carries the same
// kind and message that Run reports in Outcome.Failure.
type ConversionError struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *ConversionError) Error() string {
	return e.Err.Error()
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Is matches the sentinel of e.Kind, so errors from Outcome.Err classify
// the same way as those returned by Convert.
func (e *ConversionError) Is(target error) bool {
	if e.Kind == KindInvalidRequest {
		return target == ErrEmptyURL || target == ErrInvalidURL
	}
	s, ok := kindSentinels[e.Kind]
	return ok && target == s
}

// KindOf classifies err. Errors outside the taxonomy are KindInternal, nil is "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var re *RenderError
	if errors.As(err, &re) {
		return re.Kind
	}
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if errors.Is(err, ErrEmptyURL) || errors.Is(err, ErrInvalidURL) {
		return KindInvalidRequest
	}
	if errors.Is(err, ErrCleanupFailed) {
		return KindCleanupFailed
	}
	return KindInternal
}
