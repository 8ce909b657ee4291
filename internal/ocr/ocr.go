// Package ocr defines the text recognition contract and its backends.
//
// Two engines are provided:
//   - tesseract: local recognition through libtesseract (gosseract)
//   - vision: a vision-capable chat model behind an OpenAI-compatible API
//
// Engines return plain text and classify failures with ErrUnavailable and
// ErrMalformed. Empty text is not an error at this level.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors shared by all engines.
var (
	// ErrUnavailable means the engine could not be reached or is not installed.
	ErrUnavailable = errors.New("OCR engine unavailable")
	// ErrMalformed means the engine answered with something that is not text.
	ErrMalformed = errors.New("malformed OCR response")
	// ErrUnknownEngine means no engine is registered under the requested name.
	ErrUnknownEngine = errors.New("unknown OCR engine")
)

// Input is one image submitted for recognition.
type Input struct {
	// Image holds PNG-encoded bytes.
	Image []byte
	// Languages lists Tesseract language codes; ignored by remote engines.
	Languages []string
}

// Engine recognizes text in an image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (string, error)
}

// Settings carries the construction parameters for every engine.
// Fields irrelevant to the selected engine are ignored.
type Settings struct {
	Languages []string

	APIKey  string
	BaseURL string
	Model   string
	Prompt  string
}

// Factory builds an engine from settings.
type Factory func(Settings) (Engine, error)

var factories = map[string]Factory{
	TesseractName: func(s Settings) (Engine, error) {
		return NewTesseractEngine(s.Languages...), nil
	},
	VisionName: func(s Settings) (Engine, error) {
		return NewVisionEngine(VisionConfig{
			APIKey:  s.APIKey,
			BaseURL: s.BaseURL,
			Model:   s.Model,
			Prompt:  s.Prompt,
		})
	},
}

// New builds the engine registered under name.
func New(name string, s Settings) (Engine, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownEngine, name, Names())
	}
	return f(s)
}

// Names lists registered engine names in sorted order.
func Names() []string {
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// runWithContext runs fn on its own goroutine so a blocking call without
// context support still returns promptly on cancellation.
func runWithContext(ctx context.Context, fn func() (string, error)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		text, err := fn()
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.text, r.err
	}
}
