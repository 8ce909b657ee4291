package web2md

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alnah/go-web2md/internal/imageprep"
	"github.com/alnah/go-web2md/internal/ocr"
)

// TextExtractor recognizes text in a stored capture.
type TextExtractor interface {
	Extract(ctx context.Context, imagePath string) (*Extraction, error)
}

// Compile-time interface check.
var _ TextExtractor = (*OCRExtractor)(nil)

// OCRExtractor adapts an ocr.Engine to TextExtractor. It prepares the image,
// runs the engine on each tile and classifies every failure as an
// *ExtractionError.
type OCRExtractor struct {
	engine    ocr.Engine
	limits    imageprep.Limits
	languages []string
}

// NewOCRExtractor wraps engine. Zero limits use imageprep.DefaultLimits.
func NewOCRExtractor(engine ocr.Engine, limits imageprep.Limits, languages ...string) *OCRExtractor {
	if limits == (imageprep.Limits{}) {
		limits = imageprep.DefaultLimits
	}
	return &OCRExtractor{engine: engine, limits: limits, languages: languages}
}

// Backend returns the engine name.
func (x *OCRExtractor) Backend() string {
	return x.engine.Name()
}

// Extract reads the PNG at imagePath and returns its text. Blank output is
// reported as an ExtractionError of kind KindNoText.
func (x *OCRExtractor) Extract(ctx context.Context, imagePath string) (*Extraction, error) {
	data, err := os.ReadFile(imagePath) // #nosec G304 -- path comes from the asset store
	if err != nil {
		return nil, x.fail(KindMalformed, fmt.Errorf("reading capture: %w", err))
	}

	tiles, err := imageprep.Split(data, x.limits)
	if err != nil {
		return nil, x.fail(KindMalformed, err)
	}

	parts := make([]string, 0, len(tiles))
	for _, tile := range tiles {
		text, err := x.engine.Recognize(ctx, ocr.Input{Image: tile, Languages: x.languages})
		if err != nil {
			return nil, x.classify(err)
		}
		if t := strings.TrimSpace(text); t != "" {
			parts = append(parts, t)
		}
	}

	if len(parts) == 0 {
		return nil, x.fail(KindNoText, ErrNoText)
	}
	return &Extraction{
		Text:    strings.Join(parts, "\n\n"),
		Backend: x.engine.Name(),
	}, nil
}

func (x *OCRExtractor) classify(err error) error {
	switch {
	case errors.Is(err, ocr.ErrMalformed):
		return x.fail(KindMalformed, err)
	default:
		// Unavailable engines, cancellations and anything unclassified.
		return x.fail(KindBackendUnavailable, err)
	}
}

func (x *OCRExtractor) fail(kind Kind, err error) error {
	return &ExtractionError{Kind: kind, Backend: x.engine.Name(), Err: err}
}
