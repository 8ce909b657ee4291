package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TesseractName is the registry name of the local engine.
const TesseractName = "tesseract"

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "eng"

// tessClient is the subset of *gosseract.Client the engine uses.
type tessClient interface {
	SetLanguage(langs ...string) error
	SetImageFromBytes(data []byte) error
	Text() (string, error)
	Close() error
}

var _ tessClient = (*gosseract.Client)(nil)

// TesseractEngine recognizes text locally through libtesseract.
// A fresh client is created per call, so the engine is safe for concurrent use.
type TesseractEngine struct {
	languages     []string
	clientFactory func() tessClient
}

// NewTesseractEngine constructs a Tesseract-backed engine.
func NewTesseractEngine(languages ...string) *TesseractEngine {
	if len(languages) == 0 {
		languages = []string{DefaultLanguage}
	}
	return &TesseractEngine{
		languages:     languages,
		clientFactory: func() tessClient { return gosseract.NewClient() },
	}
}

func (e *TesseractEngine) Name() string { return TesseractName }

// Recognize runs OCR on a single image.
func (e *TesseractEngine) Recognize(ctx context.Context, in Input) (string, error) {
	langs := in.Languages
	if len(langs) == 0 {
		langs = e.languages
	}
	return runWithContext(ctx, func() (string, error) {
		c := e.clientFactory()
		defer func() { _ = c.Close() }()

		if err := c.SetLanguage(langs...); err != nil {
			return "", fmt.Errorf("%w: set languages %v: %v", ErrUnavailable, langs, err)
		}
		if err := c.SetImageFromBytes(in.Image); err != nil {
			return "", fmt.Errorf("%w: set image: %v", ErrMalformed, err)
		}
		text, err := c.Text()
		if err != nil {
			return "", fmt.Errorf("%w: recognize text: %v", ErrUnavailable, err)
		}
		return text, nil
	})
}

// TesseractVersion reports the linked libtesseract version.
func TesseractVersion() string {
	return gosseract.Version()
}
