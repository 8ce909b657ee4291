package main

import (
	"errors"
	"fmt"

	web2md "github.com/alnah/go-web2md"
	"github.com/alnah/go-web2md/internal/assets"
	"github.com/alnah/go-web2md/internal/config"
	"github.com/alnah/go-web2md/internal/hints"
	"github.com/alnah/go-web2md/internal/ocr"
)

// withHint appends an actionable hint to err when one applies.
// s may be nil before settings are resolved.
func withHint(err error, s *settings) error {
	if err == nil {
		return nil
	}
	if h := hintFor(err, s); h != "" {
		return fmt.Errorf("%w%s", err, h)
	}
	return err
}

// hintFor returns the hint for err, or "".
func hintFor(err error, s *settings) string {
	switch {
	case errors.Is(err, web2md.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, web2md.ErrNavigation):
		return hints.ForNavigation()
	case errors.Is(err, web2md.ErrRenderTimeout):
		return hints.ForTimeout()
	case errors.Is(err, web2md.ErrBackendUnavailable):
		if s == nil {
			return ""
		}
		if s.backend() == ocr.VisionName {
			if s.apiKey == "" {
				return hints.ForAPIKey()
			}
			return ""
		}
		return hints.ForTesseract(s.cfg.OCR.Languages)
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(config.SearchPaths("config"))
	case errors.Is(err, assets.ErrStyleNotFound):
		return hints.ForStyleNotFound(assets.StyleNames())
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutputDirectory()
	}
	return ""
}

// backend returns the OCR backend a converter will pick.
func (s *settings) backend() string {
	if s.cfg.OCR.Backend != "" {
		return s.cfg.OCR.Backend
	}
	if s.apiKey != "" {
		return ocr.VisionName
	}
	return ocr.TesseractName
}
