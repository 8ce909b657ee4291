package main

import (
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	web2md "github.com/alnah/go-web2md"
	"github.com/alnah/go-web2md/internal/assets"
	"github.com/alnah/go-web2md/internal/config"
	"github.com/alnah/go-web2md/internal/fileutil"
	"github.com/alnah/go-web2md/internal/logging"
)

// Exit codes for the web2md CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // All conversions succeeded
	ExitGeneral = 1 // General/unexpected error, or a batch with failures
	ExitUsage   = 2 // Invalid flags, config, or URL
	ExitIO      = 3 // Links file not found, output not writable
	ExitBrowser = 4 // Browser, navigation, or capture errors
	ExitOCR     = 5 // OCR backend unavailable or misbehaving
)

// ErrUsage marks command-line misuse.
var ErrUsage = errors.New("usage error")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, web2md.ErrBrowserConnect) ||
		errors.Is(err, web2md.ErrPageCreate) ||
		errors.Is(err, web2md.ErrNavigation) ||
		errors.Is(err, web2md.ErrRenderTimeout) ||
		errors.Is(err, web2md.ErrCaptureFailed) {
		return ExitBrowser
	}

	// OCR errors (exit 5)
	if errors.Is(err, web2md.ErrBackendUnavailable) ||
		errors.Is(err, web2md.ErrMalformedResponse) {
		return ExitOCR
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadLinks) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, fileutil.ErrExtensionPathTraversal) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, flag.ErrHelp) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, logging.ErrInvalidLevel) ||
		errors.Is(err, web2md.ErrEmptyURL) ||
		errors.Is(err, web2md.ErrInvalidURL) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrPromptNotFound) ||
		errors.Is(err, assets.ErrInvalidBasePath) {
		return ExitUsage
	}

	return ExitGeneral
}
