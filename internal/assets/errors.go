package assets

import "errors"

// Sentinel errors for asset lookups.
var (
	ErrStyleNotFound  = errors.New("style not found")
	ErrPromptNotFound = errors.New("OCR prompt not found")

	// ErrInvalidAssetName covers names outside [A-Za-z0-9_-], which rules out
	// separators and "..".
	ErrInvalidAssetName = errors.New("invalid asset name")

	ErrInvalidBasePath = errors.New("invalid asset directory")
	ErrAssetRead       = errors.New("reading asset")
	ErrPathTraversal   = errors.New("asset path escapes asset directory")
)
