package assets

import "fmt"

// Default asset names.
const (
	DefaultPromptName = "vision"
	DefaultStyleName  = "default"
)

// Loader defines the contract for loading prompts and styles.
type Loader interface {
	// LoadPrompt loads an OCR prompt by name (without .md extension).
	// Returns ErrPromptNotFound if the prompt doesn't exist.
	LoadPrompt(name string) (string, error)

	// LoadStyle loads a CSS style by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	LoadStyle(name string) (string, error)
}

// maxAssetNameLength bounds prompt and style names.
const maxAssetNameLength = 64

// ValidateAssetName accepts names made of ASCII letters, digits, '-' and '_'.
// Anything else, including separators and dots, could reach outside the
// prompts or styles directory once the extension is appended.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if len(name) > maxAssetNameLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidAssetName, maxAssetNameLength)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
		}
	}
	return nil
}
