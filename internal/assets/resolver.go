package assets

import "errors"

// Resolver tries a custom directory first and falls back to embedded assets
// when the custom location does not have the requested asset.
type Resolver struct {
	custom   Loader // nil if no custom path configured
	embedded Loader
}

// NewResolver creates a Resolver. An empty customBasePath uses embedded
// assets only.
func NewResolver(customBasePath string) (*Resolver, error) {
	r := &Resolver{embedded: NewEmbeddedLoader()}
	if customBasePath != "" {
		fsLoader, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		r.custom = fsLoader
	}
	return r, nil
}

// LoadPrompt loads a prompt, custom first.
func (r *Resolver) LoadPrompt(name string) (string, error) {
	return r.loadWithFallback(func(l Loader) (string, error) { return l.LoadPrompt(name) })
}

// LoadStyle loads a style, custom first.
func (r *Resolver) LoadStyle(name string) (string, error) {
	return r.loadWithFallback(func(l Loader) (string, error) { return l.LoadStyle(name) })
}

func (r *Resolver) loadWithFallback(loadFn func(Loader) (string, error)) (string, error) {
	if r.custom == nil {
		return loadFn(r.embedded)
	}
	content, err := loadFn(r.custom)
	if err == nil {
		return content, nil
	}
	// Only "not found" falls through; validation and I/O errors surface.
	if !errors.Is(err, ErrStyleNotFound) && !errors.Is(err, ErrPromptNotFound) {
		return "", err
	}
	return loadFn(r.embedded)
}

// HasCustomLoader returns true if a custom directory is configured.
func (r *Resolver) HasCustomLoader() bool {
	return r.custom != nil
}

// Compile-time interface check.
var _ Loader = (*Resolver)(nil)
