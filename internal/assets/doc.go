// Package assets provides the OCR prompts and HTML output styles.
//
// # Loader Architecture
//
//	Loader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (defaults)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── Resolver          - combines both with custom-first fallback
//
// # Directory Structure
//
//	{basePath}/
//	├── prompts/
//	│   └── {name}.md            # system prompt for the vision OCR engine
//	└── styles/
//	    └── {name}.css           # stylesheet for HTML output
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
