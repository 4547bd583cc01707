package manifest

import "errors"

// Sentinel errors callers can match with errors.Is.
var (
	// ErrNoSources means the manifest declares no sources at all.
	ErrNoSources = errors.New("manifest must contain at least one source")

	// ErrEmptyURL means a source entry is missing its URL.
	ErrEmptyURL = errors.New("source URL cannot be empty")

	// ErrInvalidFormat means the file did not parse as YAML or JSON.
	ErrInvalidFormat = errors.New("manifest must be valid YAML or JSON")

	// ErrFileNotFound means the manifest path or URL did not resolve.
	ErrFileNotFound = errors.New("manifest file not found")

	// ErrUnsupportedExt means the extension maps to no known format.
	ErrUnsupportedExt = errors.New("unsupported file extension (use .yaml, .yml, or .json)")
)
