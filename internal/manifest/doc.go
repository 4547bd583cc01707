// Package manifest provides types and utilities for loading and validating
// ingestion manifest files. A manifest defines multiple source URLs with
// per-source tags and strategy pins, enabling batch ingestion.
//
// # Manifest Format
//
// Manifests can be written in YAML or JSON format:
//
//	sources:
//	  - url: https://docs.example.com/guide
//	    tags: [docs, example]
//	  - url: https://spa.example.com
//	    strategy: browser
//	options:
//	  concurrency: 3
//	  tags: [imported]
//
// # Usage
//
// Load a manifest file:
//
//	loader := manifest.NewLoader()
//	cfg, err := loader.Load("sources.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, source := range cfg.Sources {
//	    // Process each source
//	}
//
// # Error Handling
//
// The package defines sentinel errors for common failure cases:
//   - ErrNoSources: manifest has no sources defined
//   - ErrEmptyURL: source is missing required URL field
//   - ErrInvalidFormat: file is not valid YAML/JSON
//   - ErrFileNotFound: manifest file does not exist
//   - ErrUnsupportedExt: unsupported file extension
package manifest
