package domain

import (
	"context"
	"net/http"
	"time"
)

// Detector classifies the content type behind a URL. Detectors are held
// by a registry and tried in ascending priority order; a detector that
// cannot decide abstains by returning an error.
type Detector interface {
	// Name returns the detector name.
	Name() string
	// Priority orders detectors; lower values are tried first.
	Priority() int
	// CanHandle reports whether this detector applies to the URL.
	CanHandle(url string) bool
	// Detect classifies the URL.
	Detect(ctx context.Context, url string) (*Classification, error)
}

// FetchStrategy retrieves the content behind a URL.
type FetchStrategy interface {
	// Name returns the strategy name.
	Name() string
	// CanHandle reports whether this strategy can fetch the URL.
	CanHandle(url string) bool
	// Fetch retrieves the content.
	Fetch(ctx context.Context, url string) (*FetchedContent, error)
	// BatchWindow is the bounded concurrency window for multi-URL
	// batches run against this strategy.
	BatchWindow() int
}

// Processor transforms fetched bytes into structured content.
type Processor interface {
	// Name returns the processor name.
	Name() string
	// Priority orders processors; lower values are tried first.
	Priority() int
	// CanProcess reports whether this processor handles the content.
	CanProcess(content *FetchedContent) bool
	// Process transforms the content.
	Process(ctx context.Context, content *FetchedContent) (*ProcessedContent, error)
}

// Fetcher is the low-level HTTP client used by fetch strategies and
// header-based detection.
type Fetcher interface {
	// Get fetches content from a URL.
	Get(ctx context.Context, url string) (*Response, error)
	// GetWithHeaders fetches content with custom headers.
	GetWithHeaders(ctx context.Context, url string, headers map[string]string) (*Response, error)
	// Head performs a HEAD request and returns headers only.
	Head(ctx context.Context, url string) (*Response, error)
	// Close releases resources.
	Close() error
}

// Response represents an HTTP response.
type Response struct {
	StatusCode  int
	Body        []byte
	Headers     http.Header
	ContentType string
	URL         string
	FromCache   bool
}

// Renderer is a JavaScript-capable page renderer.
type Renderer interface {
	// Render fetches and renders a page with JavaScript.
	Render(ctx context.Context, url string, opts RenderOptions) (string, error)
	// Close releases browser resources.
	Close() error
}

// RenderOptions contains options for page rendering.
type RenderOptions struct {
	Timeout     time.Duration
	WaitFor     string        // CSS selector to wait for
	WaitStable  time.Duration // Wait for network idle
	ScrollToEnd bool          // Scroll to load lazy content
	Cookies     []*http.Cookie
}

// Cache is the content cache behind the fetcher.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Has(ctx context.Context, key string) bool
	Delete(ctx context.Context, key string) error
	Close() error
}

// URLInfoRepository is the dedup bookkeeping store consumed by the
// change detector.
type URLInfoRepository interface {
	// GetByURL returns the record for a URL, or ErrNotFound.
	GetByURL(ctx context.Context, url string) (*URLInfo, error)
	// UpdateHash updates the stored hash for an existing record.
	UpdateHash(ctx context.Context, url, hash string, metadata map[string]string) error
	// Register creates a record for a previously unseen URL.
	Register(ctx context.Context, info *URLInfo) error
	// Remove deletes the record for a URL.
	Remove(ctx context.Context, url string) error
}

// KnowledgeStore persists knowledge entries.
type KnowledgeStore interface {
	// Store persists an entry, replacing any prior entry with the same ID.
	Store(ctx context.Context, entry *KnowledgeEntry) error
	// Retrieve returns an entry by ID, or ErrNotFound.
	Retrieve(ctx context.Context, id string) (*KnowledgeEntry, error)
}

// BlobStore persists raw fetched bytes.
type BlobStore interface {
	// Store writes bytes under name and returns the storage path.
	Store(ctx context.Context, data []byte, name string, metadata map[string]string) (string, error)
}
