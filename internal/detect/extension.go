package detect

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/quantmind-br/kbingest-go/internal/domain"
)

// ExtensionDetector classifies by URL path extension. It is the
// cheapest detector: no network I/O, tried first.
type ExtensionDetector struct{}

// NewExtensionDetector creates an ExtensionDetector.
func NewExtensionDetector() *ExtensionDetector {
	return &ExtensionDetector{}
}

func (d *ExtensionDetector) Name() string  { return "extension" }
func (d *ExtensionDetector) Priority() int { return 10 }

// CanHandle reports whether the URL carries a recognized extension.
func (d *ExtensionDetector) CanHandle(rawURL string) bool {
	return urlExtension(rawURL) != ""
}

// Detect classifies purely from the extension, confidence 0.8 — lower
// than a server-reported content type but available offline.
func (d *ExtensionDetector) Detect(_ context.Context, rawURL string) (*domain.Classification, error) {
	ext := urlExtension(rawURL)
	entry, ok := extensionKinds[ext]
	if !ok {
		return nil, fmt.Errorf("unrecognized extension %q", ext)
	}

	c := &domain.Classification{
		Kind:       entry.kind,
		MimeType:   entry.mimeType,
		Confidence: 0.8,
		Metadata:   map[string]string{"detector": d.Name(), "extension": ext},
	}
	c.ClampConfidence()
	return c, nil
}

// urlExtension returns the lowercased path extension of a URL, with
// query and fragment stripped, or "" when there is none we recognize.
func urlExtension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if _, ok := extensionKinds[ext]; !ok {
		return ""
	}
	return ext
}
