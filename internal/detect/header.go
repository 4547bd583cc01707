package detect

import (
	"context"
	"fmt"
	"strings"

	"github.com/quantmind-br/kbingest-go/internal/domain"
)

// HeaderDetector classifies by the server-reported Content-Type from a
// HEAD request. It abstains (returns an error) on network failure so a
// cheaper detector's answer — or a later sniff — can stand.
type HeaderDetector struct {
	fetcher domain.Fetcher
}

// NewHeaderDetector creates a HeaderDetector backed by the fetcher.
func NewHeaderDetector(fetcher domain.Fetcher) *HeaderDetector {
	return &HeaderDetector{fetcher: fetcher}
}

func (d *HeaderDetector) Name() string  { return "header" }
func (d *HeaderDetector) Priority() int { return 20 }

// CanHandle accepts http(s) URLs only.
func (d *HeaderDetector) CanHandle(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Detect issues a HEAD request and maps the Content-Type, confidence
// 0.9 — the server knows its own content.
func (d *HeaderDetector) Detect(ctx context.Context, rawURL string) (*domain.Classification, error) {
	resp, err := d.fetcher.Head(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	contentType := resp.ContentType
	if contentType == "" {
		return nil, fmt.Errorf("no content type for %s", rawURL)
	}

	kind := KindFromMime(contentType)
	if kind == domain.KindUnknown {
		return nil, fmt.Errorf("unrecognized content type %q", contentType)
	}

	c := &domain.Classification{
		Kind:       kind,
		MimeType:   contentType,
		Confidence: 0.9,
		Metadata:   map[string]string{"detector": d.Name(), "content_type": contentType},
	}
	c.ClampConfidence()
	return c, nil
}
