package detect

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/quantmind-br/kbingest-go/internal/domain"
)

// sniffLimit matches http.DetectContentType's window.
const sniffLimit = 512

// SniffDetector classifies by sniffing the first body bytes. It is the
// most expensive detector — a full GET — and the least certain, so it
// runs last.
type SniffDetector struct {
	fetcher domain.Fetcher
}

// NewSniffDetector creates a SniffDetector backed by the fetcher.
func NewSniffDetector(fetcher domain.Fetcher) *SniffDetector {
	return &SniffDetector{fetcher: fetcher}
}

func (d *SniffDetector) Name() string  { return "sniff" }
func (d *SniffDetector) Priority() int { return 30 }

// CanHandle accepts http(s) URLs only.
func (d *SniffDetector) CanHandle(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Detect fetches the body and sniffs its magic bytes, confidence 0.7.
func (d *SniffDetector) Detect(ctx context.Context, rawURL string) (*domain.Classification, error) {
	resp, err := d.fetcher.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return nil, fmt.Errorf("empty body for %s", rawURL)
	}

	window := resp.Body
	if len(window) > sniffLimit {
		window = window[:sniffLimit]
	}

	contentType := http.DetectContentType(window)
	kind := KindFromMime(contentType)
	if kind == domain.KindUnknown {
		return nil, fmt.Errorf("sniff inconclusive: %q", contentType)
	}

	c := &domain.Classification{
		Kind:       kind,
		MimeType:   contentType,
		Confidence: 0.7,
		Metadata:   map[string]string{"detector": d.Name(), "sniffed_type": contentType},
	}
	c.ClampConfidence()
	return c, nil
}
