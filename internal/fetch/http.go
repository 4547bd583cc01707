package fetch

import (
	"context"
	"strings"

	"github.com/quantmind-br/kbingest-go/internal/domain"
)

const (
	// HTTPStrategyName is the registry name of the plain HTTP strategy.
	HTTPStrategyName = "http"
	// httpBatchWindow bounds concurrent requests against one host set.
	httpBatchWindow = 5
)

// HTTPStrategy fetches over plain HTTP using the stealth client. It is
// the workhorse strategy and the usual registry default.
type HTTPStrategy struct {
	fetcher domain.Fetcher
}

// NewHTTPStrategy creates the HTTP fetch strategy.
func NewHTTPStrategy(fetcher domain.Fetcher) *HTTPStrategy {
	return &HTTPStrategy{fetcher: fetcher}
}

func (s *HTTPStrategy) Name() string { return HTTPStrategyName }

func (s *HTTPStrategy) BatchWindow() int { return httpBatchWindow }

func (s *HTTPStrategy) CanHandle(url string) bool {
	return hasWebScheme(url)
}

func (s *HTTPStrategy) Fetch(ctx context.Context, url string) (*domain.FetchedContent, error) {
	resp, err := s.fetcher.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	return contentFromResponse(url, s.Name(), resp), nil
}

func contentFromResponse(url, strategy string, resp *domain.Response) *domain.FetchedContent {
	return &domain.FetchedContent{
		URL:      url,
		Bytes:    resp.Body,
		MimeType: resp.ContentType,
		Size:     int64(len(resp.Body)),
		Headers:  resp.Headers,
		Strategy: strategy,
	}
}

func hasWebScheme(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
