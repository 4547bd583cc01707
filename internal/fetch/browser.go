package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/quantmind-br/kbingest-go/internal/cache"
	"github.com/quantmind-br/kbingest-go/internal/domain"
)

const (
	// BrowserStrategyName is the registry name of the headless-browser
	// strategy.
	BrowserStrategyName = "browser"
	// browserBatchWindow is small: each render occupies a browser tab.
	browserBatchWindow = 2
)

// BrowserStrategy fetches JavaScript-heavy pages through a headless
// browser. Selection rules route SPA-style sites here; everything else
// should stay on the cheaper HTTP strategy.
type BrowserStrategy struct {
	renderer domain.Renderer
	opts     domain.RenderOptions
	cache    domain.Cache
	cacheTTL time.Duration
}

// NewBrowserStrategy creates the browser fetch strategy.
func NewBrowserStrategy(renderer domain.Renderer, opts domain.RenderOptions) *BrowserStrategy {
	return &BrowserStrategy{renderer: renderer, opts: opts}
}

// SetCache enables caching of rendered pages. Renders are expensive, so
// they are cached under their own key namespace.
func (s *BrowserStrategy) SetCache(c domain.Cache, ttl time.Duration) {
	s.cache = c
	s.cacheTTL = ttl
}

func (s *BrowserStrategy) Name() string { return BrowserStrategyName }

func (s *BrowserStrategy) BatchWindow() int { return browserBatchWindow }

func (s *BrowserStrategy) CanHandle(url string) bool {
	return s.renderer != nil && hasWebScheme(url)
}

func (s *BrowserStrategy) Fetch(ctx context.Context, url string) (*domain.FetchedContent, error) {
	if s.renderer == nil {
		return nil, fmt.Errorf("browser rendering unavailable")
	}

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cache.RenderedKey(url)); err == nil {
			return s.content(url, string(data)), nil
		}
	}

	html, err := s.renderer.Render(ctx, url, s.opts)
	if err != nil {
		return nil, domain.NewFetchError(url, 0, err)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, cache.RenderedKey(url), []byte(html), s.cacheTTL)
	}

	return s.content(url, html), nil
}

func (s *BrowserStrategy) content(url, html string) *domain.FetchedContent {
	return &domain.FetchedContent{
		URL:      url,
		Bytes:    []byte(html),
		MimeType: "text/html; charset=utf-8",
		Size:     int64(len(html)),
		Strategy: s.Name(),
	}
}
