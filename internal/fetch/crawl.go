package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quantmind-br/kbingest-go/internal/bridge"
	"github.com/quantmind-br/kbingest-go/internal/domain"
)

const (
	// CrawlStrategyName is the registry name of the Python crawler
	// strategy.
	CrawlStrategyName = "crawl"
	// crawlBatchWindow is small: each fetch spawns a Python process
	// that drives its own browser.
	crawlBatchWindow = 2
)

// crawlContract is the response shape the crawler wrapper must honor.
// "html" is the payload this strategy exists for, so it is a hard
// requirement; the rest degrades gracefully.
var crawlContract = bridge.Contract{
	Fields: []bridge.FieldSpec{
		{Name: "success", Type: bridge.TypeBool, Required: true},
		{Name: "html", Type: bridge.TypeString, Required: true},
		{Name: "url", Type: bridge.TypeString},
		{Name: "markdown", Type: bridge.TypeString},
		{Name: "metadata", Type: bridge.TypeObject},
		{Name: "status_code", Type: bridge.TypeNumber},
	},
}

// CrawlStrategy fetches through an external Python crawler wrapper for
// sites that defeat both the stealth client and plain headless
// rendering. The wrapper receives a single JSON config object (the URL
// plus crawl options) as its one argv entry and answers with one JSON
// document on stdout.
type CrawlStrategy struct {
	bridge  *bridge.Bridge
	script  string
	timeout time.Duration
}

// CrawlOptions configures the crawler strategy.
type CrawlOptions struct {
	// Script is the path to the crawler wrapper script.
	Script string
	// Timeout bounds one wrapper invocation. Zero means the bridge
	// default.
	Timeout time.Duration
}

// NewCrawlStrategy creates the Python-crawler fetch strategy.
func NewCrawlStrategy(b *bridge.Bridge, opts CrawlOptions) *CrawlStrategy {
	return &CrawlStrategy{
		bridge:  b,
		script:  opts.Script,
		timeout: opts.Timeout,
	}
}

func (s *CrawlStrategy) Name() string { return CrawlStrategyName }

func (s *CrawlStrategy) BatchWindow() int { return crawlBatchWindow }

func (s *CrawlStrategy) CanHandle(url string) bool {
	return s.script != "" && hasWebScheme(url)
}

func (s *CrawlStrategy) Fetch(ctx context.Context, url string) (*domain.FetchedContent, error) {
	// One config object in argv[1]; the wrapper reads the URL and any
	// tuning knobs out of it.
	args := []any{map[string]any{
		"url":                  url,
		"word_count_threshold": 10,
	}}
	result := s.bridge.Invoke(ctx, s.bridge.Interpreter(), s.script, args, s.timeout)

	if result.TimedOut {
		return nil, domain.NewFetchError(url, 0, fmt.Errorf("crawler: %w", domain.ErrTimeout))
	}
	if !result.Success {
		status := statusCodeOf(result.Data)
		return nil, domain.NewFetchError(url, status, fmt.Errorf("crawler: %s", result.Error))
	}

	report := bridge.ValidateResponse(result.Data, crawlContract)
	if !report.Valid() {
		return nil, domain.NewFetchError(url, 0,
			fmt.Errorf("crawler response contract: %s", strings.Join(report.Errors, "; ")))
	}

	html, _ := result.Data["html"].(string)
	return &domain.FetchedContent{
		URL:      url,
		Bytes:    []byte(html),
		MimeType: "text/html; charset=utf-8",
		Size:     int64(len(html)),
		Strategy: s.Name(),
	}, nil
}

func statusCodeOf(data map[string]any) int {
	if data == nil {
		return 0
	}
	if f, ok := data["status_code"].(float64); ok {
		return int(f)
	}
	return 0
}
