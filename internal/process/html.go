package process

import (
	"context"

	"github.com/quantmind-br/kbingest-go/internal/converter"
	"github.com/quantmind-br/kbingest-go/internal/domain"
)

// HTMLProcessor converts HTML pages to markdown through the full
// extraction pipeline: encoding normalization, readability extraction,
// sanitization, markdown conversion, metadata.
type HTMLProcessor struct {
	contentSelector string
	excludeSelector string
}

// HTMLOptions configures the HTML processor.
type HTMLOptions struct {
	// ContentSelector, when set, extracts only the matching subtree
	// instead of running readability heuristics.
	ContentSelector string
	// ExcludeSelector removes matching elements before conversion.
	ExcludeSelector string
}

// NewHTMLProcessor creates the HTML processor with default extraction.
func NewHTMLProcessor() *HTMLProcessor {
	return &HTMLProcessor{}
}

// NewHTMLProcessorWithOptions creates the HTML processor with custom
// selectors.
func NewHTMLProcessorWithOptions(opts HTMLOptions) *HTMLProcessor {
	return &HTMLProcessor{
		contentSelector: opts.ContentSelector,
		excludeSelector: opts.ExcludeSelector,
	}
}

func (p *HTMLProcessor) Name() string { return "html" }

func (p *HTMLProcessor) Priority() int { return 10 }

func (p *HTMLProcessor) CanProcess(content *domain.FetchedContent) bool {
	return content.MimeType != "" && converter.IsHTMLContent(content.MimeType)
}

func (p *HTMLProcessor) Process(ctx context.Context, content *domain.FetchedContent) (*domain.ProcessedContent, error) {
	pipeline := converter.NewPipeline(converter.PipelineOptions{
		BaseURL:         content.URL,
		ContentSelector: p.contentSelector,
		ExcludeSelector: p.excludeSelector,
	})
	return pipeline.Convert(ctx, string(content.Bytes), content.URL)
}
