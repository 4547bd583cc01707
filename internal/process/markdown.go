package process

import (
	"context"

	"github.com/quantmind-br/kbingest-go/internal/converter"
	"github.com/quantmind-br/kbingest-go/internal/domain"
)

// MarkdownProcessor handles content that is already markdown: it parses
// frontmatter, recovers structure, and passes the body through
// untouched.
type MarkdownProcessor struct {
	reader *converter.MarkdownReader
}

// NewMarkdownProcessor creates the markdown processor.
func NewMarkdownProcessor() *MarkdownProcessor {
	return &MarkdownProcessor{reader: converter.NewMarkdownReader()}
}

func (p *MarkdownProcessor) Name() string { return "markdown" }

func (p *MarkdownProcessor) Priority() int { return 30 }

func (p *MarkdownProcessor) CanProcess(content *domain.FetchedContent) bool {
	return converter.IsMarkdownContent(content.MimeType, content.URL)
}

func (p *MarkdownProcessor) Process(ctx context.Context, content *domain.FetchedContent) (*domain.ProcessedContent, error) {
	return p.reader.Read(string(content.Bytes), content.URL)
}
