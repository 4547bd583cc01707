package process

import (
	"context"
	"unicode/utf8"

	"github.com/quantmind-br/kbingest-go/internal/converter"
	"github.com/quantmind-br/kbingest-go/internal/domain"
)

// TextProcessor is the last-resort processor: any payload that decodes
// as UTF-8 text gets stored as plain text rather than rejected.
type TextProcessor struct {
	reader *converter.PlainTextReader
}

// NewTextProcessor creates the plain-text fallback processor.
func NewTextProcessor() *TextProcessor {
	return &TextProcessor{reader: converter.NewPlainTextReader()}
}

func (p *TextProcessor) Name() string { return "text" }

func (p *TextProcessor) Priority() int { return 90 }

func (p *TextProcessor) CanProcess(content *domain.FetchedContent) bool {
	return utf8.Valid(content.Bytes)
}

func (p *TextProcessor) Process(ctx context.Context, content *domain.FetchedContent) (*domain.ProcessedContent, error) {
	return p.reader.Read(string(content.Bytes), content.URL)
}
