// Package process transforms fetched bytes into structured text through
// a priority-ordered processor registry. HTML, PDF, and markdown have
// native processors; office formats and scanned documents go through an
// external extractor; plain text is the last resort.
package process

import (
	"context"

	"github.com/quantmind-br/kbingest-go/internal/domain"
	"github.com/quantmind-br/kbingest-go/internal/registry"
	"github.com/quantmind-br/kbingest-go/internal/utils"
)

// Engine resolves fetched content to processed content.
type Engine struct {
	registry *registry.Registry[*domain.FetchedContent, *domain.ProcessedContent]
	logger   *utils.Logger
}

// EngineOptions contains options for creating an Engine.
type EngineOptions struct {
	// Processors are added in addition to (or instead of) the defaults.
	Processors []domain.Processor
	// NoDefaults suppresses the built-in processor set.
	NoDefaults bool
	// Docling, when non-nil, registers the external-extractor processor.
	Docling *DoclingProcessor
	Logger  *utils.Logger
}

// NewEngine creates an Engine. Unless NoDefaults is set, the HTML, PDF,
// markdown, and plain-text processors are registered.
func NewEngine(opts EngineOptions) *Engine {
	if opts.Logger == nil {
		opts.Logger = utils.NewDefaultLogger()
	}

	e := &Engine{
		registry: registry.New[*domain.FetchedContent, *domain.ProcessedContent](),
		logger:   opts.Logger.WithComponent("processor"),
	}

	if !opts.NoDefaults {
		e.AddProcessor(NewHTMLProcessor())
		e.AddProcessor(NewPDFProcessor())
		e.AddProcessor(NewMarkdownProcessor())
		e.AddProcessor(NewTextProcessor())
	}
	if opts.Docling != nil {
		e.AddProcessor(opts.Docling)
	}
	for _, p := range opts.Processors {
		e.AddProcessor(p)
	}

	return e
}

// AddProcessor registers a processor.
func (e *Engine) AddProcessor(p domain.Processor) {
	e.registry.Add(&processorCandidate{p})
}

// RemoveProcessor unregisters a processor by name.
func (e *Engine) RemoveProcessor(name string) bool {
	return e.registry.Remove(name)
}

// Process resolves the content against the processor registry. A
// content payload no processor accepts yields domain.ErrUnresolved.
func (e *Engine) Process(ctx context.Context, content *domain.FetchedContent) (*domain.ProcessedContent, error) {
	result, winner, err := e.registry.Resolve(ctx, content)
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Str("url", content.URL).
		Str("processor", winner).
		Int("chars", len(result.Text)).
		Msg("Processed content")

	return result, nil
}

// processorCandidate adapts domain.Processor to the registry candidate
// contract.
type processorCandidate struct {
	p domain.Processor
}

func (a *processorCandidate) Name() string  { return a.p.Name() }
func (a *processorCandidate) Priority() int { return a.p.Priority() }
func (a *processorCandidate) CanHandle(content *domain.FetchedContent) bool {
	return a.p.CanProcess(content)
}
func (a *processorCandidate) Apply(ctx context.Context, content *domain.FetchedContent) (*domain.ProcessedContent, error) {
	return a.p.Process(ctx, content)
}
