// Package detect classifies the content type behind a URL using a
// priority-ordered detector registry: extension, then server headers,
// then content sniffing, in ascending cost order.
package detect

import (
	"context"

	"github.com/quantmind-br/kbingest-go/internal/domain"
	"github.com/quantmind-br/kbingest-go/internal/registry"
	"github.com/quantmind-br/kbingest-go/internal/utils"
)

// MinConfidence is the floor below which a detection result is treated
// as an abstention.
const MinConfidence = 0.5

// Classifier resolves a URL to a Classification.
type Classifier struct {
	registry *registry.Registry[string, *domain.Classification]
	logger   *utils.Logger
}

// ClassifierOptions contains options for creating a Classifier.
type ClassifierOptions struct {
	// Detectors are added to the registry in addition to (or instead
	// of) the defaults.
	Detectors []domain.Detector
	// NoDefaults suppresses the built-in detector set.
	NoDefaults bool
	Fetcher    domain.Fetcher
	Logger     *utils.Logger
}

// NewClassifier creates a Classifier. Unless NoDefaults is set, the
// extension, header, and sniff detectors are registered in that cost
// order.
func NewClassifier(opts ClassifierOptions) *Classifier {
	if opts.Logger == nil {
		opts.Logger = utils.NewDefaultLogger()
	}

	reg := registry.New(registry.WithAccept[string, *domain.Classification](func(c *domain.Classification) bool {
		return c != nil && c.Confidence >= MinConfidence
	}))

	c := &Classifier{
		registry: reg,
		logger:   opts.Logger.WithComponent("classifier"),
	}

	if !opts.NoDefaults {
		c.AddDetector(NewExtensionDetector())
		if opts.Fetcher != nil {
			c.AddDetector(NewHeaderDetector(opts.Fetcher))
			c.AddDetector(NewSniffDetector(opts.Fetcher))
		}
	}
	for _, d := range opts.Detectors {
		c.AddDetector(d)
	}

	return c
}

// AddDetector registers a detector.
func (c *Classifier) AddDetector(d domain.Detector) {
	c.registry.Add(&detectorCandidate{d})
}

// RemoveDetector unregisters a detector by name.
func (c *Classifier) RemoveDetector(name string) bool {
	return c.registry.Remove(name)
}

// Classify resolves the URL against the detector registry. When every
// detector abstains it returns domain.ErrUnresolved; it never panics on
// detector failure.
func (c *Classifier) Classify(ctx context.Context, url string) (*domain.Classification, error) {
	result, winner, err := c.registry.Resolve(ctx, url)
	if err != nil {
		return nil, err
	}

	result.ClampConfidence()
	c.logger.Debug().
		Str("url", url).
		Str("detector", winner).
		Str("kind", string(result.Kind)).
		Float64("confidence", result.Confidence).
		Msg("Classified URL")

	return result, nil
}

// ClassifyAll runs every capable detector for diagnostics, ranked
// successes first, faster first.
func (c *Classifier) ClassifyAll(ctx context.Context, url string) []registry.Attempt[*domain.Classification] {
	return c.registry.ResolveAll(ctx, url)
}

// detectorCandidate adapts domain.Detector to the registry candidate
// contract.
type detectorCandidate struct {
	d domain.Detector
}

func (a *detectorCandidate) Name() string               { return a.d.Name() }
func (a *detectorCandidate) Priority() int              { return a.d.Priority() }
func (a *detectorCandidate) CanHandle(url string) bool  { return a.d.CanHandle(url) }
func (a *detectorCandidate) Apply(ctx context.Context, url string) (*domain.Classification, error) {
	return a.d.Detect(ctx, url)
}
