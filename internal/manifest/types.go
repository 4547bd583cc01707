package manifest

import (
	"fmt"

	"github.com/quantmind-br/kbingest-go/internal/domain"
)

// Config represents the complete manifest configuration
type Config struct {
	Sources []Source `yaml:"sources" json:"sources"`
	Options Options  `yaml:"options" json:"options"`
}

// Source represents an individual ingestion source
type Source struct {
	URL string `yaml:"url" json:"url"`
	// Strategy pins the fetch strategy for this URL instead of the
	// capability-based fallback (http, browser, crawl).
	Strategy string   `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	Tags     []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Force    bool     `yaml:"force,omitempty" json:"force,omitempty"`
}

// Options represents global manifest options
type Options struct {
	Concurrency int      `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	SkipBlob    bool     `yaml:"skip_blob,omitempty" json:"skip_blob,omitempty"`
}

// Validate validates the manifest configuration
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return ErrNoSources
	}
	for i, src := range c.Sources {
		if src.URL == "" {
			return fmt.Errorf("source %d: %w", i, ErrEmptyURL)
		}
	}
	return nil
}

// URLs returns the source URLs in manifest order.
func (c *Config) URLs() []string {
	urls := make([]string, len(c.Sources))
	for i, src := range c.Sources {
		urls[i] = src.URL
	}
	return urls
}

// SelectionRules converts per-source strategy pins into selection
// rules: an exact-match literal rule per pinned source.
func (c *Config) SelectionRules() []domain.SelectionRule {
	var rules []domain.SelectionRule
	for _, src := range c.Sources {
		if src.Strategy == "" {
			continue
		}
		rules = append(rules, domain.SelectionRule{
			Pattern:  src.URL,
			Kind:     domain.PatternLiteral,
			Target:   src.Strategy,
			Priority: 100,
		})
	}
	return rules
}

// DefaultOptions returns options with sensible defaults
func DefaultOptions() Options {
	return Options{
		Concurrency: 5,
	}
}
