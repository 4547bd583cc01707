// Package fetch selects and runs fetch strategies for URLs: a
// name-unique strategy registry, a rule-based selector, and batch
// execution with bounded per-strategy concurrency.
package fetch

import (
	"fmt"
	"sync"

	"github.com/quantmind-br/kbingest-go/internal/domain"
)

// Registry is a name-unique pool of fetch strategies with one optional
// default.
type Registry struct {
	mu          sync.RWMutex
	strategies  map[string]domain.FetchStrategy
	order       []string // registration order, for the first-capable scan
	defaultName string
}

// NewRegistry creates an empty fetch-strategy registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]domain.FetchStrategy),
	}
}

// Register adds a strategy. A duplicate name fails fast — it is never
// silently overwritten.
func (r *Registry) Register(s domain.FetchStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if name == "" {
		return domain.NewValidationError("name", "strategy name must not be empty")
	}
	if _, exists := r.strategies[name]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateStrategy, name)
	}

	r.strategies[name] = s
	r.order = append(r.order, name)
	return nil
}

// SetDefault names the strategy used when no selection rule matches.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.strategies[name]; !exists {
		return fmt.Errorf("%w: default %s", domain.ErrNotFound, name)
	}
	r.defaultName = name
	return nil
}

// Get returns a strategy by name.
func (r *Registry) Get(name string) (domain.FetchStrategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	return s, ok
}

// Default returns the default strategy, or nil when none is set.
func (r *Registry) Default() domain.FetchStrategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.defaultName == "" {
		return nil
	}
	return r.strategies[r.defaultName]
}

// FirstCapable scans registered strategies in registration order and
// returns the first one reporting capability for the URL.
func (r *Registry) FirstCapable(url string) domain.FetchStrategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		if s := r.strategies[name]; s.CanHandle(url) {
			return s
		}
	}
	return nil
}

// Names returns registered strategy names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
