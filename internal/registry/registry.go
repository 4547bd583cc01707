// Package registry implements a generic priority-ordered candidate pool
// with capability probing and fallback. The same pattern backs type
// classification, content processing, and fetch-strategy selection.
package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/quantmind-br/kbingest-go/internal/domain"
)

// Candidate is one strategy instance held by a registry. Candidates are
// tried sequentially in ascending priority order (lower tried first).
type Candidate[I, O any] interface {
	// Name returns the candidate name, unique within a registry.
	Name() string
	// Priority orders candidates; lower values are tried first.
	Priority() int
	// CanHandle is the capability probe run before attempting Apply.
	CanHandle(input I) bool
	// Apply runs the candidate's transform.
	Apply(ctx context.Context, input I) (O, error)
}

// Attempt records one candidate trial from ResolveAll.
type Attempt[O any] struct {
	Candidate string
	Result    O
	Err       error
	Duration  time.Duration
}

// Registry is a priority-ordered pool of candidates.
type Registry[I, O any] struct {
	mu      sync.RWMutex
	entries []Candidate[I, O]
	accept  func(O) bool
}

// Option configures a Registry.
type Option[I, O any] func(*Registry[I, O])

// WithAccept installs a result-acceptance check. A candidate whose
// result fails the check is treated as an abstention and the next
// candidate is tried. Used to enforce minimum-confidence thresholds.
func WithAccept[I, O any](accept func(O) bool) Option[I, O] {
	return func(r *Registry[I, O]) {
		r.accept = accept
	}
}

// New creates an empty registry.
func New[I, O any](opts ...Option[I, O]) *Registry[I, O] {
	r := &Registry[I, O]{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add inserts a candidate, keeping entries sorted ascending by priority.
// Adding a candidate with an existing name replaces it.
func (r *Registry[I, O]) Add(c Candidate[I, O]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.entries {
		if existing.Name() == c.Name() {
			r.entries[i] = c
			r.sortLocked()
			return
		}
	}

	r.entries = append(r.entries, c)
	r.sortLocked()
}

// Remove deletes the candidate with the given name. Returns true if a
// candidate was removed.
func (r *Registry[I, O]) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range r.entries {
		if c.Name() == name {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Registry[I, O]) sortLocked() {
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].Priority() < r.entries[j].Priority()
	})
}

// snapshot returns a copy of the entries for lock-free iteration.
// Candidate trials may await network I/O, so the registry lock is never
// held across Apply calls.
func (r *Registry[I, O]) snapshot() []Candidate[I, O] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Candidate[I, O], len(r.entries))
	copy(out, r.entries)
	return out
}

// Resolve tries capable candidates sequentially in priority order. A
// per-candidate error or a rejected result is an abstention, not a
// failure: the next candidate is tried. When every candidate is
// exhausted, Resolve returns domain.ErrUnresolved, never a panic.
// The winning candidate's name accompanies the result.
func (r *Registry[I, O]) Resolve(ctx context.Context, input I) (O, string, error) {
	var zero O

	for _, c := range r.snapshot() {
		if ctx.Err() != nil {
			return zero, "", ctx.Err()
		}
		if !c.CanHandle(input) {
			continue
		}

		result, err := c.Apply(ctx, input)
		if err != nil {
			continue
		}
		if r.accept != nil && !r.accept(result) {
			continue
		}
		return result, c.Name(), nil
	}

	return zero, "", domain.ErrUnresolved
}

// ResolveAll runs every capable candidate and collects the outcomes with
// timing, ranking successes before failures and faster before slower.
// It exists for diagnostics, not the hot path.
func (r *Registry[I, O]) ResolveAll(ctx context.Context, input I) []Attempt[O] {
	var attempts []Attempt[O]

	for _, c := range r.snapshot() {
		if ctx.Err() != nil {
			break
		}
		if !c.CanHandle(input) {
			continue
		}

		start := time.Now()
		result, err := c.Apply(ctx, input)
		attempt := Attempt[O]{
			Candidate: c.Name(),
			Duration:  time.Since(start),
		}
		if err != nil {
			attempt.Err = &domain.CandidateError{Candidate: c.Name(), Err: err}
		} else {
			attempt.Result = result
		}
		attempts = append(attempts, attempt)
	}

	sort.SliceStable(attempts, func(i, j int) bool {
		iOK, jOK := attempts[i].Err == nil, attempts[j].Err == nil
		if iOK != jOK {
			return iOK
		}
		return attempts[i].Duration < attempts[j].Duration
	})

	return attempts
}

// Len returns the number of registered candidates.
func (r *Registry[I, O]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Names returns candidate names in priority order.
func (r *Registry[I, O]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.entries))
	for i, c := range r.entries {
		names[i] = c.Name()
	}
	return names
}
