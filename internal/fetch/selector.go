package fetch

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/quantmind-br/kbingest-go/internal/domain"
	"github.com/quantmind-br/kbingest-go/internal/utils"
)

// FallbackFunc maps a URL to a strategy name when no rule matches.
// Returning "" abstains. A typical implementation is a domain→name map.
type FallbackFunc func(url string) string

// Selector routes URLs to fetch strategies through an ordered rule
// list. Resolution order: rules by descending priority, then the
// pluggable fallback, then the registry default, then the first capable
// registered strategy. A URL nothing qualifies for yields
// domain.ErrNoStrategy — "unsupported URL", not a crash.
type Selector struct {
	registry *Registry
	logger   *utils.Logger

	mu       sync.RWMutex
	rules    []compiledRule
	fallback FallbackFunc
}

type compiledRule struct {
	rule  domain.SelectionRule
	regex *regexp.Regexp // set for PatternRegex only
}

// SelectorOptions contains options for creating a Selector.
type SelectorOptions struct {
	Fallback FallbackFunc
	Logger   *utils.Logger
}

// NewSelector creates a Selector over the registry.
func NewSelector(registry *Registry, opts SelectorOptions) *Selector {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &Selector{
		registry: registry,
		fallback: opts.Fallback,
		logger:   logger.WithComponent("selector"),
	}
}

// AddRule compiles and installs a selection rule. Regex patterns are
// validated here so a bad pattern fails at configuration time, not at
// selection time.
func (s *Selector) AddRule(rule domain.SelectionRule) error {
	compiled := compiledRule{rule: rule}

	switch rule.Kind {
	case domain.PatternRegex:
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return fmt.Errorf("rule pattern %q: %w", rule.Pattern, err)
		}
		compiled.regex = re
	case domain.PatternGlob:
		if !doublestar.ValidatePattern(rule.Pattern) {
			return fmt.Errorf("rule pattern %q: invalid glob", rule.Pattern)
		}
	case domain.PatternLiteral, "":
		// nothing to compile
	default:
		return domain.NewValidationError("kind", fmt.Sprintf("unknown pattern kind %q", rule.Kind))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, compiled)
	// Strictly descending priority; stable so equal priorities keep
	// insertion order.
	sort.SliceStable(s.rules, func(i, j int) bool {
		return s.rules[i].rule.Priority > s.rules[j].rule.Priority
	})
	return nil
}

// Rules returns the installed rules in evaluation order.
func (s *Selector) Rules() []domain.SelectionRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SelectionRule, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.rule
	}
	return out
}

// Strategy returns a registered strategy by name.
func (s *Selector) Strategy(name string) (domain.FetchStrategy, bool) {
	return s.registry.Get(name)
}

// SelectStrategy picks the fetch strategy for a URL.
func (s *Selector) SelectStrategy(url string) (domain.FetchStrategy, error) {
	s.mu.RLock()
	rules := s.rules
	fallback := s.fallback
	s.mu.RUnlock()

	// First matching rule whose target reports capable wins.
	for _, cr := range rules {
		if !cr.matches(url) {
			continue
		}
		strategy, ok := s.registry.Get(cr.rule.Target)
		if !ok {
			s.logger.Warn().
				Str("target", cr.rule.Target).
				Str("pattern", cr.rule.Pattern).
				Msg("Selection rule targets unregistered strategy")
			continue
		}
		if strategy.CanHandle(url) {
			return strategy, nil
		}
	}

	if fallback != nil {
		if name := fallback(url); name != "" {
			if strategy, ok := s.registry.Get(name); ok && strategy.CanHandle(url) {
				return strategy, nil
			}
		}
	}

	if def := s.registry.Default(); def != nil && def.CanHandle(url) {
		return def, nil
	}

	if strategy := s.registry.FirstCapable(url); strategy != nil {
		return strategy, nil
	}

	return nil, fmt.Errorf("%w: %s", domain.ErrNoStrategy, url)
}

// GroupByStrategy partitions URLs by selected strategy so each strategy
// can run one optimized multi-URL batch. URLs no strategy qualifies for
// are returned separately.
func (s *Selector) GroupByStrategy(urls []string) (map[string][]string, []string) {
	groups := make(map[string][]string)
	var unmatched []string

	for _, url := range urls {
		strategy, err := s.SelectStrategy(url)
		if err != nil {
			unmatched = append(unmatched, url)
			continue
		}
		groups[strategy.Name()] = append(groups[strategy.Name()], url)
	}

	return groups, unmatched
}

// matches reports whether the rule pattern matches the URL.
func (cr *compiledRule) matches(url string) bool {
	switch cr.rule.Kind {
	case domain.PatternRegex:
		return cr.regex.MatchString(url)
	case domain.PatternGlob:
		// Globs are written without a scheme ("*.example.com/*");
		// match against the scheme-stripped URL.
		ok, err := doublestar.Match(cr.rule.Pattern, stripScheme(url))
		return err == nil && ok
	default:
		return strings.Contains(url, cr.rule.Pattern)
	}
}

func stripScheme(url string) string {
	if idx := strings.Index(url, "://"); idx >= 0 {
		return url[idx+3:]
	}
	return url
}

// DomainFallback builds a FallbackFunc from a host→strategy-name map.
// Subdomains inherit their parent's mapping.
func DomainFallback(mapping map[string]string) FallbackFunc {
	return func(url string) string {
		host := hostOf(url)
		if host == "" {
			return ""
		}
		if name, ok := mapping[host]; ok {
			return name
		}
		for domainName, name := range mapping {
			if strings.HasSuffix(host, "."+domainName) {
				return name
			}
		}
		return ""
	}
}

func hostOf(url string) string {
	rest := stripScheme(url)
	if idx := strings.IndexAny(rest, "/?#"); idx >= 0 {
		rest = rest[:idx]
	}
	if idx := strings.IndexByte(rest, '@'); idx >= 0 {
		rest = rest[idx+1:]
	}
	if idx := strings.IndexByte(rest, ':'); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.ToLower(rest)
}
