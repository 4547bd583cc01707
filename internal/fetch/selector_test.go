package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/kbingest-go/internal/domain"
)

type fakeStrategy struct {
	name    string
	window  int
	handles func(url string) bool
	fetch   func(ctx context.Context, url string) (*domain.FetchedContent, error)
}

func (f *fakeStrategy) Name() string     { return f.name }
func (f *fakeStrategy) BatchWindow() int { return f.window }

func (f *fakeStrategy) CanHandle(url string) bool {
	if f.handles != nil {
		return f.handles(url)
	}
	return hasWebScheme(url)
}

func (f *fakeStrategy) Fetch(ctx context.Context, url string) (*domain.FetchedContent, error) {
	if f.fetch != nil {
		return f.fetch(ctx, url)
	}
	return &domain.FetchedContent{URL: url, Strategy: f.name, Bytes: []byte(f.name)}, nil
}

func newTestSelector(t *testing.T, strategies ...*fakeStrategy) (*Selector, *Registry) {
	t.Helper()
	reg := NewRegistry()
	for _, s := range strategies {
		require.NoError(t, reg.Register(s))
	}
	return NewSelector(reg, SelectorOptions{}), reg
}

func TestRegisterDuplicateFailsFast(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&fakeStrategy{name: "a"}))

	err := reg.Register(&fakeStrategy{name: "a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateStrategy)
}

func TestSelectStrategyGlobRule(t *testing.T) {
	a := &fakeStrategy{name: "a", window: 1}
	b := &fakeStrategy{name: "b", window: 1}
	sel, reg := newTestSelector(t, a, b)
	require.NoError(t, reg.SetDefault("b"))

	require.NoError(t, sel.AddRule(domain.SelectionRule{
		Pattern:  "*.example.com/**",
		Kind:     domain.PatternGlob,
		Target:   "a",
		Priority: 10,
	}))

	got, err := sel.SelectStrategy("https://api.example.com/v1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name())

	// Non-matching URL falls through to the default.
	got, err = sel.SelectStrategy("https://other.com/page")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Name())
}

func TestSelectStrategyNoStrategy(t *testing.T) {
	a := &fakeStrategy{name: "a", window: 1}
	sel, _ := newTestSelector(t, a)

	// Only web-scheme strategies are registered; an ftp URL qualifies
	// for nothing and yields the sentinel, not a crash.
	_, err := sel.SelectStrategy("ftp://other.com/file")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoStrategy)
}

func TestSelectStrategyPriorityOrder(t *testing.T) {
	a := &fakeStrategy{name: "a", window: 1}
	b := &fakeStrategy{name: "b", window: 1}
	sel, _ := newTestSelector(t, a, b)

	require.NoError(t, sel.AddRule(domain.SelectionRule{
		Pattern: "example.com", Kind: domain.PatternLiteral, Target: "a", Priority: 5,
	}))
	require.NoError(t, sel.AddRule(domain.SelectionRule{
		Pattern: "example.com", Kind: domain.PatternLiteral, Target: "b", Priority: 20,
	}))

	got, err := sel.SelectStrategy("https://example.com/doc")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Name(), "higher-priority rule wins")
}

func TestSelectStrategyRegexRule(t *testing.T) {
	a := &fakeStrategy{name: "a", window: 1}
	b := &fakeStrategy{name: "b", window: 1}
	sel, _ := newTestSelector(t, a, b)

	require.NoError(t, sel.AddRule(domain.SelectionRule{
		Pattern: `\.pdf($|\?)`, Kind: domain.PatternRegex, Target: "b", Priority: 10,
	}))

	got, err := sel.SelectStrategy("https://example.com/paper.pdf?dl=1")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Name())
}

func TestAddRuleInvalidPattern(t *testing.T) {
	sel, _ := newTestSelector(t, &fakeStrategy{name: "a", window: 1})

	err := sel.AddRule(domain.SelectionRule{Pattern: "([", Kind: domain.PatternRegex, Target: "a"})
	assert.Error(t, err, "bad regex fails at configuration time")

	err = sel.AddRule(domain.SelectionRule{Pattern: "x[", Kind: domain.PatternGlob, Target: "a"})
	assert.Error(t, err, "bad glob fails at configuration time")
}

func TestSelectStrategySkipsIncapableRuleTarget(t *testing.T) {
	a := &fakeStrategy{name: "a", window: 1, handles: func(string) bool { return false }}
	b := &fakeStrategy{name: "b", window: 1}
	sel, _ := newTestSelector(t, a, b)

	require.NoError(t, sel.AddRule(domain.SelectionRule{
		Pattern: "example.com", Kind: domain.PatternLiteral, Target: "a", Priority: 10,
	}))

	got, err := sel.SelectStrategy("https://example.com/doc")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Name(), "incapable rule target is skipped")
}

func TestDomainFallback(t *testing.T) {
	a := &fakeStrategy{name: "a", window: 1}
	b := &fakeStrategy{name: "b", window: 1}
	reg := NewRegistry()
	require.NoError(t, reg.Register(a))
	require.NoError(t, reg.Register(b))

	sel := NewSelector(reg, SelectorOptions{
		Fallback: DomainFallback(map[string]string{"example.com": "b"}),
	})

	got, err := sel.SelectStrategy("https://example.com/doc")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Name())

	// Subdomains inherit the parent mapping.
	got, err = sel.SelectStrategy("https://docs.example.com/doc")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Name())

	// Unmapped host falls through to first capable.
	got, err = sel.SelectStrategy("https://other.com/doc")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name())
}

func TestGroupByStrategy(t *testing.T) {
	a := &fakeStrategy{name: "a", window: 1}
	b := &fakeStrategy{name: "b", window: 1}
	sel, _ := newTestSelector(t, a, b)

	require.NoError(t, sel.AddRule(domain.SelectionRule{
		Pattern: "api.", Kind: domain.PatternLiteral, Target: "b", Priority: 10,
	}))

	urls := []string{
		"https://api.example.com/v1",
		"https://example.com/doc",
		"ftp://nowhere/file",
	}
	groups, unmatched := sel.GroupByStrategy(urls)

	assert.Equal(t, []string{"https://api.example.com/v1"}, groups["b"])
	assert.Equal(t, []string{"https://example.com/doc"}, groups["a"])
	assert.Equal(t, []string{"ftp://nowhere/file"}, unmatched)
}

func TestFetchBatchAllSettle(t *testing.T) {
	a := &fakeStrategy{
		name:   "a",
		window: 2,
		fetch: func(ctx context.Context, url string) (*domain.FetchedContent, error) {
			if strings.Contains(url, "bad") {
				return nil, errors.New("boom")
			}
			return &domain.FetchedContent{URL: url, Strategy: "a", Bytes: []byte("ok")}, nil
		},
	}
	sel, _ := newTestSelector(t, a)

	urls := []string{
		"https://example.com/ok1",
		"https://example.com/bad",
		"https://example.com/ok2",
	}
	results := sel.FetchBatch(context.Background(), urls)

	require.Len(t, results, 3, "one result per input URL")
	for i, r := range results {
		assert.Equal(t, urls[i], r.URL, "results keep input order")
	}
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err, "failed URL yields a synthesized error result")
	assert.NoError(t, results[2].Err)
}

func TestFetchBatchUnmatchedURL(t *testing.T) {
	a := &fakeStrategy{name: "a", window: 1}
	sel, _ := newTestSelector(t, a)

	results := sel.FetchBatch(context.Background(), []string{
		"https://example.com/ok",
		"ftp://nowhere/file",
	})

	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	assert.ErrorIs(t, results[1].Err, domain.ErrNoStrategy)
}

func TestFetchBatchDuplicateURLs(t *testing.T) {
	calls := 0
	a := &fakeStrategy{
		name:   "a",
		window: 1,
		fetch: func(ctx context.Context, url string) (*domain.FetchedContent, error) {
			calls++
			return &domain.FetchedContent{URL: url, Strategy: "a"}, nil
		},
	}
	sel, _ := newTestSelector(t, a)

	url := "https://example.com/doc"
	results := sel.FetchBatch(context.Background(), []string{url, url})

	require.Len(t, results, 2)
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, url, r.URL)
	}
}

func TestFetchBatchEmpty(t *testing.T) {
	sel, _ := newTestSelector(t, &fakeStrategy{name: "a", window: 1})
	assert.Empty(t, sel.FetchBatch(context.Background(), nil))
}

func TestFirstCapableRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("s%d", i)
		require.NoError(t, reg.Register(&fakeStrategy{name: name, window: 1}))
	}

	got := reg.FirstCapable("https://example.com")
	require.NotNil(t, got)
	assert.Equal(t, "s0", got.Name())
}

func TestHostOf(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://Example.com/path", "example.com"},
		{"http://user@host.org:8080/x", "host.org"},
		{"example.com/path?q=1", "example.com"},
		{"https://docs.example.com#frag", "docs.example.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, hostOf(tt.url), tt.url)
	}
}
