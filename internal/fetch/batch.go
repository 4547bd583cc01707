package fetch

import (
	"context"
	"fmt"

	"github.com/quantmind-br/kbingest-go/internal/domain"
	"github.com/quantmind-br/kbingest-go/internal/utils"
)

// FetchBatch fetches a URL list, grouped by selected strategy so each
// strategy runs one batch inside its own bounded concurrency window.
// All-settle semantics: one URL's failure never aborts siblings — a
// failed fetch synthesizes an error-content result, and exactly one
// result per input URL comes back, in input order.
func (s *Selector) FetchBatch(ctx context.Context, urls []string) []*domain.FetchedContent {
	results := make([]*domain.FetchedContent, len(urls))
	index := make(map[string][]int, len(urls))
	for i, url := range urls {
		index[url] = append(index[url], i)
	}

	groups, unmatched := s.GroupByStrategy(urls)

	for _, url := range unmatched {
		for _, i := range index[url] {
			if results[i] == nil {
				results[i] = &domain.FetchedContent{
					URL: url,
					Err: fmt.Errorf("%w: %s", domain.ErrNoStrategy, url),
				}
			}
		}
	}

	for name, groupURLs := range groups {
		strategy, _ := s.registry.Get(name)
		window := strategy.BatchWindow()
		if window <= 0 {
			window = 1
		}

		s.logger.Debug().
			Str("strategy", name).
			Int("urls", len(groupURLs)).
			Int("window", window).
			Msg("Fetching batch")

		fetched := make([]*domain.FetchedContent, len(groupURLs))
		utils.ParallelForEach(ctx, indices(len(groupURLs)), window, func(ctx context.Context, i int) error {
			url := groupURLs[i]
			content, err := strategy.Fetch(ctx, url)
			if err != nil {
				content = &domain.FetchedContent{URL: url, Strategy: name, Err: err}
			}
			fetched[i] = content
			return nil
		})

		// Place group results back into input positions. Duplicate
		// input URLs each receive a result.
		used := make(map[string]int)
		for gi, url := range groupURLs {
			positions := index[url]
			n := used[url]
			if n < len(positions) {
				results[positions[n]] = fetched[gi]
				used[url] = n + 1
			}
		}
	}

	// Cancellation mid-batch leaves gaps; settle them explicitly.
	for i, r := range results {
		if r == nil {
			results[i] = &domain.FetchedContent{
				URL: urls[i],
				Err: ctx.Err(),
			}
		}
	}

	return results
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
