package search

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/buildsight/marksearch/pkg/model"
)

// ScopeCounts reports how many of the filtered components match the query
// in each scope field. Every field is counted no matter what scope the
// request asked for, and counting never applies fuzzy widening, so the
// numbers stay comparable across requests.
func ScopeCounts(ctx context.Context, classified Classified, components []*model.Component) (map[ScopeField]int, error) {
	matcher, err := NewMatcher(classified, false)
	if err != nil {
		return nil, err
	}

	counts := make([]int, len(AllScopeFields))
	g, ctx := errgroup.WithContext(ctx)
	for i, field := range AllScopeFields {
		i, field := i, field
		g.Go(func() error {
			n := 0
			for _, c := range components {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				if matcher.MatchField(c, field) {
					n++
				}
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[ScopeField]int, len(AllScopeFields))
	for i, field := range AllScopeFields {
		out[field] = counts[i]
	}
	return out, nil
}
