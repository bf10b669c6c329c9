package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/buildsight/marksearch/pkg/model"
)

func resultWith(mark string, score float64, updated time.Time) Result {
	return Result{
		Component: &model.Component{PieceMark: mark, UpdatedAt: updated},
		Score:     score,
	}
}

func marks(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Component.PieceMark
	}
	return out
}

func TestScoreFieldTiers(t *testing.T) {
	exact := scoreField("beam", "beam")
	prefix := scoreField("beam-101", "beam")
	early := scoreField("steel beam structure", "beam")
	late := scoreField("main structural steel member with beam", "beam")

	assert.Equal(t, 1.0, exact)
	assert.Equal(t, 0.8, prefix)
	assert.Greater(t, prefix, early)
	assert.Greater(t, early, late, "earlier occurrences score higher")
	assert.LessOrEqual(t, early, 0.5, "substring matches stay below the prefix tier")
	assert.Greater(t, late, 0.2, "substring matches stay above the floor band")
	assert.Zero(t, scoreField("plate", "beam"))
}

func TestRankRelevance(t *testing.T) {
	now := time.Now()
	results := []Result{
		resultWith("C", 0.5, now),
		resultWith("A", 1.0, now),
		resultWith("B", 0.8, now),
	}
	Rank(results, SortRelevance, OrderDesc)
	assert.Equal(t, []string{"A", "B", "C"}, marks(results))
}

func TestRankTieBreaks(t *testing.T) {
	now := time.Now()
	older := now.Add(-time.Hour)
	results := []Result{
		resultWith("B", 0.5, older),
		resultWith("C", 0.5, now),
		resultWith("A", 0.5, older),
	}
	Rank(results, SortRelevance, OrderDesc)
	// equal scores: newest update first, then piece mark A to Z
	assert.Equal(t, []string{"C", "A", "B"}, marks(results))
}

func TestRankByDateAndName(t *testing.T) {
	now := time.Now()
	results := []Result{
		resultWith("B", 0.9, now.Add(-2*time.Hour)),
		resultWith("A", 0.1, now),
		resultWith("C", 0.5, now.Add(-time.Hour)),
	}

	Rank(results, SortDate, OrderDesc)
	assert.Equal(t, []string{"A", "C", "B"}, marks(results))

	Rank(results, SortName, OrderAsc)
	assert.Equal(t, []string{"A", "B", "C"}, marks(results))

	Rank(results, SortName, OrderDesc)
	assert.Equal(t, []string{"C", "B", "A"}, marks(results))
}

func TestRankDeterministic(t *testing.T) {
	now := time.Now()
	build := func() []Result {
		return []Result{
			resultWith("D", 0.5, now),
			resultWith("B", 0.5, now),
			resultWith("A", 0.5, now),
			resultWith("C", 0.5, now),
		}
	}
	first := build()
	Rank(first, SortRelevance, OrderDesc)
	second := build()
	Rank(second, SortRelevance, OrderDesc)
	assert.Equal(t, marks(first), marks(second))
	assert.Equal(t, []string{"A", "B", "C", "D"}, marks(first))
}

func TestPaginate(t *testing.T) {
	now := time.Now()
	results := []Result{
		resultWith("A", 1, now), resultWith("B", 1, now), resultWith("C", 1, now),
		resultWith("D", 1, now), resultWith("E", 1, now),
	}

	assert.Equal(t, []string{"A", "B"}, marks(Paginate(results, 1, 2)))
	assert.Equal(t, []string{"C", "D"}, marks(Paginate(results, 2, 2)))
	assert.Equal(t, []string{"E"}, marks(Paginate(results, 3, 2)))
	assert.Empty(t, Paginate(results, 4, 2))
}
