package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name     string
		query    string
		wantType QueryType
		matchAll bool
	}{
		{"plain term", "beam", QuerySimple, false},
		{"multiple plain terms", "steel beam", QuerySimple, false},
		{"quoted phrase", `"steel beam"`, QueryQuoted, false},
		{"single quoted phrase", "'steel beam'", QueryQuoted, false},
		{"and connector", "beam AND plate", QueryBoolean, false},
		{"or connector", "beam OR plate", QueryBoolean, false},
		{"not connector", "beam NOT plate", QueryBoolean, false},
		{"lowercase connector", "beam and plate", QueryBoolean, false},
		{"star wildcard", "BEAM-*", QueryWildcard, false},
		{"question wildcard", "W1?", QueryWildcard, false},
		{"connector beats wildcard", "BEAM-* AND plate", QueryBoolean, false},
		{"field qualifier", "piece_mark:BEAM-101", QueryComplex, false},
		{"parenthesized connector stays boolean", "(beam OR plate) angle", QueryBoolean, false},
		{"bare parens", "(beam plate)", QueryComplex, false},
		{"match-all sentinel", "*", QueryWildcard, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.query)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.matchAll, got.MatchAll)
		})
	}
}

func TestClassifySanitizes(t *testing.T) {
	c := NewClassifier()

	got := c.Classify("  beam \t  plate  ")
	assert.Equal(t, "beam plate", got.Sanitized)

	got = c.Classify("<b>beam</b>")
	assert.NotContains(t, got.Sanitized, "<")
	assert.NotContains(t, got.Sanitized, ">")
}

func TestComplexityMonotonic(t *testing.T) {
	c := NewClassifier()

	simple := c.Classify("beam").ComplexityScore
	boolean := c.Classify("beam AND plate").ComplexityScore
	nested := c.Classify("(beam AND plate) OR angle").ComplexityScore

	assert.Greater(t, boolean, simple)
	assert.Greater(t, nested, boolean)
}
