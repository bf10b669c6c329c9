package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildsight/marksearch/pkg/model"
)

func newTestMatcher(t *testing.T, query string, fuzzy bool) *Matcher {
	t.Helper()
	m, err := NewMatcher(NewClassifier().Classify(query), fuzzy)
	require.NoError(t, err)
	return m
}

func testComponent() *model.Component {
	return &model.Component{
		ID:            "c1",
		PieceMark:     "BEAM-W12-101",
		ComponentType: "beam",
		Description:   "Steel beam structure",
		MaterialType:  "A992",
	}
}

func TestMatcherSimple(t *testing.T) {
	c := testComponent()

	m := newTestMatcher(t, "beam", false)
	assert.True(t, m.MatchField(c, ScopePieceMark))
	assert.True(t, m.MatchField(c, ScopeComponentType))
	assert.True(t, m.MatchField(c, ScopeDescription))

	m = newTestMatcher(t, "w12", false)
	assert.True(t, m.MatchField(c, ScopePieceMark), "matching is case-insensitive")
	assert.False(t, m.MatchField(c, ScopeDescription))

	m = newTestMatcher(t, "girder", false)
	assert.False(t, m.MatchComponent(c, AllScopeFields))
}

func TestMatcherFuzzy(t *testing.T) {
	c := testComponent()

	exact := newTestMatcher(t, "beem", false)
	fuzzy := newTestMatcher(t, "beem", true)
	assert.False(t, exact.MatchField(c, ScopeDescription))
	assert.True(t, fuzzy.MatchField(c, ScopeDescription), "one edit away within threshold")

	// fuzzy results are a superset of exact results
	for _, q := range []string{"beam", "steel", "w12"} {
		e := newTestMatcher(t, q, false)
		f := newTestMatcher(t, q, true)
		for _, field := range AllScopeFields {
			if e.MatchField(c, field) {
				assert.True(t, f.MatchField(c, field), "fuzzy dropped an exact hit for %q in %s", q, field)
			}
		}
	}

	// short marks get a tight budget: W12 vs W45 is two edits
	far := newTestMatcher(t, "w45", true)
	assert.False(t, far.MatchField(c, ScopePieceMark))
}

func TestMatcherQuoted(t *testing.T) {
	c := testComponent()

	m := newTestMatcher(t, `"steel beam"`, false)
	assert.True(t, m.MatchField(c, ScopeDescription))
	assert.False(t, m.MatchField(c, ScopePieceMark))

	m = newTestMatcher(t, `"beam steel"`, false)
	assert.False(t, m.MatchField(c, ScopeDescription), "quoted phrases match contiguously")
}

func TestMatcherWildcard(t *testing.T) {
	c := testComponent()

	tests := []struct {
		pattern string
		want    bool
	}{
		{"BEAM-*", true},
		{"beam-*", true},
		{"*-101", true},
		{"BEAM-W1?-101", true},
		{"BEAM-W?-101", false},
		{"PL-*", false},
		{"*W12*", true},
	}
	for _, tt := range tests {
		m := newTestMatcher(t, tt.pattern, false)
		assert.Equal(t, tt.want, m.MatchField(c, ScopePieceMark), "pattern %q", tt.pattern)
	}
}

func TestMatcherBoolean(t *testing.T) {
	c := testComponent()

	tests := []struct {
		query string
		want  bool
	}{
		{"steel AND beam", true},
		{"steel AND plate", false},
		{"steel OR plate", true},
		{"plate OR girder", false},
		{"steel NOT plate", true},
		{"steel NOT beam", false},
		{"steel beam AND structure", true}, // adjacency is implicit AND
		{"(steel OR plate) AND structure", true},
		{"(plate OR girder) AND structure", false},
		{"NOT girder", true},
	}
	for _, tt := range tests {
		m := newTestMatcher(t, tt.query, false)
		assert.Equal(t, tt.want, m.MatchField(c, ScopeDescription), "query %q", tt.query)
	}
}

func TestMatcherQualifiers(t *testing.T) {
	c := testComponent()

	// qualified terms read the named field no matter the scope under test
	m := newTestMatcher(t, "material_type:A992", false)
	assert.True(t, m.MatchField(c, ScopePieceMark))

	m = newTestMatcher(t, "material_type:A36", false)
	assert.False(t, m.MatchComponent(c, AllScopeFields))

	m = newTestMatcher(t, "structure AND material_type:A992", false)
	assert.True(t, m.MatchField(c, ScopeDescription))
	assert.False(t, m.MatchField(c, ScopePieceMark), "bare term still reads the scope field")

	m = newTestMatcher(t, "piece_mark:BEAM-* AND component_type:beam", false)
	assert.True(t, m.MatchField(c, ScopeDescription))
}

func TestMatcherMatchAll(t *testing.T) {
	m := newTestMatcher(t, "*", false)
	assert.True(t, m.MatchField(testComponent(), ScopePieceMark))
	assert.True(t, m.MatchField(&model.Component{}, ScopeDescription))
}

func TestMatcherRejectsMalformedExpressions(t *testing.T) {
	for _, q := range []string{"(beam AND plate", "beam AND plate)", "beam AND"} {
		_, err := NewMatcher(NewClassifier().Classify(q), false)
		assert.Error(t, err, "query %q", q)
	}
}
