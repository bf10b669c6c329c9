package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveScopes(t *testing.T) {
	t.Run("empty defaults to piece mark", func(t *testing.T) {
		assert.Equal(t, []ScopeField{ScopePieceMark}, ResolveScopes(nil))
	})

	t.Run("dedupes preserving first occurrence", func(t *testing.T) {
		got := ResolveScopes([]ScopeField{
			ScopeDescription, ScopePieceMark, ScopeDescription, ScopePieceMark,
		})
		assert.Equal(t, []ScopeField{ScopeDescription, ScopePieceMark}, got)
	})
}

func TestParseScopes(t *testing.T) {
	got, err := ParseScopes([]string{"piece_mark", "component_type"})
	require.NoError(t, err)
	assert.Equal(t, []ScopeField{ScopePieceMark, ScopeComponentType}, got)

	_, err = ParseScopes([]string{"piece_mark", "weight"})
	require.Error(t, err)
	v, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, v.Fields, "scope")
}
