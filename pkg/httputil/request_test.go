package httputil

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantPage  int
		wantLimit int
		wantErr   bool
	}{
		{name: "defaults", url: "/search", wantPage: 1, wantLimit: 20},
		{name: "explicit", url: "/search?page=3&limit=50", wantPage: 3, wantLimit: 50},
		{name: "page zero", url: "/search?page=0", wantErr: true},
		{name: "limit too large", url: "/search?limit=101", wantErr: true},
		{name: "limit zero", url: "/search?limit=0", wantErr: true},
		{name: "non-numeric page", url: "/search?page=abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			page, limit, err := ParsePagination(r, 20, 100)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestParseQueryBool(t *testing.T) {
	r := httptest.NewRequest("GET", "/search?fuzzy=true", nil)
	val, err := ParseQueryBool(r, "fuzzy", false)
	require.NoError(t, err)
	assert.True(t, val)

	r = httptest.NewRequest("GET", "/search", nil)
	val, err = ParseQueryBool(r, "fuzzy", false)
	require.NoError(t, err)
	assert.False(t, val)

	r = httptest.NewRequest("GET", "/search?fuzzy=banana", nil)
	_, err = ParseQueryBool(r, "fuzzy", false)
	assert.Error(t, err)
}

func TestWriteValidationError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteValidationError(w, "invalid scope", map[string]string{"scope": "unknown value"})

	assert.Equal(t, 400, w.Code)
	assert.JSONEq(t, `{"error":"invalid scope","details":{"scope":"unknown value"}}`, w.Body.String())
}
