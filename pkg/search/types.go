package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/buildsight/marksearch/pkg/model"
)

// ScopeField is a component field a query can be matched against.
type ScopeField string

const (
	ScopePieceMark     ScopeField = "piece_mark"
	ScopeComponentType ScopeField = "component_type"
	ScopeDescription   ScopeField = "description"
)

// AllScopeFields lists every individually-addressable scope field. Scope
// counting always covers all of them, regardless of the requested scope.
var AllScopeFields = []ScopeField{ScopePieceMark, ScopeComponentType, ScopeDescription}

// ParseScopeField parses a scope field name.
func ParseScopeField(s string) (ScopeField, error) {
	switch ScopeField(s) {
	case ScopePieceMark, ScopeComponentType, ScopeDescription:
		return ScopeField(s), nil
	}
	return "", fmt.Errorf("invalid scope field: %q", s)
}

// FieldText returns the component's text for a scope field.
func FieldText(c *model.Component, field ScopeField) string {
	switch field {
	case ScopePieceMark:
		return c.PieceMark
	case ScopeComponentType:
		return c.ComponentType
	case ScopeDescription:
		return c.Description
	}
	return ""
}

// QueryType classifies the grammar of a free-text query.
type QueryType string

const (
	QuerySimple   QueryType = "simple"
	QueryBoolean  QueryType = "boolean"
	QueryWildcard QueryType = "wildcard"
	QueryQuoted   QueryType = "quoted"
	QueryComplex  QueryType = "complex"
)

// Sort options.
const (
	SortRelevance = "relevance"
	SortDate      = "date"
	SortName      = "name"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Pagination bounds.
const (
	DefaultLimit   = 20
	MaxLimit       = 100
	MaxQueryLength = 500

	MinSuggestPrefix = 2
	MaxSuggestLimit  = 50
)

// SearchQuery is a request-scoped description of one search.
type SearchQuery struct {
	Query         string       `json:"query"`
	Scopes        []ScopeField `json:"scope"`
	ComponentType string       `json:"component_type,omitempty"`
	ProjectID     string       `json:"project_id,omitempty"`
	DrawingType   string       `json:"drawing_type,omitempty"`
	Page          int          `json:"page"`
	Limit         int          `json:"limit"`
	SortBy        string       `json:"sort_by"`
	SortOrder     string       `json:"sort_order"`
	Fuzzy         bool         `json:"fuzzy"`
}

// Filter returns the structured (non-text) filters of the query.
func (q *SearchQuery) Filter() model.ComponentFilter {
	return model.ComponentFilter{
		ComponentType: q.ComponentType,
		ProjectID:     q.ProjectID,
		DrawingType:   q.DrawingType,
	}
}

// Normalize applies defaults for unset pagination and sort fields.
func (q *SearchQuery) Normalize() {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = SortRelevance
	}
	if q.SortOrder == "" {
		// name reads most naturally A to Z, everything else newest or
		// most relevant first
		if q.SortBy == SortName {
			q.SortOrder = OrderAsc
		} else {
			q.SortOrder = OrderDesc
		}
	}
}

// Validate checks the query against the engine's bounds.
func (q *SearchQuery) Validate() error {
	v := NewValidationError("invalid search query")
	trimmed := strings.TrimSpace(q.Query)
	if trimmed == "" {
		v.Add("query", "must not be empty")
	}
	if len(q.Query) > MaxQueryLength {
		v.Add("query", fmt.Sprintf("must be at most %d characters", MaxQueryLength))
	}
	if q.Page < 1 {
		v.Add("page", "must be >= 1")
	}
	if q.Limit < 1 || q.Limit > MaxLimit {
		v.Add("limit", fmt.Sprintf("must be between 1 and %d", MaxLimit))
	}
	switch q.SortBy {
	case SortRelevance, SortDate, SortName:
	default:
		v.Add("sort_by", fmt.Sprintf("unknown sort field: %q", q.SortBy))
	}
	switch q.SortOrder {
	case OrderAsc, OrderDesc:
	default:
		v.Add("sort_order", "must be asc or desc")
	}
	if v.HasErrors() {
		return v
	}
	return nil
}

// Result is a matched component with its relevance score.
type Result struct {
	Component *model.Component `json:"component"`
	Score     float64          `json:"score"`
}

// SearchResponse is the complete answer to one search request.
type SearchResponse struct {
	Query           string             `json:"query"`
	Scopes          []ScopeField       `json:"scope"`
	QueryType       QueryType          `json:"query_type"`
	Results         []Result           `json:"results"`
	Total           int                `json:"total"`
	Page            int                `json:"page"`
	Limit           int                `json:"limit"`
	HasNext         bool               `json:"has_next"`
	HasPrev         bool               `json:"has_prev"`
	SearchTimeMS    int64              `json:"search_time_ms"`
	ComplexityScore int                `json:"complexity_score"`
	FiltersApplied  map[string]string  `json:"filters_applied"`
	ScopeCounts     map[ScopeField]int `json:"scope_counts"`
	Suggestions     []string           `json:"suggestions"`
	Warnings        []string           `json:"warnings"`
}

// RecentResponse answers the recency view.
type RecentResponse struct {
	Components []*model.Component `json:"components"`
	Total      int                `json:"total"`
	Limit      int                `json:"limit"`
}

// ComponentStore is the read-only view of the ingested component corpus
// the engine runs against.
type ComponentStore interface {
	ListComponents(ctx context.Context, filter model.ComponentFilter) ([]*model.Component, error)
	GetComponent(ctx context.Context, id string) (*model.Component, error)
	RecentComponents(ctx context.Context, limit int) ([]*model.Component, int, error)
	SuggestTerms(ctx context.Context, prefix string, limit int) ([]string, error)
	RecordSearch(ctx context.Context, query string, resultCount, durationMs int) error
}
