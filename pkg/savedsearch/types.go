// Package savedsearch persists named searches per project and replays
// them through the search service.
package savedsearch

import (
	"errors"
	"strings"
	"time"

	"github.com/buildsight/marksearch/pkg/search"
)

// MaxPerProject caps how many saved searches one project may hold.
const MaxPerProject = 50

var (
	// ErrNotFound is returned for unknown saved search ids.
	ErrNotFound = errors.New("saved search not found")
	// ErrCapacityExceeded is returned when a project is at its cap.
	ErrCapacityExceeded = errors.New("saved search limit reached for project")
)

// SavedSearch is a stored, replayable search owned by a project.
type SavedSearch struct {
	ID             string              `json:"id"`
	ProjectID      string              `json:"project_id"`
	Name           string              `json:"name"`
	Description    string              `json:"description,omitempty"`
	Query          string              `json:"query"`
	Scopes         []search.ScopeField `json:"scope"`
	ComponentType  string              `json:"component_type,omitempty"`
	DrawingType    string              `json:"drawing_type,omitempty"`
	SortBy         string              `json:"sort_by"`
	SortOrder      string              `json:"sort_order"`
	DisplayOrder   int                 `json:"display_order"`
	LastExecuted   *time.Time          `json:"last_executed,omitempty"`
	ExecutionCount int                 `json:"execution_count"`
	CreatedBy      string              `json:"created_by,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// toQuery turns the stored definition back into an executable search.
func (s *SavedSearch) toQuery(page, limit int) *search.SearchQuery {
	return &search.SearchQuery{
		Query:         s.Query,
		Scopes:        s.Scopes,
		ComponentType: s.ComponentType,
		DrawingType:   s.DrawingType,
		Page:          page,
		Limit:         limit,
		SortBy:        s.SortBy,
		SortOrder:     s.SortOrder,
	}
}

// CreateRequest carries the client-supplied fields of a new saved search.
type CreateRequest struct {
	ProjectID     string   `json:"project_id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Query         string   `json:"query"`
	Scope         []string `json:"scope"`
	ComponentType string   `json:"component_type"`
	DrawingType   string   `json:"drawing_type"`
	SortBy        string   `json:"sort_by"`
	SortOrder     string   `json:"sort_order"`
	CreatedBy     string   `json:"created_by"`
}

// UpdateRequest carries a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	Name          *string   `json:"name,omitempty"`
	Description   *string   `json:"description,omitempty"`
	Query         *string   `json:"query,omitempty"`
	Scope         *[]string `json:"scope,omitempty"`
	ComponentType *string   `json:"component_type,omitempty"`
	DrawingType   *string   `json:"drawing_type,omitempty"`
	SortBy        *string   `json:"sort_by,omitempty"`
	SortOrder     *string   `json:"sort_order,omitempty"`
}

// CountInfo reports a project's saved-search usage against the cap.
type CountInfo struct {
	Count      int `json:"count"`
	MaxAllowed int `json:"max_allowed"`
	Remaining  int `json:"remaining"`
}

// encodeScopes packs a scope list into its stored comma-separated form.
func encodeScopes(scopes []search.ScopeField) string {
	parts := make([]string, len(scopes))
	for i, s := range scopes {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

func decodeScopes(raw string) []search.ScopeField {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	scopes := make([]search.ScopeField, 0, len(parts))
	for _, p := range parts {
		if field, err := search.ParseScopeField(p); err == nil {
			scopes = append(scopes, field)
		}
	}
	return scopes
}
