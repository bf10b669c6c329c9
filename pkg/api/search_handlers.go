package api

import (
	"net/http"
	"strings"

	"github.com/buildsight/marksearch/pkg/httputil"
	"github.com/buildsight/marksearch/pkg/search"
)

// parseScopeParam accepts both repeated scope params and one
// comma-separated value.
func parseScopeParam(r *http.Request) ([]search.ScopeField, error) {
	var raw []string
	for _, v := range r.URL.Query()["scope"] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				raw = append(raw, part)
			}
		}
	}
	return search.ParseScopes(raw)
}

func (s *Server) searchComponents(w http.ResponseWriter, r *http.Request) {
	scopes, err := parseScopeParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, limit, err := httputil.ParsePagination(r, search.DefaultLimit, search.MaxLimit)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	fuzzy, err := httputil.ParseQueryBool(r, "fuzzy", false)
	if err != nil {
		httputil.WriteBadRequest(w, "fuzzy must be true or false")
		return
	}

	// q is kept as a shorthand alias for query
	text := r.URL.Query().Get("query")
	if text == "" {
		text = r.URL.Query().Get("q")
	}

	query := &search.SearchQuery{
		Query:         text,
		Scopes:        scopes,
		ComponentType: r.URL.Query().Get("component_type"),
		ProjectID:     r.URL.Query().Get("project_id"),
		DrawingType:   r.URL.Query().Get("drawing_type"),
		Page:          page,
		Limit:         limit,
		SortBy:        r.URL.Query().Get("sort_by"),
		SortOrder:     r.URL.Query().Get("sort_order"),
		Fuzzy:         fuzzy,
	}

	resp, err := s.searcher.Search(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, resp)
}

func (s *Server) getComponent(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	component, err := s.searcher.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, component)
}

func (s *Server) advancedSearch(w http.ResponseWriter, r *http.Request) {
	var req search.AdvancedRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	resp, err := s.searcher.AdvancedSearch(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, resp)
}

func (s *Server) getSuggestions(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		prefix = r.URL.Query().Get("q")
	}
	limit, err := httputil.ParseQueryInt(r, "limit", 10)
	if err != nil {
		httputil.WriteBadRequest(w, "limit must be an integer")
		return
	}
	suggestions, err := s.searcher.Suggestions(r.Context(), prefix, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{
		"prefix":      prefix,
		"suggestions": suggestions,
	})
}

func (s *Server) getRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.ParseQueryInt(r, "limit", search.DefaultLimit)
	if err != nil {
		httputil.WriteBadRequest(w, "limit must be an integer")
		return
	}
	resp, err := s.searcher.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, resp)
}
