package api

import (
	"net/http"

	"github.com/buildsight/marksearch/pkg/httputil"
	"github.com/buildsight/marksearch/pkg/savedsearch"
	"github.com/buildsight/marksearch/pkg/search"
)

func (s *Server) createSavedSearch(w http.ResponseWriter, r *http.Request) {
	var req savedsearch.CreateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	saved, err := s.savedSearches.Create(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httputil.WriteCreated(w, saved)
}

func (s *Server) getSavedSearch(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	saved, err := s.savedSearches.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, saved)
}

func (s *Server) listSavedSearches(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathStringOrError(w, r, "project_id")
	if !ok {
		return
	}
	searches, err := s.savedSearches.List(r.Context(), projectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSavedSearchList(w, projectID, searches)
}

func (s *Server) writeSavedSearchList(w http.ResponseWriter, projectID string, searches []*savedsearch.SavedSearch) {
	httputil.WriteSuccess(w, map[string]interface{}{
		"searches":                 searches,
		"total":                    len(searches),
		"project_id":               projectID,
		"max_searches_per_project": savedsearch.MaxPerProject,
	})
}

func (s *Server) updateSavedSearch(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var req savedsearch.UpdateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	saved, err := s.savedSearches.Update(r.Context(), id, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, saved)
}

func (s *Server) deleteSavedSearch(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	if err := s.savedSearches.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) executeSavedSearch(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	page, limit, err := httputil.ParsePagination(r, search.DefaultLimit, search.MaxLimit)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	resp, saved, err := s.savedSearches.Execute(r.Context(), id, page, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{
		"saved_search": saved,
		"results":      resp,
	})
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) reorderSavedSearches(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathStringOrError(w, r, "project_id")
	if !ok {
		return
	}
	var req reorderRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if err := s.savedSearches.Reorder(r.Context(), projectID, req.IDs); err != nil {
		s.writeError(w, r, err)
		return
	}
	searches, err := s.savedSearches.List(r.Context(), projectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSavedSearchList(w, projectID, searches)
}

func (s *Server) countSavedSearches(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathStringOrError(w, r, "project_id")
	if !ok {
		return
	}
	info, err := s.savedSearches.Count(r.Context(), projectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, info)
}
