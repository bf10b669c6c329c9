// Package api exposes the search and saved-search services over HTTP.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/buildsight/marksearch/pkg/middleware"
	"github.com/buildsight/marksearch/pkg/observability"
	"github.com/buildsight/marksearch/pkg/savedsearch"
	"github.com/buildsight/marksearch/pkg/search"
)

// Server wires handlers, middleware and routes into one http.Handler.
type Server struct {
	router        *mux.Router
	searcher      *search.Service
	savedSearches *savedsearch.Service
	health        *observability.HealthChecker
	logger        *observability.Logger
}

// Options carries the optional collaborators of a Server.
type Options struct {
	Health   *observability.HealthChecker
	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Limiter  *middleware.RateLimiter
}

func NewServer(searcher *search.Service, savedSearches *savedsearch.Service, logger *observability.Logger, opts Options) *Server {
	s := &Server{
		router:        mux.NewRouter(),
		searcher:      searcher,
		savedSearches: savedSearches,
		health:        opts.Health,
		logger:        logger,
	}
	s.setupRoutes(opts)
	return s
}

func (s *Server) setupRoutes(opts Options) {
	if s.health != nil {
		s.router.HandleFunc("/health/live", s.health.Liveness).Methods("GET")
		s.router.HandleFunc("/health/ready", s.health.Readiness).Methods("GET")
	}
	if opts.Registry != nil {
		s.router.Handle("/metrics", observability.Handler(opts.Registry)).Methods("GET")
	}

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.Use(middleware.RequestID)
	v1.Use(middleware.Recovery(s.logger))
	v1.Use(middleware.Logging(s.logger))
	if opts.Metrics != nil {
		v1.Use(middleware.Metrics(opts.Metrics))
	}
	if opts.Limiter != nil {
		v1.Use(opts.Limiter.Middleware())
	}

	// Search routes
	v1.HandleFunc("/search/components", s.searchComponents).Methods("GET")
	v1.HandleFunc("/search/components/{id}", s.getComponent).Methods("GET")
	v1.HandleFunc("/search/advanced", s.advancedSearch).Methods("POST")
	v1.HandleFunc("/search/suggestions", s.getSuggestions).Methods("GET")
	v1.HandleFunc("/search/recent", s.getRecent).Methods("GET")

	// Saved search routes. Project routes go first so "project" is never
	// swallowed by the {id} matcher.
	v1.HandleFunc("/saved-searches/project/{project_id}/reorder", s.reorderSavedSearches).Methods("PUT")
	v1.HandleFunc("/saved-searches/project/{project_id}/count", s.countSavedSearches).Methods("GET")
	v1.HandleFunc("/saved-searches/project/{project_id}", s.listSavedSearches).Methods("GET")
	v1.HandleFunc("/saved-searches/{id}/execute", s.executeSavedSearch).Methods("POST")
	v1.HandleFunc("/saved-searches/{id}", s.getSavedSearch).Methods("GET")
	v1.HandleFunc("/saved-searches/{id}", s.updateSavedSearch).Methods("PUT")
	v1.HandleFunc("/saved-searches/{id}", s.deleteSavedSearch).Methods("DELETE")
	v1.HandleFunc("/saved-searches", s.createSavedSearch).Methods("POST")
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
