package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/buildsight/marksearch/pkg/async"
	"github.com/buildsight/marksearch/pkg/model"
	"github.com/buildsight/marksearch/pkg/observability"
)

var searchTracer = otel.Tracer("marksearch/search/service")

// SuggestionCache is the optional two-tier cache in front of suggestion
// lookups. A nil cache disables caching entirely.
type SuggestionCache interface {
	Get(ctx context.Context, prefix string, limit int) ([]string, bool)
	Set(ctx context.Context, prefix string, limit int, suggestions []string)
}

// Service orchestrates classification, scope resolution, matching, scope
// counting, ranking and pagination into a single search pass over the
// filtered component set.
type Service struct {
	store      ComponentStore
	cache      SuggestionCache
	classifier *Classifier
	logger     *observability.Logger
	metrics    *observability.Metrics
}

func NewService(store ComponentStore, cache SuggestionCache, logger *observability.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		store:      store,
		cache:      cache,
		classifier: NewClassifier(),
		logger:     logger,
		metrics:    metrics,
	}
}

// Search runs one free-text search request end to end.
func (s *Service) Search(ctx context.Context, q *SearchQuery) (*SearchResponse, error) {
	q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}

	ctx, span := searchTracer.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("query", q.Query),
			attribute.Int("page", q.Page),
			attribute.Int("limit", q.Limit),
			attribute.Bool("fuzzy", q.Fuzzy),
		),
	)
	defer span.End()

	start := time.Now()
	classified := s.classifier.Classify(q.Query)
	scopes := ResolveScopes(q.Scopes)

	span.SetAttributes(
		attribute.String("query_type", string(classified.Type)),
		attribute.Int("complexity_score", classified.ComplexityScore),
	)

	resp, err := s.execute(ctx, q, classified, scopes)
	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
	}
	if s.metrics != nil {
		s.metrics.SearchesTotal.WithLabelValues(string(classified.Type), status).Inc()
		s.metrics.SearchDuration.WithLabelValues(string(classified.Type)).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}

	resp.SearchTimeMS = time.Since(start).Milliseconds()
	if s.metrics != nil {
		s.metrics.SearchResultCount.Observe(float64(resp.Total))
	}
	s.logSearch(ctx, q, resp)

	async.SafeGo(ctx, 5*time.Second, "record-search",
		func(taskCtx context.Context) error {
			return s.store.RecordSearch(taskCtx, q.Query, resp.Total, int(resp.SearchTimeMS))
		})

	return resp, nil
}

// execute is the shared matching pipeline for plain and advanced search.
// extra is an optional in-process predicate applied after the store's
// structured filters.
func (s *Service) execute(ctx context.Context, q *SearchQuery, classified Classified, scopes []ScopeField) (*SearchResponse, error) {
	return s.executeFiltered(ctx, q, classified, scopes, nil)
}

func (s *Service) executeFiltered(ctx context.Context, q *SearchQuery, classified Classified, scopes []ScopeField, extra func(*model.Component) bool) (*SearchResponse, error) {
	matcher, err := NewMatcher(classified, q.Fuzzy)
	if err != nil {
		return nil, fmt.Errorf("failed to build query predicate: %w", err)
	}

	components, err := s.store.ListComponents(ctx, q.Filter())
	if err != nil {
		return nil, fmt.Errorf("failed to load components: %w", err)
	}
	if extra != nil {
		kept := components[:0]
		for _, c := range components {
			if extra(c) {
				kept = append(kept, c)
			}
		}
		components = kept
	}

	var results []Result
	for _, c := range components {
		if matcher.MatchComponent(c, scopes) {
			results = append(results, Result{Component: c})
		}
	}
	for i := range results {
		results[i].Score = scoreComponent(&results[i], classified, scopes)
	}
	Rank(results, q.SortBy, q.SortOrder)

	countStart := time.Now()
	scopeCounts, err := ScopeCounts(ctx, classified, components)
	if err != nil {
		return nil, fmt.Errorf("failed to count scope matches: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ScopeCountDuration.Observe(time.Since(countStart).Seconds())
	}

	total := len(results)
	page := Paginate(results, q.Page, q.Limit)

	resp := &SearchResponse{
		Query:           q.Query,
		Scopes:          scopes,
		QueryType:       classified.Type,
		Results:         page,
		Total:           total,
		Page:            q.Page,
		Limit:           q.Limit,
		HasNext:         q.Page*q.Limit < total,
		HasPrev:         q.Page > 1,
		ComplexityScore: classified.ComplexityScore,
		FiltersApplied:  q.Filter().Map(),
		ScopeCounts:     scopeCounts,
		Warnings:        s.warnings(q, classified),
	}
	if total == 0 {
		resp.Suggestions = s.zeroResultSuggestions(ctx, classified)
	}
	return resp, nil
}

func (s *Service) warnings(q *SearchQuery, classified Classified) []string {
	var warnings []string
	if q.Fuzzy && classified.Type != QuerySimple {
		warnings = append(warnings, "fuzzy matching applies to simple queries only and was ignored")
	}
	if classified.Sanitized != classified.Raw && !classified.MatchAll {
		warnings = append(warnings, "query contained characters that were removed before matching")
	}
	return warnings
}

// zeroResultSuggestions proposes alternative terms when a search comes back
// empty, keyed off the first literal term of the query.
func (s *Service) zeroResultSuggestions(ctx context.Context, classified Classified) []string {
	terms := scoringTerms(classified)
	if len(terms) == 0 {
		return nil
	}
	prefix := terms[0]
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	if len(prefix) < MinSuggestPrefix {
		return nil
	}
	suggestions, err := s.Suggestions(ctx, prefix, 5)
	if err != nil {
		s.logger.WithError(err).Warn("zero-result suggestion lookup failed")
		return nil
	}
	return suggestions
}

func (s *Service) logSearch(ctx context.Context, q *SearchQuery, resp *SearchResponse) {
	s.logger.WithFields(map[string]interface{}{
		"request_id":  observability.GetRequestID(ctx),
		"query":       q.Query,
		"query_type":  resp.QueryType,
		"total":       resp.Total,
		"duration_ms": resp.SearchTimeMS,
	}).Info("search completed")
}

// Suggestions returns autocomplete terms for a prefix, consulting the
// cache tiers before the store.
func (s *Service) Suggestions(ctx context.Context, prefix string, limit int) ([]string, error) {
	ctx, span := searchTracer.Start(ctx, "Suggestions",
		trace.WithAttributes(attribute.String("prefix", prefix), attribute.Int("limit", limit)),
	)
	defer span.End()

	prefix = strings.TrimSpace(prefix)
	if len(prefix) < MinSuggestPrefix {
		v := NewValidationError("invalid suggestion request")
		v.Add("prefix", fmt.Sprintf("must be at least %d characters", MinSuggestPrefix))
		return nil, v
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > MaxSuggestLimit {
		limit = MaxSuggestLimit
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, prefix, limit); ok {
			s.countSuggestion("cached")
			return cached, nil
		}
	}

	suggestions, err := s.store.SuggestTerms(ctx, prefix, limit)
	if err != nil {
		span.RecordError(err)
		s.countSuggestion("error")
		return nil, fmt.Errorf("failed to load suggestions: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, prefix, limit, suggestions)
	}
	s.countSuggestion("success")
	return suggestions, nil
}

func (s *Service) countSuggestion(status string) {
	if s.metrics != nil {
		s.metrics.SuggestionsTotal.WithLabelValues(status).Inc()
	}
}

// Recent returns the most recently updated components.
func (s *Service) Recent(ctx context.Context, limit int) (*RecentResponse, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	components, total, err := s.store.RecentComponents(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent components: %w", err)
	}
	return &RecentResponse{Components: components, Total: total, Limit: limit}, nil
}

// Get looks up a single component by id.
func (s *Service) Get(ctx context.Context, id string) (*model.Component, error) {
	if strings.TrimSpace(id) == "" {
		v := NewValidationError("invalid component request")
		v.Add("id", "must not be empty")
		return nil, v
	}
	return s.store.GetComponent(ctx, id)
}
