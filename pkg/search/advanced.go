package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/buildsight/marksearch/pkg/model"
)

// Advanced filter kinds. Each filter names a component field and one of
// these matching modes; anything else is rejected up front instead of
// being silently dropped.
const (
	FilterEquality = "equality"
	FilterRange    = "range"
	FilterPrefix   = "prefix"
)

// AdvancedFilter is one typed filter of an advanced search request.
// Equality and prefix filters carry Value; range filters carry Min/Max
// (either may be open) and apply to confidence_score only.
type AdvancedFilter struct {
	Field string   `json:"field"`
	Kind  string   `json:"kind"`
	Value string   `json:"value,omitempty"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
}

var advancedTextFields = map[string]func(*model.Component) string{
	"piece_mark":     func(c *model.Component) string { return c.PieceMark },
	"component_type": func(c *model.Component) string { return c.ComponentType },
	"description":    func(c *model.Component) string { return c.Description },
	"material_type":  func(c *model.Component) string { return c.MaterialType },
}

// AdvancedRequest combines an optional free-text query with typed filters.
// An empty query matches everything, leaving the filters in charge.
type AdvancedRequest struct {
	SearchQuery
	Filters []AdvancedFilter `json:"filters"`
}

func (r *AdvancedRequest) validate() error {
	v := NewValidationError("invalid advanced search request")
	if len(r.Query) > MaxQueryLength {
		v.Add("query", fmt.Sprintf("must be at most %d characters", MaxQueryLength))
	}
	if r.Page < 1 {
		v.Add("page", "must be >= 1")
	}
	if r.Limit < 1 || r.Limit > MaxLimit {
		v.Add("limit", fmt.Sprintf("must be between 1 and %d", MaxLimit))
	}
	for i, f := range r.Filters {
		key := fmt.Sprintf("filters[%d]", i)
		switch f.Kind {
		case FilterEquality, FilterPrefix:
			if _, ok := advancedTextFields[f.Field]; !ok {
				v.Add(key, fmt.Sprintf("field %q does not support %s filters", f.Field, f.Kind))
			}
			if strings.TrimSpace(f.Value) == "" {
				v.Add(key, "value must not be empty")
			}
		case FilterRange:
			if f.Field != "confidence_score" {
				v.Add(key, fmt.Sprintf("field %q does not support range filters", f.Field))
			}
			if f.Min == nil && f.Max == nil {
				v.Add(key, "range filter needs min, max or both")
			}
			if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
				v.Add(key, "min must not exceed max")
			}
		default:
			v.Add(key, fmt.Sprintf("unknown filter kind: %q", f.Kind))
		}
	}
	if v.HasErrors() {
		return v
	}
	return nil
}

func (f AdvancedFilter) match(c *model.Component) bool {
	switch f.Kind {
	case FilterEquality:
		return strings.EqualFold(advancedTextFields[f.Field](c), f.Value)
	case FilterPrefix:
		return strings.HasPrefix(
			strings.ToLower(advancedTextFields[f.Field](c)),
			strings.ToLower(f.Value),
		)
	case FilterRange:
		if c.ConfidenceScore == nil {
			return false
		}
		if f.Min != nil && *c.ConfidenceScore < *f.Min {
			return false
		}
		if f.Max != nil && *c.ConfidenceScore > *f.Max {
			return false
		}
		return true
	}
	return false
}

// AdvancedSearch runs the shared search pipeline with the request's typed
// filters conjoined after the store-level structured filters.
func (s *Service) AdvancedSearch(ctx context.Context, req *AdvancedRequest) (*SearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		req.Query = "*"
	}
	req.Normalize()
	if err := req.validate(); err != nil {
		return nil, err
	}

	ctx, span := searchTracer.Start(ctx, "AdvancedSearch")
	defer span.End()
	start := time.Now()

	classified := s.classifier.Classify(req.Query)
	scopes := ResolveScopes(req.Scopes)

	extra := func(c *model.Component) bool {
		for _, f := range req.Filters {
			if !f.match(c) {
				return false
			}
		}
		return true
	}
	resp, err := s.executeFiltered(ctx, &req.SearchQuery, classified, scopes, extra)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	resp.SearchTimeMS = time.Since(start).Milliseconds()
	return resp, nil
}
