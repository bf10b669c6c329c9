// Package search implements the component search engine: query
// classification, scope resolution, predicate matching, relevance ranking,
// scope-effectiveness counting, and suggestion generation.
//
// A search costs a single component store round trip: structured filters
// are applied by the store, text matching and per-field scope counting run
// in-process over the filtered set.
package search
