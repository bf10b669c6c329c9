// Package storage implements the durable stores behind the search core:
// read-only access to ingested components and drawings, the materialized
// suggestion term table, and the search history log.
//
// All SQL uses $N positional placeholders so the same statements run against
// both the sqlite3 and postgres drivers. Saved searches are persisted by
// pkg/savedsearch, which owns that table's lifecycle.
package storage
