package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is portable DDL accepted by both sqlite3 and postgres.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS drawings (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		drawing_type TEXT,
		file_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS components (
		id TEXT PRIMARY KEY,
		drawing_id TEXT NOT NULL REFERENCES drawings(id),
		piece_mark TEXT NOT NULL,
		component_type TEXT NOT NULL,
		description TEXT,
		material_type TEXT,
		instance_identifier TEXT,
		confidence_score REAL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_components_drawing ON components(drawing_id)`,
	`CREATE INDEX IF NOT EXISTS idx_components_piece_mark ON components(piece_mark)`,
	`CREATE INDEX IF NOT EXISTS idx_components_type ON components(component_type)`,
	`CREATE TABLE IF NOT EXISTS saved_searches (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		query TEXT NOT NULL,
		scope TEXT NOT NULL,
		component_type TEXT NOT NULL DEFAULT '',
		drawing_type TEXT NOT NULL DEFAULT '',
		sort_by TEXT NOT NULL DEFAULT 'relevance',
		sort_order TEXT NOT NULL DEFAULT 'desc',
		display_order INTEGER NOT NULL DEFAULT 0,
		last_executed TIMESTAMP,
		execution_count INTEGER NOT NULL DEFAULT 0,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_saved_searches_project ON saved_searches(project_id, display_order)`,
	`CREATE TABLE IF NOT EXISTS suggestion_terms (
		term TEXT NOT NULL,
		kind TEXT NOT NULL,
		frequency INTEGER NOT NULL,
		PRIMARY KEY (term, kind)
	)`,
	`CREATE TABLE IF NOT EXISTS search_history (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		result_count INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
}

// Bootstrap creates the schema if it does not exist.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
