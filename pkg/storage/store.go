package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buildsight/marksearch/pkg/model"
	"github.com/buildsight/marksearch/pkg/observability"
)

// Store provides read access to components and drawings plus the suggestion
// and history tables. Component records are written by the ingestion
// pipeline; this service never mutates them.
type Store struct {
	db      *sql.DB
	metrics *observability.Metrics
}

// NewStore creates a component store. metrics may be nil.
func NewStore(db *sql.DB, metrics *observability.Metrics) *Store {
	return &Store{db: db, metrics: metrics}
}

// DB exposes the underlying handle for collaborators that share the
// database (saved searches, health checks).
func (s *Store) DB() *sql.DB { return s.db }

const componentColumns = `c.id, c.drawing_id, c.piece_mark, c.component_type,
	COALESCE(c.description, ''), COALESCE(c.material_type, ''),
	COALESCE(c.instance_identifier, ''), c.confidence_score,
	c.created_at, c.updated_at`

func scanComponent(rows *sql.Rows) (*model.Component, error) {
	var c model.Component
	var confidence sql.NullFloat64
	err := rows.Scan(
		&c.ID, &c.DrawingID, &c.PieceMark, &c.ComponentType,
		&c.Description, &c.MaterialType, &c.InstanceIdentifier,
		&confidence, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if confidence.Valid {
		v := confidence.Float64
		c.ConfidenceScore = &v
	}
	return &c, nil
}

// ListComponents returns all components passing the structured filters, in
// a deterministic order (piece_mark, id). Text matching happens in the
// search core so that one store round trip serves both matching and scope
// counting.
func (s *Store) ListComponents(ctx context.Context, filter model.ComponentFilter) ([]*model.Component, error) {
	start := time.Now()

	query := strings.Builder{}
	query.WriteString(`SELECT ` + componentColumns + `
		FROM components c
		JOIN drawings d ON c.drawing_id = d.id
		WHERE 1=1`)

	args := make([]interface{}, 0, 3)
	argIndex := 1
	if filter.ComponentType != "" {
		query.WriteString(fmt.Sprintf(" AND c.component_type = $%d", argIndex))
		args = append(args, filter.ComponentType)
		argIndex++
	}
	if filter.ProjectID != "" {
		query.WriteString(fmt.Sprintf(" AND d.project_id = $%d", argIndex))
		args = append(args, filter.ProjectID)
		argIndex++
	}
	if filter.DrawingType != "" {
		query.WriteString(fmt.Sprintf(" AND d.drawing_type = $%d", argIndex))
		args = append(args, filter.DrawingType)
		argIndex++
	}
	query.WriteString(" ORDER BY c.piece_mark ASC, c.id ASC")

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		s.observe("list_components", start, err)
		return nil, fmt.Errorf("failed to list components: %w", err)
	}
	defer rows.Close()

	var components []*model.Component
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			s.observe("list_components", start, err)
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}
		components = append(components, c)
	}
	if err := rows.Err(); err != nil {
		s.observe("list_components", start, err)
		return nil, fmt.Errorf("error iterating components: %w", err)
	}

	s.observe("list_components", start, nil)
	return components, nil
}

// GetComponent returns a single component by id, or sql.ErrNoRows wrapped
// in ErrComponentNotFound when absent.
func (s *Store) GetComponent(ctx context.Context, id string) (*model.Component, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx, `SELECT `+componentColumns+`
		FROM components c WHERE c.id = $1`, id)
	if err != nil {
		s.observe("get_component", start, err)
		return nil, fmt.Errorf("failed to get component: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		s.observe("get_component", start, nil)
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get component: %w", err)
		}
		return nil, ErrComponentNotFound
	}
	c, err := scanComponent(rows)
	if err != nil {
		s.observe("get_component", start, err)
		return nil, fmt.Errorf("failed to scan component: %w", err)
	}

	s.observe("get_component", start, nil)
	return c, nil
}

// RecentComponents returns the newest components by created_at plus the
// total corpus size.
func (s *Store) RecentComponents(ctx context.Context, limit int) ([]*model.Component, int, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx, `SELECT `+componentColumns+`
		FROM components c
		ORDER BY c.created_at DESC, c.id ASC
		LIMIT $1`, limit)
	if err != nil {
		s.observe("recent_components", start, err)
		return nil, 0, fmt.Errorf("failed to list recent components: %w", err)
	}
	defer rows.Close()

	var components []*model.Component
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			s.observe("recent_components", start, err)
			return nil, 0, fmt.Errorf("failed to scan component: %w", err)
		}
		components = append(components, c)
	}
	if err := rows.Err(); err != nil {
		s.observe("recent_components", start, err)
		return nil, 0, fmt.Errorf("error iterating components: %w", err)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM components`).Scan(&total); err != nil {
		s.observe("recent_components", start, err)
		return nil, 0, fmt.Errorf("failed to count components: %w", err)
	}

	s.observe("recent_components", start, nil)
	return components, total, nil
}

// SuggestTerms returns distinct piece mark / component type / material
// values starting with prefix, ordered by frequency then alphabetically.
// Served from the suggestion_terms table materialized by the refresher.
func (s *Store) SuggestTerms(ctx context.Context, prefix string, limit int) ([]string, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx, `
		SELECT term, SUM(frequency) AS freq
		FROM suggestion_terms
		WHERE LOWER(term) LIKE LOWER($1) ESCAPE '\'
		GROUP BY term
		ORDER BY freq DESC, term ASC
		LIMIT $2`, likePrefix(prefix), limit)
	if err != nil {
		s.observe("suggest_terms", start, err)
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer rows.Close()

	suggestions := make([]string, 0, limit)
	for rows.Next() {
		var term string
		var freq int
		if err := rows.Scan(&term, &freq); err != nil {
			s.observe("suggest_terms", start, err)
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		suggestions = append(suggestions, term)
	}
	if err := rows.Err(); err != nil {
		s.observe("suggest_terms", start, err)
		return nil, fmt.Errorf("error iterating suggestions: %w", err)
	}

	s.observe("suggest_terms", start, nil)
	return suggestions, nil
}

// likePrefix escapes LIKE metacharacters in prefix and appends the
// trailing wildcard.
func likePrefix(prefix string) string {
	prefix = strings.ReplaceAll(prefix, `\`, `\\`)
	prefix = strings.ReplaceAll(prefix, "%", `\%`)
	prefix = strings.ReplaceAll(prefix, "_", `\_`)
	return prefix + "%"
}

// RecordSearch appends one row to the search history log.
func (s *Store) RecordSearch(ctx context.Context, query string, resultCount, durationMs int) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_history (id, query, result_count, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), query, resultCount, durationMs, time.Now().UTC())
	s.observe("record_search", start, err)
	if err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	return nil
}

// RefreshSuggestionTerms re-materializes the suggestion_terms table from
// the component corpus, atomically.
func (s *Store) RefreshSuggestionTerms(ctx context.Context) error {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.observe("refresh_suggestions", start, err)
		return fmt.Errorf("failed to begin refresh transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM suggestion_terms`); err != nil {
		s.observe("refresh_suggestions", start, err)
		return fmt.Errorf("failed to clear suggestion terms: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO suggestion_terms (term, kind, frequency)
		SELECT piece_mark, 'piece_mark', COUNT(*) FROM components GROUP BY piece_mark
		UNION ALL
		SELECT component_type, 'component_type', COUNT(*) FROM components GROUP BY component_type
		UNION ALL
		SELECT material_type, 'material_type', COUNT(*) FROM components
			WHERE material_type IS NOT NULL AND material_type != ''
			GROUP BY material_type`); err != nil {
		s.observe("refresh_suggestions", start, err)
		return fmt.Errorf("failed to materialize suggestion terms: %w", err)
	}

	if err := tx.Commit(); err != nil {
		s.observe("refresh_suggestions", start, err)
		return fmt.Errorf("failed to commit suggestion refresh: %w", err)
	}

	s.observe("refresh_suggestions", start, nil)
	return nil
}

func (s *Store) observe(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	s.metrics.StoreOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
