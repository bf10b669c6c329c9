package savedsearch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buildsight/marksearch/pkg/observability"
	"github.com/buildsight/marksearch/pkg/search"
)

// Service implements saved-search CRUD, ordering and execution on top of
// the relational store and the search service.
type Service struct {
	db       *sql.DB
	searcher *search.Service
	logger   *observability.Logger
	metrics  *observability.Metrics
}

func NewService(db *sql.DB, searcher *search.Service, logger *observability.Logger, metrics *observability.Metrics) *Service {
	return &Service{db: db, searcher: searcher, logger: logger, metrics: metrics}
}

const savedSearchColumns = `id, project_id, name, description, query, scope,
	component_type, drawing_type, sort_by, sort_order, display_order,
	last_executed, execution_count, created_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSavedSearch(row rowScanner) (*SavedSearch, error) {
	var s SavedSearch
	var scope string
	var lastExecuted sql.NullTime
	err := row.Scan(
		&s.ID, &s.ProjectID, &s.Name, &s.Description, &s.Query, &scope,
		&s.ComponentType, &s.DrawingType, &s.SortBy, &s.SortOrder, &s.DisplayOrder,
		&lastExecuted, &s.ExecutionCount, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Scopes = decodeScopes(scope)
	if lastExecuted.Valid {
		s.LastExecuted = &lastExecuted.Time
	}
	return &s, nil
}

func (s *Service) validateCreate(req *CreateRequest) ([]search.ScopeField, error) {
	v := search.NewValidationError("invalid saved search")
	if strings.TrimSpace(req.ProjectID) == "" {
		v.Add("project_id", "must not be empty")
	}
	if strings.TrimSpace(req.Name) == "" {
		v.Add("name", "must not be empty")
	}
	if len(req.Name) > 255 {
		v.Add("name", "must be at most 255 characters")
	}
	if strings.TrimSpace(req.Query) == "" {
		v.Add("query", "must not be empty")
	}
	if len(req.Query) > search.MaxQueryLength {
		v.Add("query", fmt.Sprintf("must be at most %d characters", search.MaxQueryLength))
	}
	scopes, err := search.ParseScopes(req.Scope)
	if err != nil {
		v.Add("scope", err.Error())
	}
	if req.SortBy != "" && req.SortBy != search.SortRelevance && req.SortBy != search.SortDate && req.SortBy != search.SortName {
		v.Add("sort_by", fmt.Sprintf("unknown sort field: %q", req.SortBy))
	}
	if req.SortOrder != "" && req.SortOrder != search.OrderAsc && req.SortOrder != search.OrderDesc {
		v.Add("sort_order", "must be asc or desc")
	}
	if v.HasErrors() {
		return nil, v
	}
	return search.ResolveScopes(scopes), nil
}

// Create stores a new saved search at the end of the project's display
// order, enforcing the per-project cap inside the transaction.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*SavedSearch, error) {
	scopes, err := s.validateCreate(req)
	if err != nil {
		return nil, err
	}
	if req.SortBy == "" {
		req.SortBy = search.SortRelevance
	}
	if req.SortOrder == "" {
		req.SortOrder = search.OrderDesc
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM saved_searches WHERE project_id = $1`, req.ProjectID,
	).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to count saved searches: %w", err)
	}
	if count >= MaxPerProject {
		s.countOp("create", "capacity")
		return nil, ErrCapacityExceeded
	}

	// MAX+1 inside COALESCE so an empty project starts at 0
	var nextOrder int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(display_order) + 1, 0) FROM saved_searches WHERE project_id = $1`, req.ProjectID,
	).Scan(&nextOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to determine display order: %w", err)
	}

	now := time.Now().UTC()
	saved := &SavedSearch{
		ID:            uuid.New().String(),
		ProjectID:     req.ProjectID,
		Name:          req.Name,
		Description:   req.Description,
		Query:         req.Query,
		Scopes:        scopes,
		ComponentType: req.ComponentType,
		DrawingType:   req.DrawingType,
		SortBy:        req.SortBy,
		SortOrder:     req.SortOrder,
		DisplayOrder:  nextOrder,
		CreatedBy:     req.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO saved_searches (`+savedSearchColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		saved.ID, saved.ProjectID, saved.Name, saved.Description, saved.Query,
		encodeScopes(saved.Scopes), saved.ComponentType, saved.DrawingType,
		saved.SortBy, saved.SortOrder, saved.DisplayOrder,
		nil, 0, saved.CreatedBy, saved.CreatedAt, saved.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert saved search: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit saved search: %w", err)
	}

	s.countOp("create", "success")
	s.logger.WithFields(map[string]interface{}{
		"saved_search_id": saved.ID,
		"project_id":      saved.ProjectID,
	}).Info("saved search created")
	return saved, nil
}

// Get returns one saved search by id.
func (s *Service) Get(ctx context.Context, id string) (*SavedSearch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+savedSearchColumns+` FROM saved_searches WHERE id = $1`, id)
	saved, err := scanSavedSearch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load saved search: %w", err)
	}
	return saved, nil
}

// List returns a project's saved searches in display order.
func (s *Service) List(ctx context.Context, projectID string) ([]*SavedSearch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+savedSearchColumns+` FROM saved_searches
		 WHERE project_id = $1
		 ORDER BY display_order, created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved searches: %w", err)
	}
	defer rows.Close()

	searches := make([]*SavedSearch, 0)
	for rows.Next() {
		saved, err := scanSavedSearch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved search: %w", err)
		}
		searches = append(searches, saved)
	}
	return searches, rows.Err()
}

// Update applies a partial update. Display order is not touched here;
// Reorder owns ordering.
func (s *Service) Update(ctx context.Context, id string, req *UpdateRequest) (*SavedSearch, error) {
	saved, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	v := search.NewValidationError("invalid saved search update")
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			v.Add("name", "must not be empty")
		}
		saved.Name = *req.Name
	}
	if req.Description != nil {
		saved.Description = *req.Description
	}
	if req.Query != nil {
		if strings.TrimSpace(*req.Query) == "" {
			v.Add("query", "must not be empty")
		}
		saved.Query = *req.Query
	}
	if req.Scope != nil {
		scopes, err := search.ParseScopes(*req.Scope)
		if err != nil {
			v.Add("scope", err.Error())
		} else {
			saved.Scopes = search.ResolveScopes(scopes)
		}
	}
	if req.ComponentType != nil {
		saved.ComponentType = *req.ComponentType
	}
	if req.DrawingType != nil {
		saved.DrawingType = *req.DrawingType
	}
	if req.SortBy != nil {
		switch *req.SortBy {
		case search.SortRelevance, search.SortDate, search.SortName:
			saved.SortBy = *req.SortBy
		default:
			v.Add("sort_by", fmt.Sprintf("unknown sort field: %q", *req.SortBy))
		}
	}
	if req.SortOrder != nil {
		switch *req.SortOrder {
		case search.OrderAsc, search.OrderDesc:
			saved.SortOrder = *req.SortOrder
		default:
			v.Add("sort_order", "must be asc or desc")
		}
	}
	if v.HasErrors() {
		return nil, v
	}

	saved.UpdatedAt = time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`UPDATE saved_searches
		 SET name = $1, description = $2, query = $3, scope = $4,
		     component_type = $5, drawing_type = $6, sort_by = $7,
		     sort_order = $8, updated_at = $9
		 WHERE id = $10`,
		saved.Name, saved.Description, saved.Query, encodeScopes(saved.Scopes),
		saved.ComponentType, saved.DrawingType, saved.SortBy, saved.SortOrder,
		saved.UpdatedAt, saved.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update saved search: %w", err)
	}
	s.countOp("update", "success")
	return saved, nil
}

// Delete removes a saved search. Remaining display orders keep their
// values; gaps are fine and Reorder closes them on demand.
func (s *Service) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_searches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete saved search: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to confirm delete: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	s.countOp("delete", "success")
	return nil
}

// Execute replays a saved search and records the execution.
func (s *Service) Execute(ctx context.Context, id string, page, limit int) (*search.SearchResponse, *SavedSearch, error) {
	saved, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	resp, err := s.searcher.Search(ctx, saved.toQuery(page, limit))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to execute saved search: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`UPDATE saved_searches
		 SET execution_count = execution_count + 1, last_executed = $1
		 WHERE id = $2`, now, id)
	if err != nil {
		s.logger.WithError(err).WithField("saved_search_id", id).
			Warn("failed to record saved search execution")
		s.countOp("execute", "record_error")
		resp.Warnings = append(resp.Warnings, "execution stats could not be recorded")
	} else {
		saved.ExecutionCount++
		saved.LastExecuted = &now
		s.countOp("execute", "success")
	}
	if s.metrics != nil {
		s.metrics.SavedSearchExecutesTotal.Inc()
	}
	return resp, saved, nil
}

// Reorder atomically rewrites a project's display order. The id list must
// be an exact permutation of the project's saved searches; orders come out
// dense, 0 through n-1, in the given sequence.
func (s *Service) Reorder(ctx context.Context, projectID string, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM saved_searches WHERE project_id = $1`, projectID)
	if err != nil {
		return fmt.Errorf("failed to load saved search ids: %w", err)
	}
	existing := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan saved search id: %w", err)
		}
		existing[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read saved search ids: %w", err)
	}

	if len(ids) != len(existing) {
		v := search.NewValidationError("invalid reorder request")
		v.Add("ids", fmt.Sprintf("expected %d ids, got %d", len(existing), len(ids)))
		return v
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !existing[id] {
			v := search.NewValidationError("invalid reorder request")
			v.Add("ids", fmt.Sprintf("id %q does not belong to project %q", id, projectID))
			return v
		}
		if seen[id] {
			v := search.NewValidationError("invalid reorder request")
			v.Add("ids", fmt.Sprintf("id %q appears more than once", id))
			return v
		}
		seen[id] = true
	}

	now := time.Now().UTC()
	for i, id := range ids {
		_, err := tx.ExecContext(ctx,
			`UPDATE saved_searches SET display_order = $1, updated_at = $2 WHERE id = $3`,
			i, now, id)
		if err != nil {
			return fmt.Errorf("failed to reorder saved search: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reorder: %w", err)
	}
	s.countOp("reorder", "success")
	return nil
}

// Count reports a project's usage against the per-project cap.
func (s *Service) Count(ctx context.Context, projectID string) (*CountInfo, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM saved_searches WHERE project_id = $1`, projectID,
	).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to count saved searches: %w", err)
	}
	remaining := MaxPerProject - count
	if remaining < 0 {
		remaining = 0
	}
	return &CountInfo{Count: count, MaxAllowed: MaxPerProject, Remaining: remaining}, nil
}

func (s *Service) countOp(operation, status string) {
	if s.metrics != nil {
		s.metrics.SavedSearchOpsTotal.WithLabelValues(operation, status).Inc()
	}
}
