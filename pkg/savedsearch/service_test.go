package savedsearch

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for testing

	"github.com/buildsight/marksearch/pkg/observability"
	"github.com/buildsight/marksearch/pkg/search"
	"github.com/buildsight/marksearch/pkg/storage"
)

func setupService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.Bootstrap(context.Background(), db))

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	store := storage.NewStore(db, nil)
	searcher := search.NewService(store, nil, logger, nil)
	return NewService(db, searcher, logger, nil), db
}

func seedComponents(t *testing.T, db *sql.DB) {
	t.Helper()
	ctx := context.Background()
	_, err := db.ExecContext(ctx,
		`INSERT INTO drawings (id, project_id, drawing_type, file_name, created_at)
		 VALUES ('d1', 'proj-a', 'erection', 'E-101.pdf', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx,
		`INSERT INTO components
		 (id, drawing_id, piece_mark, component_type, description, material_type,
		  instance_identifier, confidence_score, created_at, updated_at)
		 VALUES ('c1', 'd1', 'BEAM-W12-101', 'beam', 'Steel beam structure', 'A992',
		         '', 0.95, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(t, err)
}

func createRequest(project, name string) *CreateRequest {
	return &CreateRequest{
		ProjectID: project,
		Name:      name,
		Query:     "beam",
		Scope:     []string{"piece_mark"},
	}
}

func TestCreateAssignsDenseDisplayOrder(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, createRequest("proj-a", "beams"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, createRequest("proj-a", "plates"))
	require.NoError(t, err)
	other, err := svc.Create(ctx, createRequest("proj-b", "angles"))
	require.NoError(t, err)

	assert.Equal(t, 0, first.DisplayOrder, "first search in a project starts at 0")
	assert.Equal(t, 1, second.DisplayOrder)
	assert.Equal(t, 0, other.DisplayOrder, "ordering is per project")
	assert.Equal(t, search.SortRelevance, first.SortBy)
	assert.NotEmpty(t, first.ID)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateRequest{ProjectID: "proj-a", Query: "beam"})
	v, ok := search.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, v.Fields, "name")

	_, err = svc.Create(ctx, &CreateRequest{
		ProjectID: "proj-a", Name: "bad scope", Query: "beam", Scope: []string{"weight"},
	})
	_, ok = search.AsValidationError(err)
	assert.True(t, ok)
}

func TestCreateEnforcesProjectCap(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	for i := 0; i < MaxPerProject; i++ {
		_, err := svc.Create(ctx, createRequest("proj-a", fmt.Sprintf("search %d", i)))
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, createRequest("proj-a", "one too many"))
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	// other projects are unaffected
	_, err = svc.Create(ctx, createRequest("proj-b", "fine"))
	assert.NoError(t, err)

	info, err := svc.Count(ctx, "proj-a")
	require.NoError(t, err)
	assert.Equal(t, &CountInfo{Count: MaxPerProject, MaxAllowed: MaxPerProject, Remaining: 0}, info)
}

func TestGetAndList(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createRequest("proj-a", "beams"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, createRequest("proj-a", "plates"))
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "beams", got.Name)
	assert.Equal(t, []search.ScopeField{search.ScopePieceMark}, got.Scopes)

	_, err = svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := svc.List(ctx, "proj-a")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "beams", list[0].Name)
	assert.Equal(t, "plates", list[1].Name)
}

func TestUpdatePartial(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createRequest("proj-a", "beams"))
	require.NoError(t, err)

	name := "renamed"
	scope := []string{"description", "piece_mark"}
	updated, err := svc.Update(ctx, created.ID, &UpdateRequest{Name: &name, Scope: &scope})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, []search.ScopeField{search.ScopeDescription, search.ScopePieceMark}, updated.Scopes)
	assert.Equal(t, "beam", updated.Query, "untouched fields survive")

	empty := " "
	_, err = svc.Update(ctx, created.ID, &UpdateRequest{Query: &empty})
	_, ok := search.AsValidationError(err)
	assert.True(t, ok)

	_, err = svc.Update(ctx, "nope", &UpdateRequest{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createRequest("proj-a", "beams"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID), ErrNotFound)
}

func TestExecute(t *testing.T) {
	svc, db := setupService(t)
	seedComponents(t, db)
	ctx := context.Background()

	created, err := svc.Create(ctx, createRequest("proj-a", "beams"))
	require.NoError(t, err)
	require.Nil(t, created.LastExecuted)

	resp, saved, err := svc.Execute(ctx, created.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, 1, saved.ExecutionCount)
	assert.NotNil(t, saved.LastExecuted)

	_, saved, err = svc.Execute(ctx, created.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.ExecutionCount)

	_, _, err = svc.Execute(ctx, "nope", 1, 20)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExecuteSurfacesFailedBookkeeping(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	seedComponents(t, db)

	created, err := svc.Create(ctx, createRequest("proj-a", "beams"))
	require.NoError(t, err)

	// make the stats update fail while the search itself still works
	_, err = db.ExecContext(ctx,
		`CREATE TRIGGER block_execution_stats
		 BEFORE UPDATE OF execution_count ON saved_searches
		 BEGIN SELECT RAISE(ABORT, 'stats locked'); END`)
	require.NoError(t, err)

	resp, saved, err := svc.Execute(ctx, created.ID, 1, 20)
	require.NoError(t, err, "search results still come back")
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, 0, saved.ExecutionCount, "count stays untouched when recording fails")
	assert.Nil(t, saved.LastExecuted)
	assert.Contains(t, resp.Warnings, "execution stats could not be recorded")
}

func TestReorder(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		created, err := svc.Create(ctx, createRequest("proj-a", name))
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	require.NoError(t, svc.Reorder(ctx, "proj-a", []string{ids[2], ids[0], ids[1]}))

	list, err := svc.List(ctx, "proj-a")
	require.NoError(t, err)
	assert.Equal(t, "c", list[0].Name)
	assert.Equal(t, "a", list[1].Name)
	assert.Equal(t, "b", list[2].Name)
	for i, saved := range list {
		assert.Equal(t, i, saved.DisplayOrder, "orders come out dense, 0 through n-1")
	}
}

func TestReorderRejectsBadPermutations(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, createRequest("proj-a", "a"))
	require.NoError(t, err)
	b, err := svc.Create(ctx, createRequest("proj-a", "b"))
	require.NoError(t, err)
	other, err := svc.Create(ctx, createRequest("proj-b", "other"))
	require.NoError(t, err)

	cases := map[string][]string{
		"missing id":    {a.ID},
		"duplicate id":  {a.ID, a.ID},
		"foreign id":    {a.ID, other.ID},
		"unknown id":    {a.ID, "nope"},
		"extra entries": {a.ID, b.ID, "nope"},
	}
	for name, ids := range cases {
		t.Run(name, func(t *testing.T) {
			err := svc.Reorder(ctx, "proj-a", ids)
			_, ok := search.AsValidationError(err)
			assert.True(t, ok)
		})
	}

	// failed reorders leave the original order intact
	list, err := svc.List(ctx, "proj-a")
	require.NoError(t, err)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "b", list[1].Name)
}

func TestCountEmptyProject(t *testing.T) {
	svc, _ := setupService(t)

	info, err := svc.Count(context.Background(), "proj-a")
	require.NoError(t, err)
	assert.Equal(t, &CountInfo{Count: 0, MaxAllowed: MaxPerProject, Remaining: MaxPerProject}, info)
}
