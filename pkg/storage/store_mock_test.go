package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildsight/marksearch/pkg/model"
)

// Error paths are exercised against sqlmock; happy paths run on real
// SQLite in store_test.go.

func TestStore_ListComponents_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	store := NewStore(db, nil)
	_, err = store.ListComponents(context.Background(), model.ComponentFilter{})
	assert.ErrorContains(t, err, "failed to list components")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecordSearch_ExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO search_history").WillReturnError(assert.AnError)

	store := NewStore(db, nil)
	err = store.RecordSearch(context.Background(), "beam", 1, 5)
	assert.ErrorContains(t, err, "failed to record search")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RefreshSuggestionTerms_RollbackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM suggestion_terms").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO suggestion_terms").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	store := NewStore(db, nil)
	err = store.RefreshSuggestionTerms(context.Background())
	assert.ErrorContains(t, err, "failed to materialize suggestion terms")
	assert.NoError(t, mock.ExpectationsWereMet())
}
