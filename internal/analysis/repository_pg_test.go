package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_AppendLocksInsertsAndTrims(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	s := newSession("u1")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO analysis_sessions")).
		WithArgs(s.ID, "u1", sqlmock.AnyArg(), []byte(s.AnalysisResult), "model", s.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM analysis_sessions")).
		WithArgs("u1", 50).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, store.Append(context.Background(), s, 50))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendRollsBackOnInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO analysis_sessions")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err = store.Append(context.Background(), newSession("u1"), 50)
	assert.ErrorContains(t, err, "insert session")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	id := uuid.New()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	report, err := json.Marshal(validReport())
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM analysis_sessions WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC")).
		WithArgs("u1", 10, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "report", "analysis_result", "source", "created_at"}).
			AddRow(id.String(), "u1", report, []byte(`{"triageLevel":"self-care"}`), "fallback", created))

	got, total, err := store.List(context.Background(), "u1", 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, SourceFallback, got[0].Source)
	assert.Equal(t, "sore throat and runny nose", got[0].SymptomsText)
	assert.Equal(t, created, got[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListPastEndSkipsQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	got, total, err := store.List(context.Background(), "u1", 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAndDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND id = $2")).
		WithArgs("u1", id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM analysis_sessions WHERE user_id = $1 AND id = $2")).
		WithArgs("u1", id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err = store.Get(context.Background(), "u1", id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(context.Background(), "u1", id), ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
