package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMultiRowInsert(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		columns []string
		rows    int
		want    string
	}{
		{
			name:    "single row",
			table:   "documents",
			columns: []string{"collection", "doc_id", "body"},
			rows:    1,
			want:    "INSERT INTO documents (collection, doc_id, body) VALUES (?, ?, ?)",
		},
		{
			name:    "multiple rows",
			table:   "documents",
			columns: []string{"collection", "doc_id", "body"},
			rows:    3,
			want:    "INSERT INTO documents (collection, doc_id, body) VALUES (?, ?, ?), (?, ?, ?), (?, ?, ?)",
		},
		{
			name:    "single column",
			table:   "counters",
			columns: []string{"kind"},
			rows:    2,
			want:    "INSERT INTO counters (kind) VALUES (?), (?)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildMultiRowInsert(tt.table, tt.columns, tt.rows))
		})
	}
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

func TestRunInTx(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		err := RunInTx(context.Background(), db, func(ctx context.Context, tx *sqlx.Tx) error {
			return nil
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		fnErr := errors.New("write failed")
		err := RunInTx(context.Background(), db, func(ctx context.Context, tx *sqlx.Tx) error {
			return fnErr
		})
		assert.ErrorIs(t, err, fnErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("surfaces commit failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("commit lost"))

		err := RunInTx(context.Background(), db, func(ctx context.Context, tx *sqlx.Tx) error {
			return nil
		})
		assert.ErrorContains(t, err, "commit lost")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
