package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	migrations := fstest.MapFS{
		"migrations/0002_add_index.sql":     {Data: []byte("CREATE INDEX idx ON documents (doc_id)")},
		"migrations/0001_create_tables.sql": {Data: []byte("CREATE TABLE documents (doc_id VARCHAR(64))")},
	}

	t.Run("applies files in lexical order", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE documents (doc_id VARCHAR(64))")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX idx ON documents (doc_id)")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, Migrate(context.Background(), db, migrations))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stops on the first failing migration", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE documents (doc_id VARCHAR(64))")).
			WillReturnError(errors.New("syntax error"))

		err := Migrate(context.Background(), db, migrations)
		assert.ErrorContains(t, err, "apply migration 0001_create_tables.sql")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing migrations directory fails", func(t *testing.T) {
		db, _ := newMockDB(t)
		err := Migrate(context.Background(), db, fstest.MapFS{})
		assert.ErrorContains(t, err, "read migrations directory")
	})
}
