package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/az-math/azmath/internal/database"
)

// MySQLStore implements Store and Allocator on MySQL.
//
// Schema:
//
//	CREATE TABLE documents (
//	    collection VARCHAR(64)  NOT NULL,
//	    doc_id     VARCHAR(64)  NOT NULL,
//	    body       JSON         NOT NULL,
//	    PRIMARY KEY (collection, doc_id)
//	);
//	CREATE TABLE counters (
//	    kind      VARCHAR(64) NOT NULL PRIMARY KEY,
//	    latest_id BIGINT      NOT NULL
//	);
type MySQLStore struct {
	db *sqlx.DB
}

// NewMySQLStore creates a MySQLStore.
func NewMySQLStore(db *sqlx.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// Get returns one document body, or ErrNotFound.
func (s *MySQLStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	var body []byte
	err := s.db.GetContext(ctx, &body,
		"SELECT body FROM documents WHERE collection = ? AND doc_id = ?", collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}
	return body, nil
}

// Put upserts one document. With merge set, top-level fields of body are
// merged over the stored document via JSON_MERGE_PATCH, so the statement
// stays a single atomic write either way.
func (s *MySQLStore) Put(ctx context.Context, collection, id string, body json.RawMessage, merge bool) error {
	update := "body = VALUES(body)"
	if merge {
		update = "body = JSON_MERGE_PATCH(body, VALUES(body))"
	}
	query := "INSERT INTO documents (collection, doc_id, body) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE " + update
	if _, err := s.db.ExecContext(ctx, query, collection, id, []byte(body)); err != nil {
		return fmt.Errorf("put document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete removes one document. Absent documents are not an error.
func (s *MySQLStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND doc_id = ?", collection, id); err != nil {
		return fmt.Errorf("delete document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Query returns documents matching filter, ordered by numeric ID.
func (s *MySQLStore) Query(ctx context.Context, collection string, filter Filter, orderDesc bool) ([]Document, error) {
	query := "SELECT doc_id, body FROM documents WHERE collection = ?"
	args := []any{collection}

	// COALESCE defaults a missing draft flag to true, matching hydration
	switch filter.Visibility {
	case VisibilityPublished:
		query += " AND COALESCE(JSON_EXTRACT(body, '$.draft'), true) = false"
	case VisibilityDraft:
		query += " AND COALESCE(JSON_EXTRACT(body, '$.draft'), true) = true"
	}
	if filter.Category != "" {
		query += " AND JSON_UNQUOTE(JSON_EXTRACT(body, '$.category')) = ?"
		args = append(args, filter.Category)
	}

	query += " ORDER BY CAST(doc_id AS UNSIGNED)"
	if orderDesc {
		query += " DESC"
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", collection, err)
	}
	defer func() { _ = rows.Close() }()

	var docs []Document
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan document in %s: %w", collection, err)
		}
		docs = append(docs, Document{ID: id, Body: body})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collection %s: %w", collection, err)
	}
	return docs, nil
}

// PutAll upserts a batch of documents in one transaction using a multi-row
// INSERT, used by the import command.
func (s *MySQLStore) PutAll(ctx context.Context, collection string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	return database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		columns := []string{"collection", "doc_id", "body"}
		query := database.BuildMultiRowInsert("documents", columns, len(docs)) +
			" ON DUPLICATE KEY UPDATE body = VALUES(body)"

		var args []any
		for _, d := range docs {
			args = append(args, collection, d.ID, []byte(d.Body))
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert documents into %s: %w", collection, err)
		}
		return nil
	})
}

// EnsureLatestID raises the counter for kind to at least id. Run after an
// import so later allocations cannot collide with imported documents.
func (s *MySQLStore) EnsureLatestID(ctx context.Context, kind string, id int64) error {
	query := "INSERT INTO counters (kind, latest_id) VALUES (?, ?)" +
		" ON DUPLICATE KEY UPDATE latest_id = GREATEST(latest_id, VALUES(latest_id))"
	if _, err := s.db.ExecContext(ctx, query, kind, id); err != nil {
		return fmt.Errorf("ensure counter %s: %w", kind, err)
	}
	return nil
}

// NextID increments and returns the counter for kind. The row lock taken by
// SELECT ... FOR UPDATE serializes concurrent allocations, so two creates
// can never observe the same value.
func (s *MySQLStore) NextID(ctx context.Context, kind string) (int64, error) {
	var next int64
	err := database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		var current int64
		err := tx.GetContext(ctx, &current,
			"SELECT latest_id FROM counters WHERE kind = ? FOR UPDATE", kind)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			next = 1
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO counters (kind, latest_id) VALUES (?, ?)", kind, next); err != nil {
				return fmt.Errorf("insert counter %s: %w", kind, err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("read counter %s: %w", kind, err)
		}
		next = current + 1
		if _, err := tx.ExecContext(ctx,
			"UPDATE counters SET latest_id = ? WHERE kind = ?", next, kind); err != nil {
			return fmt.Errorf("update counter %s: %w", kind, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}
