// Package store provides the collection-oriented document store the content
// pipeline persists into, plus the numeric-ID allocator.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Collections consumed by the content pipeline. Documents are keyed by the
// string form of the entity's numeric ID.
const (
	CollectionLessons  = "lessons"
	CollectionProblems = "problems"
)

// Counter kinds for the numeric-ID allocator. Lesson and problem IDs are
// independent sequences.
const (
	KindLesson  = "lessons"
	KindProblem = "problems"
)

// ErrNotFound reports an absent document. For the entity a view is showing
// it is terminal for that view; for a cross-reference inside a block it is
// an expected steady state.
var ErrNotFound = errors.New("document not found")

// Visibility filters a query by the draft flag.
type Visibility int

const (
	VisibilityAll Visibility = iota
	VisibilityPublished
	VisibilityDraft
)

// Filter narrows a collection query.
type Filter struct {
	Visibility Visibility
	Category   string
}

// Document is one stored record with its key.
type Document struct {
	ID   string
	Body json.RawMessage
}

// Store is the document store contract. Implementations must treat documents
// as opaque JSON; all shape knowledge stays in the content package.
type Store interface {
	// Get returns the document body, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	// Put writes a document. With merge set, top-level fields of body are
	// merged over the existing document; entity saves always pass
	// merge=false so a save is whole-document, never partial.
	Put(ctx context.Context, collection, id string, body json.RawMessage, merge bool) error
	// Delete removes a document. Deleting an absent document is not an
	// error.
	Delete(ctx context.Context, collection, id string) error
	// Query returns documents matching filter, ordered by numeric ID,
	// descending when orderDesc is set.
	Query(ctx context.Context, collection string, filter Filter, orderDesc bool) ([]Document, error)
}

// Allocator hands out human-facing numeric IDs. NextID must serialize
// increment-and-read so two concurrent creates never share an ID.
type Allocator interface {
	NextID(ctx context.Context, kind string) (int64, error)
}
