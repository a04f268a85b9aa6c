// Package resolve turns problem and lesson references into display data.
package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/avast/retry-go"

	"github.com/az-math/azmath/internal/content"
	"github.com/az-math/azmath/internal/store"
)

// Reference kinds.
const (
	KindProblem = "problem"
	KindLesson  = "lesson"
)

// ErrNotFound reports a dangling reference. Referential integrity is not
// enforced at write time, so this is an expected outcome: callers render a
// dead-but-valid link instead of surfacing an error.
var ErrNotFound = errors.New("referenced entity not found")

// ResolvedReference is the display data for a reference card.
type ResolvedReference struct {
	Kind       string
	NumericID  int64
	Title      string
	Category   string
	Difficulty string
	Preview    string
	Draft      bool
	Solutions  int
}

// Resolver looks referenced entities up in the document store.
type Resolver struct {
	store store.Store
}

// NewResolver creates a Resolver.
func NewResolver(s store.Store) *Resolver {
	return &Resolver{store: s}
}

// Resolve loads the referenced entity's display data. The id may be a
// numeric string or empty; anything that does not name a stored document
// resolves to ErrNotFound. Transient store failures are retried before they
// surface.
func (r *Resolver) Resolve(ctx context.Context, kind, id string) (ResolvedReference, error) {
	collection, err := collectionFor(kind)
	if err != nil {
		return ResolvedReference{}, err
	}
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return ResolvedReference{}, ErrNotFound
	}

	var body json.RawMessage
	err = retry.Do(
		func() error {
			var getErr error
			body, getErr = r.store.Get(ctx, collection, id)
			return getErr
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(100*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, store.ErrNotFound)
		}),
	)
	if errors.Is(err, store.ErrNotFound) {
		return ResolvedReference{}, ErrNotFound
	}
	if err != nil {
		return ResolvedReference{}, fmt.Errorf("resolve %s %s: %w", kind, id, err)
	}

	if kind == KindProblem {
		p := content.HydrateProblem(body)
		return ResolvedReference{
			Kind:       KindProblem,
			NumericID:  p.NumericID,
			Title:      p.Title,
			Category:   p.Category,
			Difficulty: p.Difficulty,
			Preview:    content.FirstTextPreview(p.Statement, 120),
			Draft:      p.Draft,
			Solutions:  len(p.Solutions),
		}, nil
	}
	l := content.HydrateLesson(body)
	return ResolvedReference{
		Kind:      KindLesson,
		NumericID: l.NumericID,
		Title:     l.Title,
		Category:  l.Category,
		Preview:   content.FirstTextPreview(l.Blocks, 120),
		Draft:     l.Draft,
	}, nil
}

func collectionFor(kind string) (string, error) {
	switch kind {
	case KindProblem:
		return store.CollectionProblems, nil
	case KindLesson:
		return store.CollectionLessons, nil
	}
	return "", fmt.Errorf("unknown reference kind %q", kind)
}
