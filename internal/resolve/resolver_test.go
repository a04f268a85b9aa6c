package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_store "github.com/az-math/azmath/internal/mocks/store"
	"github.com/az-math/azmath/internal/store"
)

func TestResolver_Resolve_Problem(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mock_store.NewMockStore(ctrl)
	s.EXPECT().
		Get(gomock.Any(), store.CollectionProblems, "101").
		Return(json.RawMessage(`{
			"id": 101,
			"title": "Sum of roots",
			"category": "Algebra",
			"difficulty": "Hard",
			"statement": [{"type": "text", "content": "Find $x_1 + x_2$"}],
			"solutions": [{"id": 1, "blocks": []}, {"id": 2, "blocks": []}],
			"draft": false
		}`), nil)

	got, err := NewResolver(s).Resolve(context.Background(), KindProblem, "101")
	require.NoError(t, err)

	assert.Equal(t, ResolvedReference{
		Kind:       KindProblem,
		NumericID:  101,
		Title:      "Sum of roots",
		Category:   "Algebra",
		Difficulty: "Hard",
		Preview:    "Find $x_1 + x_2$",
		Draft:      false,
		Solutions:  2,
	}, got)
}

func TestResolver_Resolve_Lesson(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mock_store.NewMockStore(ctrl)
	s.EXPECT().
		Get(gomock.Any(), store.CollectionLessons, "12").
		Return(json.RawMessage(`{"id": 12, "title": "Quadratics", "blocks": [{"type": "text", "content": "Intro"}], "draft": false}`), nil)

	got, err := NewResolver(s).Resolve(context.Background(), KindLesson, "12")
	require.NoError(t, err)

	assert.Equal(t, KindLesson, got.Kind)
	assert.Equal(t, int64(12), got.NumericID)
	assert.Equal(t, "Quadratics", got.Title)
	assert.Equal(t, "Intro", got.Preview)
}

func TestResolver_Resolve_NotFound(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		setup func(s *mock_store.MockStore)
	}{
		{
			name: "dangling reference",
			id:   "999999",
			setup: func(s *mock_store.MockStore) {
				s.EXPECT().
					Get(gomock.Any(), store.CollectionProblems, "999999").
					Return(nil, store.ErrNotFound)
			},
		},
		{
			name:  "non-numeric id never hits the store",
			id:    "abc",
			setup: func(s *mock_store.MockStore) {},
		},
		{
			name:  "empty id never hits the store",
			id:    "",
			setup: func(s *mock_store.MockStore) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			s := mock_store.NewMockStore(ctrl)
			tt.setup(s)

			_, err := NewResolver(s).Resolve(context.Background(), KindProblem, tt.id)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestResolver_Resolve_RetriesTransientFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mock_store.NewMockStore(ctrl)
	gomock.InOrder(
		s.EXPECT().
			Get(gomock.Any(), store.CollectionLessons, "1").
			Return(nil, errors.New("connection reset")),
		s.EXPECT().
			Get(gomock.Any(), store.CollectionLessons, "1").
			Return(json.RawMessage(`{"id": 1, "title": "t", "draft": false}`), nil),
	)

	got, err := NewResolver(s).Resolve(context.Background(), KindLesson, "1")
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)
}

func TestResolver_Resolve_DoesNotRetryNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mock_store.NewMockStore(ctrl)
	s.EXPECT().
		Get(gomock.Any(), store.CollectionProblems, "5").
		Return(nil, store.ErrNotFound).
		Times(1)

	_, err := NewResolver(s).Resolve(context.Background(), KindProblem, "5")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolver_Resolve_UnknownKind(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mock_store.NewMockStore(ctrl)

	_, err := NewResolver(s).Resolve(context.Background(), "chapter", "1")
	assert.ErrorContains(t, err, "unknown reference kind")
}
