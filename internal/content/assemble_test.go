package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembler_AssembleLesson(t *testing.T) {
	assembler, err := NewAssembler()
	require.NoError(t, err)

	t.Run("assembles the persisted shape", func(t *testing.T) {
		createdAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		form := EditorFormState{
			NumericID:   12,
			Title:       "  Quadratic equations  ",
			Category:    "Algebra",
			Tags:        "equations, grade-9, , equations",
			Cover:       "https://example.com/cover.png",
			ProblemRefs: "3, 7, junk, -1",
			Draft:       true,
			Author:      "admin",
			CreatedAt:   createdAt,
		}
		blocks := []Block{TextBlock{Content: "Intro"}}

		lesson, err := assembler.AssembleLesson(form, blocks)
		require.NoError(t, err)

		assert.Equal(t, Lesson{
			NumericID:   12,
			Title:       "Quadratic equations",
			Category:    "Algebra",
			Tags:        []string{"equations", "grade-9"},
			Cover:       "https://example.com/cover.png",
			Blocks:      blocks,
			ProblemRefs: []int64{3, 7},
			Draft:       true,
			Author:      "admin",
			CreatedAt:   createdAt,
		}, lesson)
	})

	t.Run("empty title fails validation", func(t *testing.T) {
		_, err := assembler.AssembleLesson(EditorFormState{NumericID: 1}, nil)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "title", verr.Field)
		assert.NotEmpty(t, verr.Message)
	})

	t.Run("missing id fails validation on the form field name", func(t *testing.T) {
		_, err := assembler.AssembleLesson(EditorFormState{Title: "t"}, nil)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "id", verr.Field)
	})
}

func TestAssembler_AssembleProblem(t *testing.T) {
	assembler, err := NewAssembler()
	require.NoError(t, err)

	t.Run("difficulty defaults to Medium", func(t *testing.T) {
		problem, err := assembler.AssembleProblem(EditorFormState{NumericID: 1, Title: "t"}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, DifficultyMedium, problem.Difficulty)
	})

	t.Run("solution ordinals are renumbered by position", func(t *testing.T) {
		solutions := []Solution{
			{Ordinal: 9, Blocks: []Block{TextBlock{Content: "a"}}},
			{Ordinal: 2, Blocks: []Block{TextBlock{Content: "b"}}},
		}

		problem, err := assembler.AssembleProblem(EditorFormState{NumericID: 1, Title: "t"}, nil, solutions)
		require.NoError(t, err)

		assert.Equal(t, 1, problem.Solutions[0].Ordinal)
		assert.Equal(t, 2, problem.Solutions[1].Ordinal)
	})
}

func TestLessonFormState_RoundTrip(t *testing.T) {
	assembler, err := NewAssembler()
	require.NoError(t, err)

	lesson := Lesson{
		NumericID:   4,
		Title:       "Fractions",
		Category:    "Arithmetic",
		Tags:        []string{"fractions", "grade-5"},
		Cover:       "c",
		ProblemRefs: []int64{1, 2},
		Draft:       true,
		Author:      "admin",
		CreatedAt:   time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC),
	}

	form := LessonFormState(lesson)
	assert.Equal(t, "fractions, grade-5", form.Tags)
	assert.Equal(t, "1, 2", form.ProblemRefs)

	got, err := assembler.AssembleLesson(form, lesson.Blocks)
	require.NoError(t, err)
	assert.Equal(t, lesson, got)
}

func TestParseTagList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "trims and dedups", input: " a , b ,a,, c", want: []string{"a", "b", "c"}},
		{name: "empty input", input: "", want: []string{}},
		{name: "only separators", input: " , ,", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTagList(tt.input))
		})
	}
}

func TestParseRefList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []int64
	}{
		{name: "numeric tokens", input: "3, 7", want: []int64{3, 7}},
		{name: "drops junk and non-positive ids", input: "3, x, 0, -2, 7", want: []int64{3, 7}},
		{name: "empty input", input: "", want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRefList(tt.input))
		})
	}
}
