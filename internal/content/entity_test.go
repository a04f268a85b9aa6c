package content

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHydrateLesson(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Lesson
	}{
		{
			name: "full document",
			raw: `{
				"id": 12,
				"title": "Quadratic equations",
				"category": "Algebra",
				"tags": ["equations", "grade-9"],
				"cover": "https://example.com/cover.png",
				"blocks": [{"type": "text", "content": "Intro"}],
				"problems": [3, "7", "junk"],
				"draft": false,
				"author": "admin",
				"timestamp": "2024-03-01T10:00:00Z"
			}`,
			want: Lesson{
				NumericID:   12,
				Title:       "Quadratic equations",
				Category:    "Algebra",
				Tags:        []string{"equations", "grade-9"},
				Cover:       "https://example.com/cover.png",
				Blocks:      []Block{TextBlock{Content: "Intro"}},
				ProblemRefs: []int64{3, 7},
				Draft:       false,
				Author:      "admin",
				CreatedAt:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "empty document defaults to draft",
			raw:  `{}`,
			want: Lesson{
				Tags:        []string{},
				ProblemRefs: []int64{},
				Draft:       true,
			},
		},
		{
			name: "epoch millisecond timestamp",
			raw:  `{"timestamp": 1709287200000, "draft": true}`,
			want: Lesson{
				Tags:        []string{},
				ProblemRefs: []int64{},
				Draft:       true,
				CreatedAt:   time.UnixMilli(1709287200000).UTC(),
			},
		},
		{
			name: "epoch second timestamp",
			raw:  `{"timestamp": 1709287200, "draft": true}`,
			want: Lesson{
				Tags:        []string{},
				ProblemRefs: []int64{},
				Draft:       true,
				CreatedAt:   time.Unix(1709287200, 0).UTC(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HydrateLesson(json.RawMessage(tt.raw)))
		})
	}
}

func TestLesson_SerializeRoundTrip(t *testing.T) {
	lesson := Lesson{
		NumericID:   4,
		Title:       "Fractions",
		Category:    "Arithmetic",
		Tags:        []string{"fractions"},
		Blocks:      []Block{TextBlock{Content: "a"}, ImageBlock{URL: "u"}, ProblemRefBlock{ProblemID: "9"}},
		ProblemRefs: []int64{9},
		Draft:       true,
		Author:      "admin",
		CreatedAt:   time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC),
	}

	raw, err := SerializeLesson(lesson)
	require.NoError(t, err)
	assert.Equal(t, lesson, HydrateLesson(raw))
}

func TestLesson_SerializeEmptyListsAsArrays(t *testing.T) {
	raw, err := SerializeLesson(Lesson{NumericID: 1, Title: "t"})
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.JSONEq(t, `[]`, string(doc["tags"]))
	assert.JSONEq(t, `[]`, string(doc["problems"]))
	assert.JSONEq(t, `[]`, string(doc["blocks"]))
}

func TestHydrateProblem(t *testing.T) {
	raw := `{
		"id": 101,
		"title": "Sum of roots",
		"category": "Algebra",
		"statement": [{"type": "text", "content": "Find $x_1 + x_2$"}],
		"solutions": [{"id": 1, "blocks": [{"type": "text", "content": "Vieta"}]}],
		"lessons": [12],
		"draft": false,
		"author": "admin"
	}`

	got := HydrateProblem(json.RawMessage(raw))

	assert.Equal(t, int64(101), got.NumericID)
	assert.Equal(t, "Sum of roots", got.Title)
	assert.Equal(t, DifficultyMedium, got.Difficulty, "missing difficulty defaults to Medium")
	assert.Equal(t, []Block{TextBlock{Content: "Find $x_1 + x_2$"}}, got.Statement)
	assert.Equal(t, []Solution{{Ordinal: 1, Blocks: []Block{TextBlock{Content: "Vieta"}}}}, got.Solutions)
	assert.Equal(t, []int64{12}, got.LessonRefs)
	assert.False(t, got.Draft)
}

func TestProblem_SerializeRoundTrip(t *testing.T) {
	problem := Problem{
		NumericID:  101,
		Title:      "Sum of roots",
		Category:   "Algebra",
		Difficulty: DifficultyHard,
		Tags:       []string{"vieta"},
		Statement:  []Block{TextBlock{Content: "Find $x_1 + x_2$"}},
		Solutions: []Solution{
			{Ordinal: 1, Blocks: []Block{TextBlock{Content: "Vieta"}}},
			{Ordinal: 2, Blocks: []Block{TextBlock{Content: "Expand"}}},
		},
		LessonRefs: []int64{12},
		Draft:      false,
		Author:     "admin",
		CreatedAt:  time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC),
	}

	raw, err := SerializeProblem(problem)
	require.NoError(t, err)
	assert.Equal(t, problem, HydrateProblem(raw))
}

func TestProblem_UnknownBlockSurvivesSave(t *testing.T) {
	raw := `{"id": 5, "title": "t", "draft": true, "statement": [{"type": "video", "videoId": "abc"}]}`

	hydrated := HydrateProblem(json.RawMessage(raw))
	require.Len(t, hydrated.Statement, 1)
	require.IsType(t, UnknownBlock{}, hydrated.Statement[0])

	out, err := SerializeProblem(hydrated)
	require.NoError(t, err)

	var doc struct {
		Statement []json.RawMessage `json:"statement"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	require.Len(t, doc.Statement, 1)
	assert.JSONEq(t, `{"type": "video", "videoId": "abc"}`, string(doc.Statement[0]))
}

func TestFirstTextPreview(t *testing.T) {
	tests := []struct {
		name   string
		blocks []Block
		limit  int
		want   string
	}{
		{
			name:   "first text block wins",
			blocks: []Block{ImageBlock{URL: "u"}, TextBlock{Content: "hello"}},
			limit:  120,
			want:   "hello",
		},
		{
			name:   "truncated with ellipsis",
			blocks: []Block{TextBlock{Content: "abcdefgh"}},
			limit:  4,
			want:   "abcd...",
		},
		{
			name:   "no text blocks",
			blocks: []Block{ImageBlock{URL: "u"}},
			limit:  120,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstTextPreview(tt.blocks, tt.limit))
		})
	}
}
