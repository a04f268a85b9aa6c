package content

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// Difficulty values offered by the problem editor. The field is a free
// string in storage and unrecognized values are kept as-is.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Lesson is the full persisted shape of one lesson.
type Lesson struct {
	NumericID   int64
	Title       string
	Category    string
	Tags        []string
	Cover       string
	Blocks      []Block
	ProblemRefs []int64
	Draft       bool
	Author      string
	CreatedAt   time.Time
}

// Problem is the full persisted shape of one practice problem.
type Problem struct {
	NumericID  int64
	Title      string
	Category   string
	Difficulty string
	Tags       []string
	Statement  []Block
	Solutions  []Solution
	LessonRefs []int64
	Draft      bool
	Author     string
	CreatedAt  time.Time
}

// HydrateLesson maps a persisted lesson document to the entity. Every field
// may be absent: strings default to "", lists to empty, draft to true.
func HydrateLesson(raw json.RawMessage) Lesson {
	r := gjson.ParseBytes(raw)
	return Lesson{
		NumericID:   r.Get("id").Int(),
		Title:       r.Get("title").String(),
		Category:    r.Get("category").String(),
		Tags:        hydrateStrings(r.Get("tags")),
		Cover:       r.Get("cover").String(),
		Blocks:      parseBlockSequence(r.Get("blocks")),
		ProblemRefs: hydrateRefs(r.Get("problems")),
		Draft:       hydrateDraft(r.Get("draft")),
		Author:      r.Get("author").String(),
		CreatedAt:   hydrateTimestamp(r.Get("timestamp")),
	}
}

// HydrateProblem maps a persisted problem document to the entity. Difficulty
// defaults to Medium; the solutions field goes through HydrateSolutions and
// therefore tolerates all legacy shapes.
func HydrateProblem(raw json.RawMessage) Problem {
	r := gjson.ParseBytes(raw)
	difficulty := r.Get("difficulty").String()
	if difficulty == "" {
		difficulty = DifficultyMedium
	}
	return Problem{
		NumericID:  r.Get("id").Int(),
		Title:      r.Get("title").String(),
		Category:   r.Get("category").String(),
		Difficulty: difficulty,
		Tags:       hydrateStrings(r.Get("tags")),
		Statement:  parseBlockSequence(r.Get("statement")),
		Solutions:  hydrateSolutions(r.Get("solutions")),
		LessonRefs: hydrateRefs(r.Get("lessons")),
		Draft:      hydrateDraft(r.Get("draft")),
		Author:     r.Get("author").String(),
		CreatedAt:  hydrateTimestamp(r.Get("timestamp")),
	}
}

// SerializeLesson writes the lesson in its canonical document shape. The
// write is always whole-document so a save never leaves partial state
// visible.
func SerializeLesson(l Lesson) (json.RawMessage, error) {
	doc := map[string]any{
		"id":        l.NumericID,
		"title":     l.Title,
		"category":  l.Category,
		"tags":      emptyNotNull(l.Tags),
		"cover":     l.Cover,
		"blocks":    SerializeBlockSequence(l.Blocks),
		"problems":  emptyNotNull(l.ProblemRefs),
		"draft":     l.Draft,
		"author":    l.Author,
		"timestamp": serializeTimestamp(l.CreatedAt),
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal lesson %d: %w", l.NumericID, err)
	}
	return b, nil
}

// SerializeProblem writes the problem in its canonical document shape.
func SerializeProblem(p Problem) (json.RawMessage, error) {
	doc := map[string]any{
		"id":         p.NumericID,
		"title":      p.Title,
		"category":   p.Category,
		"difficulty": p.Difficulty,
		"tags":       emptyNotNull(p.Tags),
		"statement":  SerializeBlockSequence(p.Statement),
		"solutions":  SerializeSolutions(p.Solutions),
		"lessons":    emptyNotNull(p.LessonRefs),
		"draft":      p.Draft,
		"author":     p.Author,
		"timestamp":  serializeTimestamp(p.CreatedAt),
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal problem %d: %w", p.NumericID, err)
	}
	return b, nil
}

// FirstTextPreview returns a truncated copy of the first text block's
// content, used on list cards. Sequences without text yield "".
func FirstTextPreview(blocks []Block, limit int) string {
	for _, b := range blocks {
		t, ok := b.(TextBlock)
		if !ok {
			continue
		}
		if limit > 0 && len(t.Content) > limit {
			return t.Content[:limit] + "..."
		}
		return t.Content
	}
	return ""
}

func hydrateStrings(r gjson.Result) []string {
	if !r.IsArray() {
		return []string{}
	}
	items := r.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := item.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func hydrateRefs(r gjson.Result) []int64 {
	if !r.IsArray() {
		return []int64{}
	}
	items := r.Array()
	out := make([]int64, 0, len(items))
	for _, item := range items {
		// old documents mix numbers and numeric strings; non-numeric
		// entries drop out silently
		if id := item.Int(); id > 0 {
			out = append(out, id)
		}
	}
	return out
}

// hydrateDraft defaults a missing draft flag to true so half-written legacy
// documents never leak into the public views.
func hydrateDraft(r gjson.Result) bool {
	if !r.Exists() {
		return true
	}
	return r.Bool()
}

// hydrateTimestamp accepts the formats that accumulated in the source data:
// RFC3339 strings, epoch milliseconds, and epoch seconds.
func hydrateTimestamp(r gjson.Result) time.Time {
	if !r.Exists() {
		return time.Time{}
	}
	if r.Type == gjson.String {
		if t, err := time.Parse(time.RFC3339, r.String()); err == nil {
			return t
		}
		return time.Time{}
	}
	n := r.Int()
	if n <= 0 {
		return time.Time{}
	}
	// epoch milliseconds start around 1e12; anything smaller is seconds
	if n >= 1_000_000_000_000 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

func serializeTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// emptyNotNull keeps empty lists as [] instead of null in documents, the
// shape the original pages always wrote.
func emptyNotNull[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
