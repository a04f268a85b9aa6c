package server

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/az-math/azmath/internal/content"
	"github.com/az-math/azmath/internal/render"
	"github.com/az-math/azmath/internal/store"
)

type lessonCard struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Cover    string   `json:"cover,omitempty"`
	Preview  string   `json:"preview"`
	Draft    bool     `json:"draft"`
}

type lessonView struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Category     string          `json:"category"`
	Tags         []string        `json:"tags"`
	Cover        string          `json:"cover,omitempty"`
	Content      []template.HTML `json:"content"`
	NeedsTypeset bool            `json:"needsTypeset"`
	Problems     []int64         `json:"problems"`
	CreatedAt    string          `json:"createdAt,omitempty"`
}

type lessonSaveRequest struct {
	Title       string          `json:"title"`
	Category    string          `json:"category"`
	Tags        string          `json:"tags"`
	Cover       string          `json:"cover"`
	ProblemRefs string          `json:"problems"`
	Blocks      json.RawMessage `json:"blocks"`
	Publish     bool            `json:"publish"`
}

type lessonEditorPayload struct {
	Form         content.EditorFormState `json:"form"`
	Blocks       []any                   `json:"blocks"`
	Editor       []template.HTML         `json:"editor"`
	Preview      []template.HTML         `json:"preview"`
	NeedsTypeset bool                    `json:"needsTypeset"`
}

// listLessons serves the public lesson cards: published only, ascending by
// numeric ID, optionally narrowed by category and a search term.
func (h *Handler) listLessons(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.Query(r.Context(), store.CollectionLessons, store.Filter{
		Visibility: store.VisibilityPublished,
		Category:   r.URL.Query().Get("category"),
	}, false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lessonCards(docs, r.URL.Query().Get("q")))
}

// adminListLessons serves all lessons including drafts, newest first.
func (h *Handler) adminListLessons(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.Query(r.Context(), store.CollectionLessons, store.Filter{
		Visibility: visibilityParam(r.URL.Query().Get("visibility")),
		Category:   r.URL.Query().Get("category"),
	}, true)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lessonCards(docs, r.URL.Query().Get("q")))
}

// getLesson serves the public view of one published lesson.
func (h *Handler) getLesson(w http.ResponseWriter, r *http.Request) {
	body, err := h.store.Get(r.Context(), store.CollectionLessons, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	lesson := content.HydrateLesson(body)
	if lesson.Draft {
		writeError(w, store.ErrNotFound)
		return
	}

	rendered, err := h.renderer.Render(r.Context(), lesson.Blocks, render.ContextPublic)
	if err != nil {
		writeError(w, fmt.Errorf("render lesson %d: %w", lesson.NumericID, err))
		return
	}

	writeJSON(w, http.StatusOK, lessonView{
		ID:           lesson.NumericID,
		Title:        lesson.Title,
		Category:     lesson.Category,
		Tags:         lesson.Tags,
		Cover:        lesson.Cover,
		Content:      rendered.Fragments,
		NeedsTypeset: rendered.NeedsTypeset,
		Problems:     lesson.ProblemRefs,
		CreatedAt:    formatCreatedAt(lesson.CreatedAt),
	})
}

// createLesson allocates the next lesson ID and writes an empty draft, then
// points the client at the editor for it.
func (h *Handler) createLesson(w http.ResponseWriter, r *http.Request) {
	id, err := h.allocator.NextID(r.Context(), store.KindLesson)
	if err != nil {
		writeError(w, fmt.Errorf("allocate lesson id: %w", err))
		return
	}

	lesson := content.Lesson{
		NumericID: id,
		Tags:      []string{},
		Blocks:    []content.Block{content.TextBlock{}},
		Draft:     true,
		Author:    h.identity.UserLabel(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	body, err := content.SerializeLesson(lesson)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.Put(r.Context(), store.CollectionLessons, formatID(id), body, false); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// editLesson serves the editor payload: hydrated form state, canonical block
// records, and editor-context fragments.
func (h *Handler) editLesson(w http.ResponseWriter, r *http.Request) {
	body, err := h.store.Get(r.Context(), store.CollectionLessons, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	lesson := content.HydrateLesson(body)

	editor := content.NewSequenceEditor(lesson.Blocks)
	blocks := editor.Blocks()
	edited, err := h.renderer.Render(r.Context(), blocks, render.ContextEditor)
	if err != nil {
		writeError(w, fmt.Errorf("render lesson editor %d: %w", lesson.NumericID, err))
		return
	}
	preview, err := h.renderer.Render(r.Context(), blocks, render.ContextPreview)
	if err != nil {
		writeError(w, fmt.Errorf("render lesson preview %d: %w", lesson.NumericID, err))
		return
	}

	writeJSON(w, http.StatusOK, lessonEditorPayload{
		Form:         content.LessonFormState(lesson),
		Blocks:       content.SerializeBlockSequence(blocks),
		Editor:       edited.Fragments,
		Preview:      preview.Fragments,
		NeedsTypeset: preview.NeedsTypeset,
	})
}

// saveLesson assembles and writes the whole lesson document. Draft saves
// keep draft=true, publish sets it false. A save racing another save for
// the same lesson is rejected with 409 and changes nothing.
func (h *Handler) saveLesson(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	key := store.CollectionLessons + "/" + id
	if !h.saves.acquire(key) {
		writeError(w, ErrSaveInFlight)
		return
	}
	defer h.saves.release(key)

	var req lessonSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	existing, err := h.store.Get(r.Context(), store.CollectionLessons, id)
	if err != nil {
		writeError(w, err)
		return
	}
	createdAt := content.HydrateLesson(existing).CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC().Truncate(time.Second)
	}

	numericID, _ := strconv.ParseInt(id, 10, 64)
	form := content.EditorFormState{
		NumericID:   numericID,
		Title:       req.Title,
		Category:    req.Category,
		Tags:        req.Tags,
		Cover:       req.Cover,
		ProblemRefs: req.ProblemRefs,
		Draft:       !req.Publish,
		Author:      h.identity.UserLabel(),
		CreatedAt:   createdAt,
	}
	editor := content.NewSequenceEditor(content.ParseBlockSequence(req.Blocks))

	lesson, err := h.assembler.AssembleLesson(form, editor.Blocks())
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := content.SerializeLesson(lesson)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.Put(r.Context(), store.CollectionLessons, id, body, false); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": lesson.NumericID, "draft": lesson.Draft})
}

// deleteLesson removes the lesson permanently.
func (h *Handler) deleteLesson(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), store.CollectionLessons, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func lessonCards(docs []store.Document, q string) []lessonCard {
	cards := make([]lessonCard, 0, len(docs))
	for _, doc := range docs {
		lesson := content.HydrateLesson(doc.Body)
		if !matchesSearch(q, lesson.NumericID, lesson.Title, lesson.Category, lesson.Tags) {
			continue
		}
		cards = append(cards, lessonCard{
			ID:       lesson.NumericID,
			Title:    lesson.Title,
			Category: lesson.Category,
			Tags:     lesson.Tags,
			Cover:    lesson.Cover,
			Preview:  content.FirstTextPreview(lesson.Blocks, 150),
			Draft:    lesson.Draft,
		})
	}
	return cards
}

func matchesSearch(q string, id int64, title, category string, tags []string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(title), q) ||
		strings.Contains(strings.ToLower(category), q) ||
		strings.Contains(formatID(id), q) {
		return true
	}
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func visibilityParam(v string) store.Visibility {
	switch v {
	case "published":
		return store.VisibilityPublished
	case "draft":
		return store.VisibilityDraft
	}
	return store.VisibilityAll
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func formatCreatedAt(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
