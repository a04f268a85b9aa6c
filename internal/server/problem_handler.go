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

type problemCard struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Category   string   `json:"category"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags"`
	Preview    string   `json:"preview"`
	Draft      bool     `json:"draft"`
}

type problemView struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Category     string          `json:"category"`
	Difficulty   string          `json:"difficulty"`
	Tags         []string        `json:"tags"`
	Statement    []template.HTML `json:"statement"`
	NeedsTypeset bool            `json:"needsTypeset"`
	Solutions    int             `json:"solutions"`
	Lessons      []int64         `json:"lessons"`
	CreatedAt    string          `json:"createdAt,omitempty"`
}

type solutionView struct {
	Ordinal      int             `json:"ordinal"`
	Content      []template.HTML `json:"content"`
	NeedsTypeset bool            `json:"needsTypeset"`
}

type problemSaveRequest struct {
	Title      string          `json:"title"`
	Category   string          `json:"category"`
	Difficulty string          `json:"difficulty"`
	Tags       string          `json:"tags"`
	LessonRefs string          `json:"lessons"`
	Statement  json.RawMessage `json:"statement"`
	Solutions  json.RawMessage `json:"solutions"`
	Publish    bool            `json:"publish"`
}

type problemEditorPayload struct {
	Form      content.EditorFormState `json:"form"`
	Statement []any                   `json:"statement"`
	Solutions []any                   `json:"solutions"`
	Editor    []template.HTML         `json:"editor"`
}

// listProblems serves the public problem cards: published only, ascending by
// numeric ID.
func (h *Handler) listProblems(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.Query(r.Context(), store.CollectionProblems, store.Filter{
		Visibility: store.VisibilityPublished,
		Category:   r.URL.Query().Get("category"),
	}, false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, problemCards(docs, r.URL.Query()))
}

// adminListProblems serves all problems including drafts, newest first.
func (h *Handler) adminListProblems(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.Query(r.Context(), store.CollectionProblems, store.Filter{
		Visibility: visibilityParam(r.URL.Query().Get("visibility")),
		Category:   r.URL.Query().Get("category"),
	}, true)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, problemCards(docs, r.URL.Query()))
}

// getProblem serves the public view of one published problem: the statement
// renders up front, solutions stay behind the show-solution affordance and
// load through getProblemSolutions.
func (h *Handler) getProblem(w http.ResponseWriter, r *http.Request) {
	problem, err := h.loadPublishedProblem(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rendered, err := h.renderer.Render(r.Context(), problem.Statement, render.ContextPublic)
	if err != nil {
		writeError(w, fmt.Errorf("render problem %d: %w", problem.NumericID, err))
		return
	}

	writeJSON(w, http.StatusOK, problemView{
		ID:           problem.NumericID,
		Title:        problem.Title,
		Category:     problem.Category,
		Difficulty:   problem.Difficulty,
		Tags:         problem.Tags,
		Statement:    rendered.Fragments,
		NeedsTypeset: rendered.NeedsTypeset,
		Solutions:    len(problem.Solutions),
		Lessons:      problem.LessonRefs,
		CreatedAt:    formatCreatedAt(problem.CreatedAt),
	})
}

// getProblemSolutions renders the solutions of one published problem.
func (h *Handler) getProblemSolutions(w http.ResponseWriter, r *http.Request) {
	problem, err := h.loadPublishedProblem(r)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]solutionView, 0, len(problem.Solutions))
	for i, solution := range problem.Solutions {
		rendered, err := h.renderer.Render(r.Context(), solution.Blocks, render.ContextPublic)
		if err != nil {
			writeError(w, fmt.Errorf("render solution %d of problem %d: %w", i+1, problem.NumericID, err))
			return
		}
		views = append(views, solutionView{
			Ordinal:      i + 1,
			Content:      rendered.Fragments,
			NeedsTypeset: rendered.NeedsTypeset,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// createProblem allocates the next problem ID and writes an empty draft.
func (h *Handler) createProblem(w http.ResponseWriter, r *http.Request) {
	id, err := h.allocator.NextID(r.Context(), store.KindProblem)
	if err != nil {
		writeError(w, fmt.Errorf("allocate problem id: %w", err))
		return
	}

	problem := content.Problem{
		NumericID:  id,
		Difficulty: content.DifficultyMedium,
		Tags:       []string{},
		Statement:  []content.Block{content.TextBlock{}},
		Draft:      true,
		Author:     h.identity.UserLabel(),
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	body, err := content.SerializeProblem(problem)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.Put(r.Context(), store.CollectionProblems, formatID(id), body, false); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// editProblem serves the editor payload for one problem, drafts included.
func (h *Handler) editProblem(w http.ResponseWriter, r *http.Request) {
	body, err := h.store.Get(r.Context(), store.CollectionProblems, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	problem := content.HydrateProblem(body)

	editor := content.NewSequenceEditor(problem.Statement)
	statement := editor.Blocks()
	edited, err := h.renderer.Render(r.Context(), statement, render.ContextEditor)
	if err != nil {
		writeError(w, fmt.Errorf("render problem editor %d: %w", problem.NumericID, err))
		return
	}

	group := content.NewSolutionGroup(problem.Solutions)
	writeJSON(w, http.StatusOK, problemEditorPayload{
		Form:      content.ProblemFormState(problem),
		Statement: content.SerializeBlockSequence(statement),
		Solutions: content.SerializeSolutions(group.Solutions()),
		Editor:    edited.Fragments,
	})
}

// saveProblem assembles and writes the whole problem document. The solutions
// field accepts any of the legacy shapes and is normalized before the write.
func (h *Handler) saveProblem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	key := store.CollectionProblems + "/" + id
	if !h.saves.acquire(key) {
		writeError(w, ErrSaveInFlight)
		return
	}
	defer h.saves.release(key)

	var req problemSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	existing, err := h.store.Get(r.Context(), store.CollectionProblems, id)
	if err != nil {
		writeError(w, err)
		return
	}
	createdAt := content.HydrateProblem(existing).CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC().Truncate(time.Second)
	}

	numericID, _ := strconv.ParseInt(id, 10, 64)
	form := content.EditorFormState{
		NumericID:  numericID,
		Title:      req.Title,
		Category:   req.Category,
		Difficulty: req.Difficulty,
		Tags:       req.Tags,
		LessonRefs: req.LessonRefs,
		Draft:      !req.Publish,
		Author:     h.identity.UserLabel(),
		CreatedAt:  createdAt,
	}
	editor := content.NewSequenceEditor(content.ParseBlockSequence(req.Statement))
	solutions := content.HydrateSolutions(req.Solutions)

	problem, err := h.assembler.AssembleProblem(form, editor.Blocks(), solutions)
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := content.SerializeProblem(problem)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.Put(r.Context(), store.CollectionProblems, id, body, false); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": problem.NumericID, "draft": problem.Draft})
}

// deleteProblem removes the problem permanently.
func (h *Handler) deleteProblem(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), store.CollectionProblems, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) loadPublishedProblem(r *http.Request) (content.Problem, error) {
	body, err := h.store.Get(r.Context(), store.CollectionProblems, r.PathValue("id"))
	if err != nil {
		return content.Problem{}, err
	}
	problem := content.HydrateProblem(body)
	if problem.Draft {
		return content.Problem{}, store.ErrNotFound
	}
	return problem, nil
}

func problemCards(docs []store.Document, params map[string][]string) []problemCard {
	q := first(params, "q")
	difficulty := first(params, "difficulty")

	cards := make([]problemCard, 0, len(docs))
	for _, doc := range docs {
		problem := content.HydrateProblem(doc.Body)
		if difficulty != "" && !strings.EqualFold(problem.Difficulty, difficulty) {
			continue
		}
		if !matchesSearch(q, problem.NumericID, problem.Title, problem.Category, problem.Tags) {
			continue
		}
		cards = append(cards, problemCard{
			ID:         problem.NumericID,
			Title:      problem.Title,
			Category:   problem.Category,
			Difficulty: problem.Difficulty,
			Tags:       problem.Tags,
			Preview:    content.FirstTextPreview(problem.Statement, 200),
			Draft:      problem.Draft,
		})
	}
	return cards
}

func first(params map[string][]string, key string) string {
	if vs := params[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}
