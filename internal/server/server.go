// Package server exposes the public content views and the admin editor
// endpoints over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/az-math/azmath/internal/auth"
	"github.com/az-math/azmath/internal/content"
	"github.com/az-math/azmath/internal/render"
	"github.com/az-math/azmath/internal/store"
)

// ErrSaveInFlight rejects a save that arrives while another save for the
// same document is still running. The source pages allowed the double
// submit; here the second writer is turned away and the editor keeps its
// state for a retry.
var ErrSaveInFlight = errors.New("a save for this document is already in flight")

// Handler serves the content API.
type Handler struct {
	store     store.Store
	allocator store.Allocator
	assembler *content.Assembler
	renderer  *render.Renderer
	identity  auth.Identity

	saves inflightLocks
}

// NewHandler creates a Handler.
func NewHandler(
	s store.Store,
	allocator store.Allocator,
	assembler *content.Assembler,
	renderer *render.Renderer,
	identity auth.Identity,
) *Handler {
	return &Handler{
		store:     s,
		allocator: allocator,
		assembler: assembler,
		renderer:  renderer,
		identity:  identity,
	}
}

// Mux builds the route table. Admin routes are gated by the identity.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /lessons", h.listLessons)
	mux.HandleFunc("GET /lessons/{id}", h.getLesson)
	mux.HandleFunc("GET /problems", h.listProblems)
	mux.HandleFunc("GET /problems/{id}", h.getProblem)
	mux.HandleFunc("GET /problems/{id}/solutions", h.getProblemSolutions)

	admin := http.NewServeMux()
	admin.HandleFunc("GET /admin/lessons", h.adminListLessons)
	admin.HandleFunc("POST /admin/lessons", h.createLesson)
	admin.HandleFunc("GET /admin/lessons/{id}", h.editLesson)
	admin.HandleFunc("PUT /admin/lessons/{id}", h.saveLesson)
	admin.HandleFunc("DELETE /admin/lessons/{id}", h.deleteLesson)
	admin.HandleFunc("GET /admin/problems", h.adminListProblems)
	admin.HandleFunc("POST /admin/problems", h.createProblem)
	admin.HandleFunc("GET /admin/problems/{id}", h.editProblem)
	admin.HandleFunc("PUT /admin/problems/{id}", h.saveProblem)
	admin.HandleFunc("DELETE /admin/problems/{id}", h.deleteProblem)
	mux.Handle("/admin/", auth.RequireAdmin(h.identity, admin))

	return mux
}

// inflightLocks tracks documents with a save in flight.
type inflightLocks struct {
	mu   sync.Mutex
	held map[string]bool
}

// acquire marks key as having a save in flight. It reports false when a
// save is already running for key.
func (l *inflightLocks) acquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = make(map[string]bool)
	}
	if l.held[key] {
		return false
	}
	l.held[key] = true
	return true
}

func (l *inflightLocks) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("failed to encode response", slog.Any("error", err))
	}
}

// writeError maps the error taxonomy onto HTTP statuses: validation failures
// are 422 with the offending field, absent documents are 404, a concurrent
// save is 409, and anything else is a store failure surfaced as 502 so the
// client shows a dismissible retry message without discarding editor state.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *content.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: validationErr.Message,
			Field: validationErr.Field,
		})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, ErrSaveInFlight):
		writeJSON(w, http.StatusConflict, errorResponse{Error: ErrSaveInFlight.Error()})
	default:
		slog.Default().Error("store operation failed", slog.Any("error", err))
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error: "the content store is unavailable, please retry",
		})
	}
}

// CORSMiddleware allows the configured origins.
func CORSMiddleware(next http.Handler, allowedOrigins []string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
