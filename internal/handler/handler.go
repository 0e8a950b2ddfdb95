package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/llm4edu/freetext/internal/feedback"
	appI18n "github.com/llm4edu/freetext/internal/i18n"
	"github.com/llm4edu/freetext/internal/model"
	"github.com/llm4edu/freetext/internal/store"
)

// Suggester generates authoring-time suggestions for a draft assignment.
type Suggester interface {
	SuggestQuestion(ctx context.Context, a model.Assignment) (string, error)
	SuggestCriteria(ctx context.Context, a model.Assignment) ([]string, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store   store.Store
	router  *feedback.Router
	suggest Suggester
	config  model.ServerConfig
}

// New creates a new Handler.
func New(s store.Store, router *feedback.Router, suggest Suggester, cfg model.ServerConfig) *Handler {
	return &Handler{store: s, router: router, suggest: suggest, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealthz)
	r.Post("/feedback", h.handleFeedback)
	r.Route("/assignments", func(r chi.Router) {
		r.Use(h.requireSecret)
		r.Get("/", h.handleListAssignments)
		r.Post("/new", h.handleCreateAssignment)
		r.Post("/suggest/question", h.handleSuggestQuestion)
		r.Post("/suggest/criteria", h.handleSuggestCriteria)
		r.Get("/{assignmentID}", h.handleGetAssignment)
	})
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var sub model.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidBody"))
		return
	}
	if strings.TrimSpace(sub.SubmissionString) == "" {
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "SubmissionEmpty"))
		return
	}

	a, err := h.store.GetAssignment(sub.AssignmentID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, appI18n.Td(r.Context(), "AssignmentNotFound", map[string]any{"ID": sub.AssignmentID}))
		return
	}
	if err != nil {
		slog.Error("failed to load assignment", "assignment_id", sub.AssignmentID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	items, err := h.router.Feedback(r.Context(), a, sub)
	if errors.Is(err, feedback.ErrGeneration) {
		writeError(w, http.StatusBadGateway, appI18n.T(r.Context(), "GenerationFailed"))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if items == nil {
		items = []model.Feedback{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	var a model.Assignment
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidBody"))
		return
	}
	if strings.TrimSpace(a.StudentPrompt) == "" {
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "PromptEmpty"))
		return
	}
	if !hasRequirements(a.FeedbackRequirements) {
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "RequirementsEmpty"))
		return
	}

	id, err := h.store.CreateAssignment(a)
	if err != nil {
		slog.Error("failed to create assignment", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	slog.Info("created assignment", "assignment_id", id)
	writeJSON(w, http.StatusOK, id)
}

func (h *Handler) handleListAssignments(w http.ResponseWriter, _ *http.Request) {
	ids, err := h.store.ListAssignmentIDs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (h *Handler) handleGetAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "assignmentID")
	a, err := h.store.GetAssignment(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, appI18n.Td(r.Context(), "AssignmentNotFound", map[string]any{"ID": id}))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) handleSuggestQuestion(w http.ResponseWriter, r *http.Request) {
	a, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}

	question, err := h.suggest.SuggestQuestion(r.Context(), a)
	if err != nil {
		slog.Error("question suggestion failed", "error", err)
		writeError(w, http.StatusBadGateway, appI18n.T(r.Context(), "GenerationFailed"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"suggested_question": question})
}

func (h *Handler) handleSuggestCriteria(w http.ResponseWriter, r *http.Request) {
	a, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}

	criteria, err := h.suggest.SuggestCriteria(r.Context(), a)
	if err != nil {
		slog.Error("criteria suggestion failed", "error", err)
		writeError(w, http.StatusBadGateway, appI18n.T(r.Context(), "GenerationFailed"))
		return
	}
	if criteria == nil {
		criteria = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggested_criteria": criteria})
}

// decodeDraft reads a partially filled assignment from the request body.
// Suggestions only need the draft question, so that is all we validate.
func (h *Handler) decodeDraft(w http.ResponseWriter, r *http.Request) (model.Assignment, bool) {
	var a model.Assignment
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "InvalidBody"))
		return model.Assignment{}, false
	}
	if strings.TrimSpace(a.StudentPrompt) == "" {
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "PromptEmpty"))
		return model.Assignment{}, false
	}
	return a, true
}

func hasRequirements(reqs []string) bool {
	for _, req := range reqs {
		if strings.TrimSpace(req) != "" {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
