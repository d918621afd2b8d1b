package handler

import (
	"encoding/json"
	"net/http"
	"quizfunnel/internal/logger"
	"quizfunnel/internal/model"
	"quizfunnel/internal/service"
	"quizfunnel/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// QuizHandler handles quiz authoring endpoints
type QuizHandler struct {
	quizSvc *service.QuizService
	log     *logger.Logger
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizSvc *service.QuizService, log *logger.Logger) *QuizHandler {
	return &QuizHandler{
		quizSvc: quizSvc,
		log:     log,
	}
}

// CreateQuizRequest is the request body for creating a quiz
type CreateQuizRequest struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// ReorderRequest lists step ids in their new order
type ReorderRequest struct {
	StepIDs []string `json:"stepIds"`
}

// Create handles POST /v1/quizzes
func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	authorID := middleware.GetAuthorID(r.Context())

	var req CreateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quiz, err := h.quizSvc.CreateQuiz(r.Context(), authorID, &model.Quiz{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

// List handles GET /v1/quizzes
func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.quizSvc.ListQuizzes(r.Context(), middleware.GetAuthorID(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

// Get handles GET /v1/quizzes/{quizId}
func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	authorID := middleware.GetAuthorID(r.Context())
	quizID := mux.Vars(r)["quizId"]

	quiz, err := h.quizSvc.GetOwnedQuiz(r.Context(), authorID, quizID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	steps, err := h.quizSvc.ListSteps(r.Context(), authorID, quizID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, &model.QuizWithSteps{Quiz: quiz, Steps: steps})
}

// Update handles PUT /v1/quizzes/{quizId}
func (h *QuizHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.QuizUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quiz, err := h.quizSvc.UpdateQuiz(r.Context(), middleware.GetAuthorID(r.Context()), mux.Vars(r)["quizId"], &req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

// Delete handles DELETE /v1/quizzes/{quizId}
func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.quizSvc.DeleteQuiz(r.Context(), middleware.GetAuthorID(r.Context()), mux.Vars(r)["quizId"]); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Publish handles POST /v1/quizzes/{quizId}/publish
func (h *QuizHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, true)
}

// Unpublish handles POST /v1/quizzes/{quizId}/unpublish
func (h *QuizHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, false)
}

func (h *QuizHandler) setPublished(w http.ResponseWriter, r *http.Request, published bool) {
	quiz, err := h.quizSvc.SetPublished(r.Context(), middleware.GetAuthorID(r.Context()), mux.Vars(r)["quizId"], published)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

// AddStep handles POST /v1/quizzes/{quizId}/steps
func (h *QuizHandler) AddStep(w http.ResponseWriter, r *http.Request) {
	var step model.Step
	if err := json.NewDecoder(r.Body).Decode(&step); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.quizSvc.AddStep(r.Context(), middleware.GetAuthorID(r.Context()), mux.Vars(r)["quizId"], &step)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateStep handles PUT /v1/quizzes/{quizId}/steps/{stepId}
func (h *QuizHandler) UpdateStep(w http.ResponseWriter, r *http.Request) {
	var step model.Step
	if err := json.NewDecoder(r.Body).Decode(&step); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vars := mux.Vars(r)
	updated, err := h.quizSvc.UpdateStep(r.Context(), middleware.GetAuthorID(r.Context()), vars["quizId"], vars["stepId"], &step)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteStep handles DELETE /v1/quizzes/{quizId}/steps/{stepId}
func (h *QuizHandler) DeleteStep(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.quizSvc.DeleteStep(r.Context(), middleware.GetAuthorID(r.Context()), vars["quizId"], vars["stepId"]); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reorder handles PUT /v1/quizzes/{quizId}/steps/order
func (h *QuizHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	steps, err := h.quizSvc.ReorderSteps(r.Context(), middleware.GetAuthorID(r.Context()), mux.Vars(r)["quizId"], req.StepIDs)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, steps)
}

// Lint handles GET /v1/quizzes/{quizId}/lint
func (h *QuizHandler) Lint(w http.ResponseWriter, r *http.Request) {
	issues, err := h.quizSvc.Lint(r.Context(), middleware.GetAuthorID(r.Context()), mux.Vars(r)["quizId"])
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"issues": issues})
}
