package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"quizfunnel/internal/logger"
	"quizfunnel/internal/model"
	"quizfunnel/internal/service"

	"github.com/gorilla/mux"
)

// PublicHandler serves published quizzes to anonymous respondents
type PublicHandler struct {
	quizSvc    *service.QuizService
	sessionSvc *service.SessionService
	log        *logger.Logger
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(quizSvc *service.QuizService, sessionSvc *service.SessionService, log *logger.Logger) *PublicHandler {
	return &PublicHandler{
		quizSvc:    quizSvc,
		sessionSvc: sessionSvc,
		log:        log,
	}
}

// GetQuiz handles GET /v1/public/quizzes/{slug}
func (h *PublicHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizSvc.GetPublicQuiz(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

// StartSession handles POST /v1/public/quizzes/{slug}/sessions. The body is optional.
func (h *PublicHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req model.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.sessionSvc.StartSessionBySlug(r.Context(), mux.Vars(r)["slug"], req.Lead)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}
