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

// SessionHandler handles respondent endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
	log        *logger.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessionSvc: sessionSvc,
		log:        log,
	}
}

// sessionID returns the path session id once it matches the respondent token
func (h *SessionHandler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := mux.Vars(r)["sessionId"]
	if id == "" || id != middleware.GetSessionID(r.Context()) {
		writeError(w, http.StatusForbidden, "token not valid for this session")
		return "", false
	}
	return id, true
}

// Get handles GET /v1/sessions/{sessionId}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	sess, err := h.sessionSvc.GetSession(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// SubmitAnswer handles POST /v1/sessions/{sessionId}/answers
func (h *SessionHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StepID == "" {
		writeError(w, http.StatusBadRequest, "stepId is required")
		return
	}

	sess, err := h.sessionSvc.SubmitAnswer(r.Context(), id, req.StepID, req.Value)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// Next handles POST /v1/sessions/{sessionId}/next
func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req model.NextStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CurrentStepID == "" {
		writeError(w, http.StatusBadRequest, "currentStepId is required")
		return
	}

	result, err := h.sessionSvc.GetNextStep(r.Context(), id, req.CurrentStepID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if result == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"done": true})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Complete handles POST /v1/sessions/{sessionId}/complete
func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	sess, err := h.sessionSvc.CompleteSession(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
