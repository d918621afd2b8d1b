package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"quizfunnel/internal/logger"
	"quizfunnel/internal/model"
	"quizfunnel/internal/service"
	"quizfunnel/internal/transport/rest/middleware"
	"strings"
)

// AuthHandler serves author login and token introspection
type AuthHandler struct {
	authSvc *service.AuthService
	log     *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, log: log}
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeServiceError(w, h.log, fmt.Errorf("username and password are required: %w", service.ErrInvalidInput))
		return
	}

	resp, err := h.authSvc.Login(req.Username, req.Password)
	if err != nil {
		h.log.Warn("author login rejected", "username", req.Username)
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /v1/auth/me and echoes the author behind the token
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"authorId": middleware.GetAuthorID(r.Context()),
	})
}
