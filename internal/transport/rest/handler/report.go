package handler

import (
	"net/http"
	"quizfunnel/internal/logger"
	"quizfunnel/internal/service"
	"quizfunnel/internal/transport/rest/middleware"
	"strconv"

	"github.com/gorilla/mux"
)

// ReportHandler handles the author's analytics endpoints
type ReportHandler struct {
	reportSvc *service.ReportService
	log       *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportSvc *service.ReportService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		reportSvc: reportSvc,
		log:       log,
	}
}

// Funnel handles GET /v1/quizzes/{quizId}/funnel
func (h *ReportHandler) Funnel(w http.ResponseWriter, r *http.Request) {
	funnel, err := h.reportSvc.Funnel(r.Context(), middleware.GetAuthorID(r.Context()), mux.Vars(r)["quizId"])
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, funnel)
}

// Leaderboard handles GET /v1/quizzes/{quizId}/leaderboard?limit=
func (h *ReportHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.reportSvc.Leaderboard(r.Context(), middleware.GetAuthorID(r.Context()), mux.Vars(r)["quizId"], limit)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// Leads handles GET /v1/quizzes/{quizId}/leads
func (h *ReportHandler) Leads(w http.ResponseWriter, r *http.Request) {
	leads, err := h.reportSvc.Leads(r.Context(), middleware.GetAuthorID(r.Context()), mux.Vars(r)["quizId"])
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

// Sessions handles GET /v1/quizzes/{quizId}/sessions?limit=
func (h *ReportHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	sessions, err := h.reportSvc.Sessions(r.Context(), middleware.GetAuthorID(r.Context()), mux.Vars(r)["quizId"], limit)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}
