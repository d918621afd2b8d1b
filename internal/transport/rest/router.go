package rest

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"quizfunnel/internal/config"
	"quizfunnel/internal/logger"
	"quizfunnel/internal/service"
	"quizfunnel/internal/transport/rest/handler"
	"quizfunnel/internal/transport/rest/middleware"
	"quizfunnel/internal/transport/ws"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	QuizService    *service.QuizService
	SessionService *service.SessionService
	ReportService  *service.ReportService
	WSHub          *ws.Hub
	CORS           config.CORSConfig
	Logger         *logger.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService, c.Logger)
	publicHandler := handler.NewPublicHandler(c.QuizService, c.SessionService, c.Logger)
	sessionHandler := handler.NewSessionHandler(c.SessionService, c.Logger)
	quizHandler := handler.NewQuizHandler(c.QuizService, c.Logger)
	reportHandler := handler.NewReportHandler(c.ReportService, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS first so preflights never reach auth
	r.Use(corsMiddleware(c.CORS))
	r.Use(requestLogger(c.Logger))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/public/quizzes/{slug}", publicHandler.GetQuiz).Methods("GET", "OPTIONS")
	v1.HandleFunc("/public/quizzes/{slug}/sessions", publicHandler.StartSession).Methods("POST", "OPTIONS")

	// WebSocket routes (token in query param)
	if c.WSHub != nil {
		wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.QuizService, c.Logger)
		v1.HandleFunc("/ws/quizzes/{quizId}", wsHandler.QuizWS).Methods("GET")
	}

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Respondent routes (require the session token)
	respondentRoutes := v1.PathPrefix("/sessions/{sessionId}").Subrouter()
	respondentRoutes.Use(authMW.RequireRespondent)

	respondentRoutes.HandleFunc("", sessionHandler.Get).Methods("GET", "OPTIONS")
	respondentRoutes.HandleFunc("/answers", sessionHandler.SubmitAnswer).Methods("POST", "OPTIONS")
	respondentRoutes.HandleFunc("/next", sessionHandler.Next).Methods("POST", "OPTIONS")
	respondentRoutes.HandleFunc("/complete", sessionHandler.Complete).Methods("POST", "OPTIONS")

	// Author routes (require author auth)
	v1.Handle("/auth/me", authMW.RequireAuthor(http.HandlerFunc(authHandler.Me))).Methods("GET", "OPTIONS")

	authorRoutes := v1.PathPrefix("/quizzes").Subrouter()
	authorRoutes.Use(authMW.RequireAuthor)

	authorRoutes.HandleFunc("", quizHandler.Create).Methods("POST", "OPTIONS")
	authorRoutes.HandleFunc("", quizHandler.List).Methods("GET", "OPTIONS")
	authorRoutes.HandleFunc("/{quizId}", quizHandler.Get).Methods("GET", "OPTIONS")
	authorRoutes.HandleFunc("/{quizId}", quizHandler.Update).Methods("PUT", "OPTIONS")
	authorRoutes.HandleFunc("/{quizId}", quizHandler.Delete).Methods("DELETE", "OPTIONS")
	authorRoutes.HandleFunc("/{quizId}/publish", quizHandler.Publish).Methods("POST", "OPTIONS")
	authorRoutes.HandleFunc("/{quizId}/unpublish", quizHandler.Unpublish).Methods("POST", "OPTIONS")
	authorRoutes.HandleFunc("/{quizId}/steps", quizHandler.AddStep).Methods("POST", "OPTIONS")
	authorRoutes.HandleFunc("/{quizId}/steps/order", quizHandler.Reorder).Methods("PUT", "OPTIONS")
	authorRoutes.HandleFunc("/{quizId}/steps/{stepId}", quizHandler.UpdateStep).Methods("PUT", "OPTIONS")
	authorRoutes.HandleFunc("/{quizId}/steps/{stepId}", quizHandler.DeleteStep).Methods("DELETE", "OPTIONS")
	authorRoutes.HandleFunc("/{quizId}/lint", quizHandler.Lint).Methods("GET", "OPTIONS")

	// Report routes (author only)
	authorRoutes.HandleFunc("/{quizId}/funnel", reportHandler.Funnel).Methods("GET", "OPTIONS")
	authorRoutes.HandleFunc("/{quizId}/leaderboard", reportHandler.Leaderboard).Methods("GET", "OPTIONS")
	authorRoutes.HandleFunc("/{quizId}/leads", reportHandler.Leads).Methods("GET", "OPTIONS")
	authorRoutes.HandleFunc("/{quizId}/sessions", reportHandler.Sessions).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(cfg config.CORSConfig) mux.MiddlewareFunc {
	origins := strings.Join(cfg.AllowedOrigins, ", ")
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origins)
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder captures the response status for the request log
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the recorder
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func requestLogger(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			log.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}
