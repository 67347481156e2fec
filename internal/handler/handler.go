package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/pavelanni/texexam/internal/exam"
	appI18n "github.com/pavelanni/texexam/internal/i18n"
	"github.com/pavelanni/texexam/internal/model"
	"github.com/pavelanni/texexam/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	exams    *exam.Service
	config   model.ServerConfig
	sessions *sessionRegistry
	validate *validator.Validate
	now      func() time.Time
}

// New creates a new Handler.
func New(s *store.Store, svc *exam.Service, cfg model.ServerConfig) *Handler {
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 10
	}
	return &Handler{
		store:    s,
		exams:    svc,
		config:   cfg,
		sessions: newSessionRegistry(),
		validate: validator.New(),
		now:      time.Now,
	}
}

// Router builds the chi router with middleware and all routes mounted under
// the configured base path.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware())

	if h.config.BasePath != "" {
		r.Route(h.config.BasePath, h.Routes)
		return r
	}
	h.Routes(r)
	return r
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Post("/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/logout", h.handleLogout)
		r.Get("/me", h.handleMe)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleTeacher, model.UserRoleAdmin))
			r.Get("/exams", h.handleListExams)
			r.Post("/exams", h.handleCreateExam)
			r.Get("/exams/{examID}", h.handleGetExam)
			r.Post("/exams/{examID}/toggle", h.handleToggleExam)
			r.Get("/exams/{examID}/results", h.handleExamResults)
			r.Get("/exams/{examID}/results/export", h.handleExportResults)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/users", h.handleListUsers)
			r.Post("/users", h.handleCreateUser)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleStudent))
			r.Get("/student/exams", h.handleEligibleExams)
			r.Post("/student/exams/{examID}/start", h.handleStartExam)
			r.Get("/student/session", h.handleSessionView)
			r.Put("/student/session/answers/{index}", h.handleAnswer)
			r.Post("/student/session/submit", h.handleSubmit)
			r.Delete("/student/session", h.handleDiscardSession)
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeOK(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// path prepends the configured base path to an absolute path.
func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) cookiePath() string {
	return h.path("/")
}
