package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/stats"
	"github.com/meltforce/liftlog/internal/storage"
	"github.com/meltforce/liftlog/internal/training"
)

// TrainingService is the session lifecycle surface the handlers call.
// *training.Service implements it.
type TrainingService interface {
	Start(ctx context.Context, userID int, templateID uuid.UUID) (*models.Session, error)
	Stop(ctx context.Context, userID int, sessionID uuid.UUID) error
	Finish(ctx context.Context, userID int, sessionID uuid.UUID, confirmIncomplete bool) (*models.Session, error)
	CompleteExercise(ctx context.Context, userID int, sessionID, exerciseID uuid.UUID, vals models.ActualValues) (*models.Session, error)
	Active(ctx context.Context, userID int) (*models.Session, error)
}

// StatsService serves the dashboard aggregates. *stats.Analyzer implements it.
type StatsService interface {
	Dashboard(ctx context.Context, userID int, now time.Time) (*stats.Dashboard, error)
}

// Store is the read/write surface for templates, sessions, and users that
// handlers use directly. *storage.DB implements it.
type Store interface {
	InsertTemplate(ctx context.Context, t *models.Template) error
	GetTemplate(ctx context.Context, templateID uuid.UUID, userID int) (*models.Template, error)
	ListTemplates(ctx context.Context, userID int) ([]models.Template, error)
	GetSession(ctx context.Context, sessionID uuid.UUID, userID int) (*models.Session, error)
	ListCompletedSessions(ctx context.Context, userID int) ([]models.Session, error)
	GetUserByToken(ctx context.Context, token string) (int, error)
}

// Compile-time checks: the concrete types satisfy the handler interfaces.
var (
	_ Store           = (*storage.DB)(nil)
	_ TrainingService = (*training.Service)(nil)
	_ StatsService    = (*stats.Analyzer)(nil)
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    Store
	training TrainingService
	stats    StatsService
	log      *slog.Logger
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(store Store, training TrainingService, statsSvc StatsService, log *slog.Logger) *Server {
	s := &Server{
		store:    store,
		training: training,
		stats:    statsSvc,
		log:      log,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuth(s.store))

		r.Get("/templates", s.handleListTemplates)
		r.Post("/templates", s.handleCreateTemplate)
		r.Get("/templates/{id}", s.handleGetTemplate)

		r.Post("/sessions", s.handleStartSession)
		r.Get("/sessions/active", s.handleActiveSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Patch("/sessions/{id}/stop", s.handleStopSession)
		r.Patch("/sessions/{id}/finish", s.handleFinishSession)
		r.Patch("/sessions/{id}/exercises/{exerciseID}/complete", s.handleCompleteExercise)

		r.Get("/history", s.handleHistory)
		r.Get("/dashboard", s.handleDashboard)
	})
}
