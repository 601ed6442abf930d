// Package training owns the workout session lifecycle: starting a session
// from a template, per-exercise completion, and termination (stop vs.
// finish). The store enforces the single-active-session rule; this layer
// enforces the state machine and validation on top of it.
package training

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/liftlog/internal/models"
)

// Store is the persistence surface the service needs. *storage.DB
// implements it; tests use an in-memory fake.
type Store interface {
	GetTemplate(ctx context.Context, templateID uuid.UUID, userID int) (*models.Template, error)
	InsertSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, sessionID uuid.UUID, userID int) (*models.Session, error)
	ActiveSessions(ctx context.Context, userID int) ([]models.Session, error)
	TransitionSession(ctx context.Context, sessionID uuid.UUID, userID int,
		from, to models.Status, endedAt *time.Time, completionRate *float64) error
	CompleteExercise(ctx context.Context, sessionID, exerciseID uuid.UUID, userID int,
		series, reps int, weightKg float64, restSec int) error
}

// Service implements the session lifecycle operations.
type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// New creates a Service backed by the given store.
func New(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// Start creates an IN_PROGRESS session from a template, snapshotting the
// template's exercise list with target values and completed=false. Fails
// with models.ErrConflict when the user already has an active session; the
// remedy is to resume that session, not create a second one.
func (s *Service) Start(ctx context.Context, userID int, templateID uuid.UUID) (*models.Session, error) {
	tpl, err := s.store.GetTemplate(ctx, templateID, userID)
	if err != nil {
		return nil, err
	}
	if len(tpl.Exercises) == 0 {
		return nil, fmt.Errorf("template %s has no exercises: %w", templateID, models.ErrValidation)
	}

	session := &models.Session{
		ID:         uuid.New(),
		UserID:     userID,
		TemplateID: tpl.ID,
		Status:     models.StatusInProgress,
		StartedAt:  s.now(),
	}
	for i, ex := range tpl.Exercises {
		session.Exercises = append(session.Exercises, models.SessionExercise{
			ID:                 uuid.New(),
			SessionID:          session.ID,
			TemplateExerciseID: ex.ID,
			Position:           i,
			Name:               ex.Name,
			MuscleGroup:        ex.MuscleGroup,
			Series:             ex.TargetSeries,
			Reps:               ex.TargetReps,
			WeightKg:           ex.TargetWeightKg,
			RestSec:            ex.TargetRestSec,
		})
	}

	if err := s.store.InsertSession(ctx, session); err != nil {
		return nil, err
	}

	s.log.Info("session started",
		"session_id", session.ID,
		"user_id", userID,
		"template_id", templateID,
		"exercises", len(session.Exercises),
	)
	return session, nil
}

// Stop abandons an IN_PROGRESS session. Stopped sessions are terminal and
// excluded from history and every aggregate; this is deliberate and
// irreversible, distinct from finishing.
func (s *Service) Stop(ctx context.Context, userID int, sessionID uuid.UUID) error {
	endedAt := s.now()
	if err := s.store.TransitionSession(ctx, sessionID, userID,
		models.StatusInProgress, models.StatusStopped, &endedAt, nil); err != nil {
		return err
	}

	s.log.Info("session stopped", "session_id", sessionID, "user_id", userID)
	return nil
}

// Finish completes an IN_PROGRESS session and retains it in history. When
// any exercise is still incomplete, the caller must pass
// confirmIncomplete=true; remaining exercises are never auto-completed.
// The completion rate is snapshotted at finish time.
func (s *Service) Finish(ctx context.Context, userID int, sessionID uuid.UUID, confirmIncomplete bool) (*models.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.StatusInProgress {
		return nil, fmt.Errorf("session %s is %s: %w", sessionID, session.Status, models.ErrConflict)
	}

	rate := models.CompletionRate(session.Exercises)
	if rate < 1 && !confirmIncomplete {
		return nil, fmt.Errorf("session has incomplete exercises, confirmation required: %w", models.ErrValidation)
	}

	endedAt := s.now()
	if err := s.store.TransitionSession(ctx, sessionID, userID,
		models.StatusInProgress, models.StatusCompleted, &endedAt, &rate); err != nil {
		return nil, err
	}

	session.Status = models.StatusCompleted
	session.EndedAt = &endedAt
	session.CompletionRate = &rate

	s.log.Info("session finished",
		"session_id", sessionID,
		"user_id", userID,
		"completion_rate", rate,
	)
	return session, nil
}

// CompleteExercise records the actually performed values for one exercise
// and marks it completed. Re-invoking on an already-completed exercise
// overwrites the values again: the latest submission wins. Returns the
// updated session.
func (s *Service) CompleteExercise(ctx context.Context, userID int, sessionID, exerciseID uuid.UUID,
	vals models.ActualValues) (*models.Session, error) {

	if vals.Series == nil || vals.Reps == nil || vals.WeightKg == nil || vals.RestSec == nil {
		return nil, fmt.Errorf("series, reps, weight_kg and rest_sec are required: %w", models.ErrValidation)
	}

	if err := s.store.CompleteExercise(ctx, sessionID, exerciseID, userID,
		*vals.Series, *vals.Reps, *vals.WeightKg, *vals.RestSec); err != nil {
		return nil, err
	}

	session, err := s.store.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	s.log.Info("exercise completed",
		"session_id", sessionID,
		"exercise_id", exerciseID,
		"completion_rate", models.CompletionRate(session.Exercises),
	)
	return session, nil
}

// Active returns the user's IN_PROGRESS session, or nil when there is none.
// Observing more than one active session means the store invariant is
// broken; that is surfaced as an error, never resolved by picking one.
func (s *Service) Active(ctx context.Context, userID int) (*models.Session, error) {
	sessions, err := s.store.ActiveSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch len(sessions) {
	case 0:
		return nil, nil
	case 1:
		return &sessions[0], nil
	default:
		return nil, fmt.Errorf("user %d has %d active sessions, invariant violated", userID, len(sessions))
	}
}
