package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/liftlog/internal/models"
)

// fakeStore is an in-memory Store that mirrors the database guards: the
// single-active-session rule and the IN_PROGRESS checks on updates.
type fakeStore struct {
	templates map[uuid.UUID]*models.Template
	sessions  map[uuid.UUID]*models.Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		templates: make(map[uuid.UUID]*models.Template),
		sessions:  make(map[uuid.UUID]*models.Session),
	}
}

func (f *fakeStore) GetTemplate(_ context.Context, templateID uuid.UUID, userID int) (*models.Template, error) {
	t, ok := f.templates[templateID]
	if !ok || (t.UserID != userID && t.Visibility != models.VisibilityPublic) {
		return nil, fmt.Errorf("template %s: %w", templateID, models.ErrNotFound)
	}
	return t, nil
}

func (f *fakeStore) InsertSession(_ context.Context, s *models.Session) error {
	for _, existing := range f.sessions {
		if existing.UserID == s.UserID && existing.Status == models.StatusInProgress {
			return fmt.Errorf("inserting session: %w", models.ErrConflict)
		}
	}
	cp := *s
	cp.Exercises = append([]models.SessionExercise(nil), s.Exercises...)
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeStore) GetSession(_ context.Context, sessionID uuid.UUID, userID int) (*models.Session, error) {
	s, ok := f.sessions[sessionID]
	if !ok || s.UserID != userID {
		return nil, fmt.Errorf("session %s: %w", sessionID, models.ErrNotFound)
	}
	cp := *s
	cp.Exercises = append([]models.SessionExercise(nil), s.Exercises...)
	return &cp, nil
}

func (f *fakeStore) ActiveSessions(_ context.Context, userID int) ([]models.Session, error) {
	var result []models.Session
	for _, s := range f.sessions {
		if s.UserID == userID && s.Status == models.StatusInProgress {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (f *fakeStore) TransitionSession(_ context.Context, sessionID uuid.UUID, userID int,
	from, to models.Status, endedAt *time.Time, completionRate *float64) error {
	s, ok := f.sessions[sessionID]
	if !ok || s.UserID != userID {
		return fmt.Errorf("session %s: %w", sessionID, models.ErrNotFound)
	}
	if s.Status != from {
		return fmt.Errorf("session %s is %s: %w", sessionID, s.Status, models.ErrConflict)
	}
	s.Status = to
	s.EndedAt = endedAt
	s.CompletionRate = completionRate
	return nil
}

func (f *fakeStore) CompleteExercise(_ context.Context, sessionID, exerciseID uuid.UUID, userID int,
	series, reps int, weightKg float64, restSec int) error {
	s, ok := f.sessions[sessionID]
	if !ok || s.UserID != userID {
		return fmt.Errorf("session %s: %w", sessionID, models.ErrNotFound)
	}
	if s.Status != models.StatusInProgress {
		return fmt.Errorf("session %s is %s: %w", sessionID, s.Status, models.ErrConflict)
	}
	for i := range s.Exercises {
		if s.Exercises[i].ID == exerciseID {
			s.Exercises[i].Series = series
			s.Exercises[i].Reps = reps
			s.Exercises[i].WeightKg = weightKg
			s.Exercises[i].RestSec = restSec
			s.Exercises[i].Completed = true
			return nil
		}
	}
	return fmt.Errorf("exercise %s: %w", exerciseID, models.ErrNotFound)
}

func testTemplate(userID, exercises int) *models.Template {
	t := &models.Template{
		ID:         uuid.New(),
		UserID:     userID,
		Name:       "Push Day",
		Visibility: models.VisibilityPrivate,
		CreatedAt:  time.Now(),
	}
	names := []string{"Bench Press", "Overhead Press", "Dips", "Lateral Raise", "Push-up"}
	for i := range exercises {
		t.Exercises = append(t.Exercises, models.TemplateExercise{
			ID:             uuid.New(),
			TemplateID:     t.ID,
			Position:       i,
			Name:           names[i%len(names)],
			MuscleGroup:    "chest",
			TargetSeries:   4,
			TargetReps:     8,
			TargetWeightKg: 60,
			TargetRestSec:  120,
		})
	}
	return t
}

func newTestService(store Store) *Service {
	return New(store, slog.Default())
}

func vals(series, reps int, weight float64, rest int) models.ActualValues {
	return models.ActualValues{Series: &series, Reps: &reps, WeightKg: &weight, RestSec: &rest}
}

// TestStartSnapshotsTemplate verifies that starting a session copies the
// template's exercises with target values and completed=false.
func TestStartSnapshotsTemplate(t *testing.T) {
	store := newFakeStore()
	tpl := testTemplate(1, 3)
	store.templates[tpl.ID] = tpl
	svc := newTestService(store)

	session, err := svc.Start(context.Background(), 1, tpl.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if session.Status != models.StatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", session.Status)
	}
	if len(session.Exercises) != 3 {
		t.Fatalf("exercises = %d, want 3", len(session.Exercises))
	}
	for i, ex := range session.Exercises {
		if ex.Completed {
			t.Errorf("exercise %d starts completed", i)
		}
		if ex.TemplateExerciseID != tpl.Exercises[i].ID {
			t.Errorf("exercise %d not linked to template exercise", i)
		}
		if ex.Series != 4 || ex.Reps != 8 || ex.WeightKg != 60 || ex.RestSec != 120 {
			t.Errorf("exercise %d targets not copied: %+v", i, ex)
		}
	}
}

// TestStartConflict verifies that a second start while a session is
// IN_PROGRESS fails with ErrConflict.
func TestStartConflict(t *testing.T) {
	store := newFakeStore()
	tpl := testTemplate(1, 2)
	store.templates[tpl.ID] = tpl
	svc := newTestService(store)

	if _, err := svc.Start(context.Background(), 1, tpl.ID); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	_, err := svc.Start(context.Background(), 1, tpl.ID)
	if !errors.Is(err, models.ErrConflict) {
		t.Errorf("second Start error = %v, want ErrConflict", err)
	}
}

// TestStartTemplateNotFound verifies starting from a missing template.
func TestStartTemplateNotFound(t *testing.T) {
	svc := newTestService(newFakeStore())
	_, err := svc.Start(context.Background(), 1, uuid.New())
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// TestStartOtherUsersPrivateTemplate verifies that a private template is
// invisible to other users.
func TestStartOtherUsersPrivateTemplate(t *testing.T) {
	store := newFakeStore()
	tpl := testTemplate(1, 2)
	store.templates[tpl.ID] = tpl
	svc := newTestService(store)

	_, err := svc.Start(context.Background(), 2, tpl.ID)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// TestCompleteExerciseOverwrites verifies that re-completing an exercise
// overwrites the previous values: the latest submission wins and the
// exercise stays completed.
func TestCompleteExerciseOverwrites(t *testing.T) {
	store := newFakeStore()
	tpl := testTemplate(1, 2)
	store.templates[tpl.ID] = tpl
	svc := newTestService(store)

	session, err := svc.Start(context.Background(), 1, tpl.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	exID := session.Exercises[0].ID

	if _, err := svc.CompleteExercise(context.Background(), 1, session.ID, exID, vals(4, 8, 60, 120)); err != nil {
		t.Fatalf("first CompleteExercise: %v", err)
	}
	updated, err := svc.CompleteExercise(context.Background(), 1, session.ID, exID, vals(3, 10, 55, 90))
	if err != nil {
		t.Fatalf("second CompleteExercise: %v", err)
	}

	ex := updated.Exercises[0]
	if !ex.Completed {
		t.Error("exercise no longer completed after re-completion")
	}
	if ex.Series != 3 || ex.Reps != 10 || ex.WeightKg != 55 || ex.RestSec != 90 {
		t.Errorf("values not overwritten: %+v", ex)
	}
}

// TestCompleteExerciseRequiresAllValues verifies that a completion missing
// any actual value is rejected before touching the store.
func TestCompleteExerciseRequiresAllValues(t *testing.T) {
	store := newFakeStore()
	tpl := testTemplate(1, 1)
	store.templates[tpl.ID] = tpl
	svc := newTestService(store)

	session, err := svc.Start(context.Background(), 1, tpl.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	series := 4
	partial := models.ActualValues{Series: &series}
	_, err = svc.CompleteExercise(context.Background(), 1, session.ID, session.Exercises[0].ID, partial)
	if !errors.Is(err, models.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

// TestFinishRequiresConfirmation verifies that finishing with incomplete
// exercises fails without explicit confirmation and succeeds with it,
// snapshotting the completion rate.
func TestFinishRequiresConfirmation(t *testing.T) {
	store := newFakeStore()
	tpl := testTemplate(1, 3)
	store.templates[tpl.ID] = tpl
	svc := newTestService(store)

	session, err := svc.Start(context.Background(), 1, tpl.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	for _, exID := range []uuid.UUID{session.Exercises[0].ID, session.Exercises[1].ID} {
		if _, err := svc.CompleteExercise(context.Background(), 1, session.ID, exID, vals(4, 8, 60, 120)); err != nil {
			t.Fatalf("CompleteExercise: %v", err)
		}
	}

	_, err = svc.Finish(context.Background(), 1, session.ID, false)
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("Finish without confirmation: %v, want ErrValidation", err)
	}

	finished, err := svc.Finish(context.Background(), 1, session.ID, true)
	if err != nil {
		t.Fatalf("Finish with confirmation: %v", err)
	}
	if finished.Status != models.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", finished.Status)
	}
	if finished.EndedAt == nil {
		t.Error("EndedAt not set on finish")
	}
	if finished.CompletionRate == nil {
		t.Fatal("CompletionRate not snapshotted")
	}
	if got, want := *finished.CompletionRate, 2.0/3.0; got < want-0.001 || got > want+0.001 {
		t.Errorf("completion rate = %f, want %f", got, want)
	}
}

// TestFinishFullyCompleted verifies that a fully completed session finishes
// without confirmation.
func TestFinishFullyCompleted(t *testing.T) {
	store := newFakeStore()
	tpl := testTemplate(1, 1)
	store.templates[tpl.ID] = tpl
	svc := newTestService(store)

	session, err := svc.Start(context.Background(), 1, tpl.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.CompleteExercise(context.Background(), 1, session.ID, session.Exercises[0].ID, vals(4, 8, 60, 120)); err != nil {
		t.Fatalf("CompleteExercise: %v", err)
	}

	finished, err := svc.Finish(context.Background(), 1, session.ID, false)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if finished.CompletionRate == nil || *finished.CompletionRate != 1 {
		t.Errorf("completion rate = %v, want 1", finished.CompletionRate)
	}
}

// TestTerminalImmutability verifies that no lifecycle or completion
// operation succeeds against a stopped or completed session.
func TestTerminalImmutability(t *testing.T) {
	for _, terminal := range []string{"stop", "finish"} {
		t.Run(terminal, func(t *testing.T) {
			store := newFakeStore()
			tpl := testTemplate(1, 1)
			store.templates[tpl.ID] = tpl
			svc := newTestService(store)

			session, err := svc.Start(context.Background(), 1, tpl.ID)
			if err != nil {
				t.Fatalf("Start: %v", err)
			}
			if _, err := svc.CompleteExercise(context.Background(), 1, session.ID, session.Exercises[0].ID, vals(4, 8, 60, 120)); err != nil {
				t.Fatalf("CompleteExercise: %v", err)
			}

			if terminal == "stop" {
				err = svc.Stop(context.Background(), 1, session.ID)
			} else {
				_, err = svc.Finish(context.Background(), 1, session.ID, false)
			}
			if err != nil {
				t.Fatalf("terminate: %v", err)
			}

			if err := svc.Stop(context.Background(), 1, session.ID); !errors.Is(err, models.ErrConflict) {
				t.Errorf("Stop after terminal = %v, want ErrConflict", err)
			}
			if _, err := svc.Finish(context.Background(), 1, session.ID, true); !errors.Is(err, models.ErrConflict) {
				t.Errorf("Finish after terminal = %v, want ErrConflict", err)
			}
			if _, err := svc.CompleteExercise(context.Background(), 1, session.ID, session.Exercises[0].ID, vals(1, 1, 1, 1)); !errors.Is(err, models.ErrConflict) {
				t.Errorf("CompleteExercise after terminal = %v, want ErrConflict", err)
			}
		})
	}
}

// TestActive verifies the locator: none, exactly one, and the consistency
// fault when the store invariant is broken.
func TestActive(t *testing.T) {
	store := newFakeStore()
	tpl := testTemplate(1, 1)
	store.templates[tpl.ID] = tpl
	svc := newTestService(store)

	active, err := svc.Active(context.Background(), 1)
	if err != nil {
		t.Fatalf("Active with no sessions: %v", err)
	}
	if active != nil {
		t.Errorf("active = %+v, want nil", active)
	}

	session, err := svc.Start(context.Background(), 1, tpl.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	active, err = svc.Active(context.Background(), 1)
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if active == nil || active.ID != session.ID {
		t.Errorf("active = %+v, want session %s", active, session.ID)
	}

	// Corrupt the store to simulate a broken invariant.
	rogue := *session
	rogue.ID = uuid.New()
	store.sessions[rogue.ID] = &rogue

	if _, err := svc.Active(context.Background(), 1); err == nil {
		t.Error("Active with two in-progress sessions should fail")
	}
}

// TestStopScenario runs the stop path end to end: start, stop, locator
// returns none, and the session is terminal.
func TestStopScenario(t *testing.T) {
	store := newFakeStore()
	tpl := testTemplate(1, 2)
	store.templates[tpl.ID] = tpl
	svc := newTestService(store)

	session, err := svc.Start(context.Background(), 1, tpl.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := svc.Stop(context.Background(), 1, session.ID); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	active, err := svc.Active(context.Background(), 1)
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if active != nil {
		t.Errorf("active after stop = %+v, want nil", active)
	}

	stored, err := svc.store.GetSession(context.Background(), session.ID, 1)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if stored.Status != models.StatusStopped {
		t.Errorf("status = %s, want STOPPED", stored.Status)
	}

	// A fresh session can start after the terminal state.
	if _, err := svc.Start(context.Background(), 1, tpl.ID); err != nil {
		t.Errorf("Start after stop: %v", err)
	}
}

// TestStopMissingSession verifies stopping an unknown session.
func TestStopMissingSession(t *testing.T) {
	svc := newTestService(newFakeStore())
	if err := svc.Stop(context.Background(), 1, uuid.New()); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
