package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meltforce/liftlog/internal/models"
)

const sessionColumns = `id, user_id, template_id, status, started_at, ended_at, completion_rate`

// InsertSession inserts a session together with its exercise snapshot in one
// transaction. The partial unique index on (user_id) WHERE status =
// 'IN_PROGRESS' is the source of truth for the single-active-session rule;
// a violation surfaces as models.ErrConflict.
func (db *DB) InsertSession(ctx context.Context, s *models.Session) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO sessions (id, user_id, template_id, status, started_at, ended_at, completion_rate)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.ID, s.UserID, s.TemplateID, s.Status, s.StartedAt, s.EndedAt, s.CompletionRate)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("inserting session: %w", models.ErrConflict)
		}
		return fmt.Errorf("inserting session: %w", err)
	}

	if len(s.Exercises) > 0 {
		query := `INSERT INTO session_exercises (id, session_id, template_exercise_id, position,
			name, muscle_group, series, reps, weight_kg, rest_sec, completed) VALUES `
		args := make([]any, 0, len(s.Exercises)*11)
		valueStrings := make([]string, 0, len(s.Exercises))

		for i, ex := range s.Exercises {
			base := i * 11
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6,
				base+7, base+8, base+9, base+10, base+11,
			))
			args = append(args, ex.ID, ex.SessionID, ex.TemplateExerciseID, ex.Position,
				ex.Name, ex.MuscleGroup, ex.Series, ex.Reps, ex.WeightKg, ex.RestSec, ex.Completed)
		}

		query += strings.Join(valueStrings, ",")
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting session exercises: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing session: %w", err)
	}
	return nil
}

// GetSession retrieves a single session with its exercises.
func (db *DB) GetSession(ctx context.Context, sessionID uuid.UUID, userID int) (*models.Session, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1 AND user_id = $2`,
		sessionID, userID)

	var s models.Session
	err := row.Scan(&s.ID, &s.UserID, &s.TemplateID, &s.Status, &s.StartedAt, &s.EndedAt, &s.CompletionRate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	if err := db.loadExercises(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ActiveSessions returns every IN_PROGRESS session for the user. The
// invariant allows at most one; callers treat a longer result as a
// consistency fault rather than picking a winner.
func (db *DB) ActiveSessions(ctx context.Context, userID int) ([]models.Session, error) {
	sessions, err := db.querySessions(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE user_id = $1 AND status = $2
		 ORDER BY started_at DESC`,
		userID, models.StatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("querying active sessions: %w", err)
	}

	for i := range sessions {
		if err := db.loadExercises(ctx, &sessions[i]); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

// ListCompletedSessions returns the user's COMPLETED sessions with their
// exercises, newest first. Stopped sessions never appear here.
func (db *DB) ListCompletedSessions(ctx context.Context, userID int) ([]models.Session, error) {
	sessions, err := db.querySessions(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE user_id = $1 AND status = $2
		 ORDER BY started_at DESC`,
		userID, models.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("querying completed sessions: %w", err)
	}

	for i := range sessions {
		if err := db.loadExercises(ctx, &sessions[i]); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

// TransitionSession moves a session from one status to another, setting
// ended_at and the snapshotted completion rate when provided. The status
// guard runs in SQL so a concurrent transition cannot double-apply.
func (db *DB) TransitionSession(ctx context.Context, sessionID uuid.UUID, userID int,
	from, to models.Status, endedAt *time.Time, completionRate *float64) error {

	tag, err := db.Pool.Exec(ctx,
		`UPDATE sessions SET status = $1, ended_at = $2, completion_rate = $3
		 WHERE id = $4 AND user_id = $5 AND status = $6`,
		to, endedAt, completionRate, sessionID, userID, from)
	if err != nil {
		return fmt.Errorf("updating session status: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Disambiguate: missing row vs. wrong status.
	var status models.Status
	err = db.Pool.QueryRow(ctx,
		`SELECT status FROM sessions WHERE id = $1 AND user_id = $2`,
		sessionID, userID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("session %s: %w", sessionID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("querying session status: %w", err)
	}
	return fmt.Errorf("session %s is %s: %w", sessionID, status, models.ErrConflict)
}

// CompleteExercise overwrites an exercise's actual values and marks it
// completed. Only valid while the owning session is IN_PROGRESS; repeated
// calls overwrite again (last write wins).
func (db *DB) CompleteExercise(ctx context.Context, sessionID, exerciseID uuid.UUID, userID int,
	series, reps int, weightKg float64, restSec int) error {

	tag, err := db.Pool.Exec(ctx,
		`UPDATE session_exercises SET series = $1, reps = $2, weight_kg = $3, rest_sec = $4, completed = TRUE
		 WHERE id = $5 AND session_id = $6
		   AND EXISTS (SELECT 1 FROM sessions
		               WHERE id = $6 AND user_id = $7 AND status = $8)`,
		series, reps, weightKg, restSec, exerciseID, sessionID, userID, models.StatusInProgress)
	if err != nil {
		return fmt.Errorf("completing exercise: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Disambiguate: no such session/exercise vs. terminal session.
	session, err := db.GetSession(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if session.Status != models.StatusInProgress {
		return fmt.Errorf("session %s is %s: %w", sessionID, session.Status, models.ErrConflict)
	}
	return fmt.Errorf("exercise %s: %w", exerciseID, models.ErrNotFound)
}

func (db *DB) querySessions(ctx context.Context, query string, args ...any) ([]models.Session, error) {
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.TemplateID, &s.Status,
			&s.StartedAt, &s.EndedAt, &s.CompletionRate); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (db *DB) loadExercises(ctx context.Context, s *models.Session) error {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, session_id, template_exercise_id, position, name, muscle_group,
		        series, reps, weight_kg, rest_sec, completed
		 FROM session_exercises
		 WHERE session_id = $1
		 ORDER BY position ASC`,
		s.ID)
	if err != nil {
		return fmt.Errorf("querying session exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ex models.SessionExercise
		if err := rows.Scan(&ex.ID, &ex.SessionID, &ex.TemplateExerciseID, &ex.Position,
			&ex.Name, &ex.MuscleGroup, &ex.Series, &ex.Reps, &ex.WeightKg, &ex.RestSec, &ex.Completed); err != nil {
			return fmt.Errorf("scanning session exercise: %w", err)
		}
		s.Exercises = append(s.Exercises, ex)
	}
	return rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
