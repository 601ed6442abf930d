package sync

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/meltforce/liftlog/internal/models"
)

// StateDB holds completion submissions that have not been confirmed by the
// server, so a timeout never loses values the user already entered. Entries
// are removed only once the server acknowledges the write.
type StateDB struct {
	db *sql.DB
}

// PendingCompletion is one queued exercise-completion submission.
type PendingCompletion struct {
	ID         int64
	SessionID  uuid.UUID
	ExerciseID uuid.UUID
	Values     models.ActualValues
	QueuedAt   time.Time
}

// OpenStateDB opens (or creates) the SQLite state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS pending_completions (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id  TEXT NOT NULL,
		exercise_id TEXT NOT NULL,
		series      INTEGER NOT NULL,
		reps        INTEGER NOT NULL,
		weight_kg   REAL NOT NULL,
		rest_sec    INTEGER NOT NULL,
		queued_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// Enqueue stores a completion submission awaiting server confirmation.
func (s *StateDB) Enqueue(sessionID, exerciseID uuid.UUID, vals models.ActualValues) error {
	if vals.Series == nil || vals.Reps == nil || vals.WeightKg == nil || vals.RestSec == nil {
		return fmt.Errorf("all actual values required: %w", models.ErrValidation)
	}

	_, err := s.db.Exec(
		`INSERT INTO pending_completions (session_id, exercise_id, series, reps, weight_kg, rest_sec)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID.String(), exerciseID.String(),
		*vals.Series, *vals.Reps, *vals.WeightKg, *vals.RestSec,
	)
	if err != nil {
		return fmt.Errorf("enqueueing completion: %w", err)
	}
	return nil
}

// Pending returns queued submissions in insertion order.
func (s *StateDB) Pending() ([]PendingCompletion, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, exercise_id, series, reps, weight_kg, rest_sec, queued_at
		 FROM pending_completions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying pending completions: %w", err)
	}
	defer rows.Close()

	var result []PendingCompletion
	for rows.Next() {
		var p PendingCompletion
		var sessionID, exerciseID string
		var series, reps, restSec int
		var weightKg float64
		if err := rows.Scan(&p.ID, &sessionID, &exerciseID,
			&series, &reps, &weightKg, &restSec, &p.QueuedAt); err != nil {
			return nil, fmt.Errorf("scanning pending completion: %w", err)
		}
		if p.SessionID, err = uuid.Parse(sessionID); err != nil {
			return nil, fmt.Errorf("parsing session id: %w", err)
		}
		if p.ExerciseID, err = uuid.Parse(exerciseID); err != nil {
			return nil, fmt.Errorf("parsing exercise id: %w", err)
		}
		p.Values = models.ActualValues{Series: &series, Reps: &reps, WeightKg: &weightKg, RestSec: &restSec}
		result = append(result, p)
	}
	return result, rows.Err()
}

// Remove deletes a confirmed (or permanently rejected) submission.
func (s *StateDB) Remove(id int64) error {
	_, err := s.db.Exec(`DELETE FROM pending_completions WHERE id = ?`, id)
	return err
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}
