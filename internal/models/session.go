package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a training session.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusStopped    Status = "STOPPED"
)

// Terminal reports whether a session in this status accepts no further
// lifecycle or completion operations.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusStopped
}

// Session is one instance of performing a template. Exercises are a
// copy-on-create snapshot of the template's exercise list; template edits
// never alter past sessions.
type Session struct {
	ID             uuid.UUID         `json:"id"`
	UserID         int               `json:"user_id"`
	TemplateID     uuid.UUID         `json:"template_id"`
	Status         Status            `json:"status"`
	StartedAt      time.Time         `json:"started_at"`
	EndedAt        *time.Time        `json:"ended_at,omitempty"`
	CompletionRate *float64          `json:"completion_rate,omitempty"`
	Exercises      []SessionExercise `json:"exercises"`
}

// SessionExercise is the per-session record of one exercise: the targets
// copied from the template at start time, overwritten with the actually
// performed values when the exercise is marked completed.
type SessionExercise struct {
	ID                 uuid.UUID `json:"id"`
	SessionID          uuid.UUID `json:"session_id"`
	TemplateExerciseID uuid.UUID `json:"template_exercise_id"`
	Position           int       `json:"position"`
	Name               string    `json:"name"`
	MuscleGroup        string    `json:"muscle_group"`
	Series             int       `json:"series"`
	Reps               int       `json:"reps"`
	WeightKg           float64   `json:"weight_kg"`
	RestSec            int       `json:"rest_sec"`
	Completed          bool      `json:"completed"`
}

// ActualValues are the performed parameters submitted when an exercise is
// marked completed. All four fields are required.
type ActualValues struct {
	Series   *int     `json:"series"`
	Reps     *int     `json:"reps"`
	WeightKg *float64 `json:"weight_kg"`
	RestSec  *int     `json:"rest_sec"`
}

// CompletionRate returns the fraction of exercises marked completed,
// in [0,1]. Returns 0 for an empty list.
func CompletionRate(exercises []SessionExercise) float64 {
	if len(exercises) == 0 {
		return 0
	}
	completed := 0
	for _, ex := range exercises {
		if ex.Completed {
			completed++
		}
	}
	return float64(completed) / float64(len(exercises))
}
