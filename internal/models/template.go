package models

import (
	"time"

	"github.com/google/uuid"
)

// Visibility controls who can start sessions from a template.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Template is a reusable workout definition: an ordered exercise list with
// target parameters. Templates are owned by their creator and are never
// mutated retroactively once a session references them.
type Template struct {
	ID         uuid.UUID          `json:"id"`
	UserID     int                `json:"user_id"`
	Name       string             `json:"name"`
	Visibility Visibility         `json:"visibility"`
	CreatedAt  time.Time          `json:"created_at"`
	Exercises  []TemplateExercise `json:"exercises"`
}

// TemplateExercise is one exercise within a template with its targets.
type TemplateExercise struct {
	ID             uuid.UUID `json:"id"`
	TemplateID     uuid.UUID `json:"template_id"`
	Position       int       `json:"position"`
	Name           string    `json:"name"`
	MuscleGroup    string    `json:"muscle_group"`
	TargetSeries   int       `json:"target_series"`
	TargetReps     int       `json:"target_reps"`
	TargetWeightKg float64   `json:"target_weight_kg"`
	TargetRestSec  int       `json:"target_rest_sec"`
}
