package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meltforce/liftlog/internal/models"
)

// InsertTemplate inserts a template and its ordered exercises in one
// transaction.
func (db *DB) InsertTemplate(ctx context.Context, t *models.Template) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO templates (id, user_id, name, visibility, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		t.ID, t.UserID, t.Name, t.Visibility, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting template: %w", err)
	}

	if len(t.Exercises) > 0 {
		query := `INSERT INTO template_exercises (id, template_id, position, name, muscle_group,
			target_series, target_reps, target_weight_kg, target_rest_sec) VALUES `
		args := make([]any, 0, len(t.Exercises)*9)
		valueStrings := make([]string, 0, len(t.Exercises))

		for i, ex := range t.Exercises {
			base := i * 9
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9,
			))
			args = append(args, ex.ID, ex.TemplateID, ex.Position, ex.Name, ex.MuscleGroup,
				ex.TargetSeries, ex.TargetReps, ex.TargetWeightKg, ex.TargetRestSec)
		}

		query += strings.Join(valueStrings, ",")
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting template exercises: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing template: %w", err)
	}
	return nil
}

// GetTemplate retrieves a template visible to the user: their own, or a
// public one.
func (db *DB) GetTemplate(ctx context.Context, templateID uuid.UUID, userID int) (*models.Template, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, name, visibility, created_at FROM templates
		 WHERE id = $1 AND (user_id = $2 OR visibility = $3)`,
		templateID, userID, models.VisibilityPublic)

	var t models.Template
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Visibility, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", templateID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying template: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT id, template_id, position, name, muscle_group,
		        target_series, target_reps, target_weight_kg, target_rest_sec
		 FROM template_exercises
		 WHERE template_id = $1
		 ORDER BY position ASC`,
		templateID)
	if err != nil {
		return nil, fmt.Errorf("querying template exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ex models.TemplateExercise
		if err := rows.Scan(&ex.ID, &ex.TemplateID, &ex.Position, &ex.Name, &ex.MuscleGroup,
			&ex.TargetSeries, &ex.TargetReps, &ex.TargetWeightKg, &ex.TargetRestSec); err != nil {
			return nil, fmt.Errorf("scanning template exercise: %w", err)
		}
		t.Exercises = append(t.Exercises, ex)
	}
	return &t, rows.Err()
}

// ListTemplates returns the user's own templates plus public ones, newest
// first, without their exercise lists.
func (db *DB) ListTemplates(ctx context.Context, userID int) ([]models.Template, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, visibility, created_at FROM templates
		 WHERE user_id = $1 OR visibility = $2
		 ORDER BY created_at DESC`,
		userID, models.VisibilityPublic)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	var result []models.Template
	for rows.Next() {
		var t models.Template
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Visibility, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
