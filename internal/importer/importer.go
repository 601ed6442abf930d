// Package importer loads past sessions from an export file into the
// database, so history and aggregates are seeded when switching from
// another tracker. Imported sessions land as COMPLETED; the live session
// lifecycle is untouched.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/meltforce/liftlog/internal/models"
)

// Stats tracks import progress.
type Stats struct {
	SessionsImported   int
	SessionsDuplicated int
	SessionsInvalid    int
	TemplatesCreated   int
}

type store interface {
	ListTemplates(ctx context.Context, userID int) ([]models.Template, error)
	InsertTemplate(ctx context.Context, t *models.Template) error
	ListCompletedSessions(ctx context.Context, userID int) ([]models.Session, error)
	InsertSession(ctx context.Context, s *models.Session) error
}

// Importer reads an export file and inserts its sessions for one user.
type Importer struct {
	db     store
	log    *slog.Logger
	userID int
	dryRun bool
	stats  Stats
}

// New creates a new Importer.
func New(db store, log *slog.Logger, userID int, dryRun bool) *Importer {
	return &Importer{db: db, log: log, userID: userID, dryRun: dryRun}
}

// Import processes one export file. Records that fail validation are
// skipped and counted, not fatal; a session whose start time already
// exists in history counts as a duplicate.
func (imp *Importer) Import(ctx context.Context, path string) (*Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &imp.stats, fmt.Errorf("reading export file: %w", err)
	}
	file, err := ParseExport(data)
	if err != nil {
		return &imp.stats, err
	}

	templates, err := imp.loadTemplates(ctx)
	if err != nil {
		return &imp.stats, err
	}
	existing, err := imp.loadExistingStarts(ctx)
	if err != nil {
		return &imp.stats, err
	}

	for i, record := range file.Sessions {
		if err := record.Validate(); err != nil {
			imp.log.Warn("skipping invalid record", "index", i, "error", err)
			imp.stats.SessionsInvalid++
			continue
		}
		if existing[record.StartedAt.UTC().Unix()] {
			imp.stats.SessionsDuplicated++
			continue
		}

		template, err := imp.templateFor(ctx, templates, record)
		if err != nil {
			return &imp.stats, err
		}

		session := buildSession(imp.userID, template, record)
		if !imp.dryRun {
			if err := imp.db.InsertSession(ctx, session); err != nil {
				return &imp.stats, fmt.Errorf("inserting session started %s: %w", record.StartedAt, err)
			}
		}
		existing[record.StartedAt.UTC().Unix()] = true
		imp.stats.SessionsImported++
	}

	return &imp.stats, nil
}

func (imp *Importer) loadTemplates(ctx context.Context) (map[string]*models.Template, error) {
	list, err := imp.db.ListTemplates(ctx, imp.userID)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	byName := make(map[string]*models.Template, len(list))
	for i := range list {
		byName[list[i].Name] = &list[i]
	}
	return byName, nil
}

func (imp *Importer) loadExistingStarts(ctx context.Context) (map[int64]bool, error) {
	sessions, err := imp.db.ListCompletedSessions(ctx, imp.userID)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	starts := make(map[int64]bool, len(sessions))
	for _, s := range sessions {
		starts[s.StartedAt.UTC().Unix()] = true
	}
	return starts, nil
}

// templateFor finds or creates the template a record belongs to. A created
// template takes its targets from the record's performed values; the first
// record under a name wins.
func (imp *Importer) templateFor(ctx context.Context, templates map[string]*models.Template,
	record SessionRecord) (*models.Template, error) {

	if t, ok := templates[record.Template]; ok {
		return t, nil
	}

	t := &models.Template{
		ID:         uuid.New(),
		UserID:     imp.userID,
		Name:       record.Template,
		Visibility: models.VisibilityPrivate,
		CreatedAt:  record.StartedAt,
	}
	for i, ex := range record.Exercises {
		t.Exercises = append(t.Exercises, models.TemplateExercise{
			ID:             uuid.New(),
			TemplateID:     t.ID,
			Position:       i,
			Name:           ex.Name,
			MuscleGroup:    ex.MuscleGroup,
			TargetSeries:   ex.Series,
			TargetReps:     ex.Reps,
			TargetWeightKg: ex.WeightKg,
			TargetRestSec:  ex.RestSec,
		})
	}

	if !imp.dryRun {
		if err := imp.db.InsertTemplate(ctx, t); err != nil {
			return nil, fmt.Errorf("creating template %q: %w", record.Template, err)
		}
	}
	templates[record.Template] = t
	imp.stats.TemplatesCreated++
	imp.log.Info("created template from import", "name", record.Template, "exercises", len(t.Exercises))
	return t, nil
}

// buildSession maps one record onto a COMPLETED session with a snapshotted
// completion rate. Exercises are linked to the template's exercises by
// position when one exists there.
func buildSession(userID int, template *models.Template, record SessionRecord) *models.Session {
	endedAt := record.EndedAt
	s := &models.Session{
		ID:         uuid.New(),
		UserID:     userID,
		TemplateID: template.ID,
		Status:     models.StatusCompleted,
		StartedAt:  record.StartedAt,
		EndedAt:    &endedAt,
	}
	for i, ex := range record.Exercises {
		se := models.SessionExercise{
			ID:          uuid.New(),
			SessionID:   s.ID,
			Position:    i,
			Name:        ex.Name,
			MuscleGroup: ex.MuscleGroup,
			Series:      ex.Series,
			Reps:        ex.Reps,
			WeightKg:    ex.WeightKg,
			RestSec:     ex.RestSec,
			Completed:   ex.Completed,
		}
		if i < len(template.Exercises) {
			se.TemplateExerciseID = template.Exercises[i].ID
		}
		s.Exercises = append(s.Exercises, se)
	}
	rate := models.CompletionRate(s.Exercises)
	s.CompletionRate = &rate
	return s
}
