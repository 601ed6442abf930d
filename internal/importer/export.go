package importer

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExportFile is the bulk-history interchange format: a flat list of past
// sessions grouped under their template names. Other trackers export
// something close enough to map onto this by hand.
type ExportFile struct {
	Sessions []SessionRecord `json:"sessions"`
}

// SessionRecord is one past session in an export file. All records import
// as COMPLETED; in-flight sessions do not survive an export.
type SessionRecord struct {
	Template  string           `json:"template"`
	StartedAt time.Time        `json:"started_at"`
	EndedAt   time.Time        `json:"ended_at"`
	Exercises []ExerciseRecord `json:"exercises"`
}

// ExerciseRecord is one performed exercise inside a session record.
type ExerciseRecord struct {
	Name        string  `json:"name"`
	MuscleGroup string  `json:"muscle_group"`
	Series      int     `json:"series"`
	Reps        int     `json:"reps"`
	WeightKg    float64 `json:"weight_kg"`
	RestSec     int     `json:"rest_sec"`
	Completed   bool    `json:"completed"`
}

// ParseExport decodes an export file.
func ParseExport(data []byte) (*ExportFile, error) {
	var file ExportFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing export: %w", err)
	}
	return &file, nil
}

// Validate reports why a record cannot be imported, or nil.
func (r SessionRecord) Validate() error {
	if r.Template == "" {
		return fmt.Errorf("missing template name")
	}
	if r.StartedAt.IsZero() || r.EndedAt.IsZero() {
		return fmt.Errorf("missing started_at or ended_at")
	}
	if !r.EndedAt.After(r.StartedAt) {
		return fmt.Errorf("ended_at %s not after started_at %s", r.EndedAt, r.StartedAt)
	}
	if len(r.Exercises) == 0 {
		return fmt.Errorf("no exercises")
	}
	for i, ex := range r.Exercises {
		if ex.Name == "" {
			return fmt.Errorf("exercise %d: missing name", i)
		}
	}
	return nil
}
