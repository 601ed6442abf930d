package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meltforce/liftlog/internal/models"
)

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.store.ListTemplates(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if templates == nil {
		templates = []models.Template{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	templateID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid template ID"})
		return
	}

	template, err := s.store.GetTemplate(r.Context(), templateID, userIDFromContext(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, template)
}

type createTemplateRequest struct {
	Name       string            `json:"name"`
	Visibility models.Visibility `json:"visibility"`
	Exercises  []struct {
		Name           string  `json:"name"`
		MuscleGroup    string  `json:"muscle_group"`
		TargetSeries   int     `json:"target_series"`
		TargetReps     int     `json:"target_reps"`
		TargetWeightKg float64 `json:"target_weight_kg"`
		TargetRestSec  int     `json:"target_rest_sec"`
	} `json:"exercises"`
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Name == "" || len(req.Exercises) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "name and at least one exercise required"})
		return
	}
	if req.Visibility == "" {
		req.Visibility = models.VisibilityPrivate
	}

	template := &models.Template{
		ID:         uuid.New(),
		UserID:     userIDFromContext(r),
		Name:       req.Name,
		Visibility: req.Visibility,
		CreatedAt:  time.Now(),
	}
	for i, ex := range req.Exercises {
		template.Exercises = append(template.Exercises, models.TemplateExercise{
			ID:             uuid.New(),
			TemplateID:     template.ID,
			Position:       i,
			Name:           ex.Name,
			MuscleGroup:    ex.MuscleGroup,
			TargetSeries:   ex.TargetSeries,
			TargetReps:     ex.TargetReps,
			TargetWeightKg: ex.TargetWeightKg,
			TargetRestSec:  ex.TargetRestSec,
		})
	}

	if err := s.store.InsertTemplate(r.Context(), template); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, template)
}
