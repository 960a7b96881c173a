package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecoeats/mealplanner/api/responses"
	"github.com/ecoeats/mealplanner/api/validators"
	"github.com/ecoeats/mealplanner/internal/backend"
	"github.com/ecoeats/mealplanner/pkg/logger"
	"github.com/ecoeats/mealplanner/pkg/types"
)

type saveTemplateRequest struct {
	UserID string           `json:"userId"`
	Name   string           `json:"name" validate:"notblank"`
	Meals  *types.WeekMeals `json:"meals" validate:"required"`
}

type applyTemplateRequest struct {
	UserID     string `json:"userId"`
	TemplateID string `json:"templateId" validate:"required"`
	WeekStart  string `json:"weekStart" validate:"required"`
}

// SaveTemplate stores a named copy of a week's meals.
func SaveTemplate(svc backend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req saveTemplateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		id, err := svc.SaveTemplate(ctx, req.UserID, req.Name, *req.Meals)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, map[string]string{"id": id, "status": backend.StatusSaved})
	}
}

// ListTemplates returns the user's templates, newest first.
func ListTemplates(svc backend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, svc.ListTemplates(r.Context(), userParam(r)))
	}
}

func DeleteTemplate(svc backend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "templateId")
		if err := svc.DeleteTemplate(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, map[string]string{"status": backend.StatusDeleted, "id": id})
	}
}

// ApplyTemplate overwrites a week with a template's meals.
func ApplyTemplate(svc backend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req applyTemplateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.ApplyTemplate(ctx, req.UserID, req.TemplateID, req.WeekStart); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, map[string]string{"status": backend.StatusApplied, "weekStart": req.WeekStart})
	}
}
