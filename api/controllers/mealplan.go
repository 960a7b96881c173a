package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ecoeats/mealplanner/api/responses"
	"github.com/ecoeats/mealplanner/api/validators"
	"github.com/ecoeats/mealplanner/internal/backend"
	pkgerrors "github.com/ecoeats/mealplanner/pkg/errors"
	"github.com/ecoeats/mealplanner/pkg/logger"
	"github.com/ecoeats/mealplanner/pkg/types"
)

type copyPlanRequest struct {
	UserID        string `json:"userId"`
	FromWeekStart string `json:"fromWeekStart" validate:"required"`
	ToWeekStart   string `json:"toWeekStart" validate:"required"`
}

type copyPlanResponse struct {
	UserID    string          `json:"userId"`
	WeekStart string          `json:"weekStart"`
	Meals     types.WeekMeals `json:"meals"`
	ID        string          `json:"id"`
	Status    string          `json:"status"`
}

func userParam(r *http.Request) string {
	if userID := strings.TrimSpace(chi.URLParam(r, "userId")); userID != "" {
		return userID
	}
	return validators.QueryString(r, "userId", backend.DefaultUserID)
}

// GetMealPlan returns the stored plan for ?weekStart=&userId=, 404 when the
// week was never written.
func GetMealPlan(svc backend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		weekStart, err := validators.RequiredQuery(r, "weekStart")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		plan, err := svc.GetPlan(ctx, userParam(r), weekStart)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, plan)
	}
}

// PutMealPlan stores the full document keyed by its user and week start.
func PutMealPlan(svc backend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var plan types.WeekPlan
		if err := validators.DecodeJSONBody(r, &plan); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			ctx = logg.WithWeekStart(logg.WithUserID(ctx, plan.UserID), plan.WeekStart)
		}
		res, err := svc.SavePlan(ctx, &plan)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithField(ctx, "entries_saved", res.EntriesSaved), "meal plan saved")
		}
		responses.WriteJSON(w, res)
	}
}

// CopyMealPlan duplicates one week's grid into another.
func CopyMealPlan(svc backend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req copyPlanRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Missing week start values").
				WithDetails(detailsOf(err)))
			return
		}
		plan, err := svc.CopyPlan(ctx, req.UserID, req.FromWeekStart, req.ToWeekStart)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, copyPlanResponse{
			UserID:    plan.UserID,
			WeekStart: plan.WeekStart,
			Meals:     plan.Meals,
			ID:        plan.ID,
			Status:    backend.StatusCopiedAndSaved,
		})
	}
}

func detailsOf(err error) any {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Details()
	}
	return nil
}
