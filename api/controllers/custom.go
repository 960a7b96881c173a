package controllers

import (
	"net/http"

	"github.com/ecoeats/mealplanner/api/responses"
	"github.com/ecoeats/mealplanner/api/validators"
	"github.com/ecoeats/mealplanner/internal/backend"
	"github.com/ecoeats/mealplanner/pkg/logger"
	"github.com/ecoeats/mealplanner/pkg/types"
)

type createCustomRecipeRequest struct {
	UserID      string             `json:"user_id"`
	Name        string             `json:"name" validate:"notblank"`
	Ingredients []types.Ingredient `json:"ingredients" validate:"required,min=1"`
}

// CustomRecipes lists the recipes a user wrote themselves.
func CustomRecipes(svc backend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, svc.CustomRecipes(r.Context(), userParam(r)))
	}
}

// CreateCustomRecipe stores a user-authored recipe and answers with its id.
func CreateCustomRecipe(svc backend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req createCustomRecipeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		id, err := svc.CreateCustomRecipe(ctx, req.UserID, types.Recipe{Name: req.Name, Ingredients: req.Ingredients})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithField(logg.WithUserID(ctx, req.UserID), "recipe_id", id), "custom recipe created")
		}
		responses.WriteJSON(w, map[string]string{"inserted_id": id})
	}
}
