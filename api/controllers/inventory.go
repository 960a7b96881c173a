package controllers

import (
	"net/http"

	"github.com/ecoeats/mealplanner/api/responses"
	"github.com/ecoeats/mealplanner/internal/backend"
	"github.com/ecoeats/mealplanner/pkg/logger"
)

// Inventory lists every food item.
func Inventory(svc backend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, svc.Inventory(r.Context()))
	}
}

// SuggestedRecipes lists suggested recipes annotated with inventory coverage.
func SuggestedRecipes(svc backend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userParam(r)
		responses.WriteJSON(w, svc.SuggestedRecipes(r.Context(), userID))
	}
}

// GenericRecipes lists the generic recipe collection.
func GenericRecipes(svc backend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, svc.GenericRecipes(r.Context()))
	}
}
