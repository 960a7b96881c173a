package controllers

import (
	"net/http"

	"github.com/ecoeats/mealplanner/api/responses"
	"github.com/ecoeats/mealplanner/pkg/config"
)

const envHeader = "X-EcoEats-Env"

// Root mirrors the backend's banner endpoint.
func Root(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteJSON(w, map[string]string{"message": "Backend running with routers!"})
	}
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteJSON(w, map[string]string{"status": "live"})
	}
}
