package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecoeats/mealplanner/api/controllers"
	"github.com/ecoeats/mealplanner/api/middleware"
	"github.com/ecoeats/mealplanner/internal/backend"
	"github.com/ecoeats/mealplanner/pkg/config"
	"github.com/ecoeats/mealplanner/pkg/logger"
)

// NewRouter serves the EcoEats REST contract from svc.
func NewRouter(cfg *config.Config, logg *logger.Logger, svc backend.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Get("/", controllers.Root(cfg))
	r.Get("/health/live", controllers.HealthLive(cfg))

	r.Get("/inventory", controllers.Inventory(svc, logg))

	r.Route("/mealplan", func(r chi.Router) {
		r.Get("/", controllers.GetMealPlan(svc, logg))
		r.Put("/", controllers.PutMealPlan(svc, logg))
		r.Post("/copy", controllers.CopyMealPlan(svc, logg))
		r.Get("/suggested/{userId}", controllers.SuggestedRecipes(svc, logg))
		r.Get("/generic", controllers.GenericRecipes(svc, logg))
		r.Get("/custom/{userId}", controllers.CustomRecipes(svc, logg))
		r.Post("/custom", controllers.CreateCustomRecipe(svc, logg))

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", controllers.ListTemplates(svc, logg))
			r.Post("/", controllers.SaveTemplate(svc, logg))
			r.Post("/apply", controllers.ApplyTemplate(svc, logg))
			r.Delete("/id/{templateId}", controllers.DeleteTemplate(svc, logg))
		})
	})

	return r
}
