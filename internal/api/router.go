package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", app.ListProjectsHandler)
		r.Post("/projects", app.CreateProjectHandler)
		r.Delete("/projects/{slug}", app.DeleteProjectHandler)
		r.Get("/projects/{slug}/index", app.IndexHandler)
		r.Get("/projects/{slug}/thumbnails/{name}", app.ThumbnailHandler)
		r.Post("/projects/{slug}/analyze", app.StartAnalysisHandler)
		r.Get("/jobs/{id}", app.JobStatusHandler)
	})

	return r
}
