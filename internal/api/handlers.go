// Package api exposes the catalog and analysis jobs over HTTP. All
// endpoints speak JSON; preview GIFs are served as static files out of
// each project's data directory.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/mkravets/brollscout/internal/catalog"
	"github.com/mkravets/brollscout/internal/jobs"
	"github.com/mkravets/brollscout/internal/registry"
)

// AnalyzeRequest selects what an analysis job should cover.
type AnalyzeRequest struct {
	NewOnly bool   `json:"newOnly"`
	File    string `json:"file,omitempty"`
	Verify  bool   `json:"verify,omitempty"`
}

// AnalyzeFunc runs one analysis job for a project, writing console
// output to w. Injected by the server binary.
type AnalyzeFunc func(ctx context.Context, project *registry.Project, req AnalyzeRequest, w io.Writer) error

// App carries the server's dependencies into the handlers.
type App struct {
	Registry *registry.Registry
	Jobs     *jobs.Manager
	Analyze  AnalyzeFunc
	Logger   zerolog.Logger

	// indexReads collapses concurrent reads of the same project's index
	// into one disk load.
	indexReads singleflight.Group
}

func (app *App) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.Logger.Warn().Err(err).Msg("failed to encode response")
	}
}

func (app *App) writeError(w http.ResponseWriter, status int, message string) {
	app.writeJSON(w, status, map[string]string{"error": message})
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

// ListProjectsHandler returns all registered projects.
func (app *App) ListProjectsHandler(w http.ResponseWriter, r *http.Request) {
	projects, err := app.Registry.List()
	if err != nil {
		app.Logger.Error().Err(err).Msg("failed to list projects")
		app.writeError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}
	if projects == nil {
		projects = []registry.Project{}
	}
	app.writeJSON(w, http.StatusOK, projects)
}

// CreateProjectHandler registers a project folder under a slug.
func (app *App) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Slug string `json:"slug"`
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Slug == "" || req.Path == "" {
		app.writeError(w, http.StatusBadRequest, "slug and path are required")
		return
	}

	project, err := app.Registry.Create(req.Slug, req.Path)
	if err != nil {
		app.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	app.writeJSON(w, http.StatusCreated, project)
}

// DeleteProjectHandler removes a project registration.
func (app *App) DeleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := app.Registry.Delete(slug); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			app.writeError(w, http.StatusNotFound, "project not found")
			return
		}
		app.writeError(w, http.StatusInternalServerError, "failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IndexHandler returns the project's catalog index.
func (app *App) IndexHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	project, err := app.Registry.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			app.writeError(w, http.StatusNotFound, "project not found")
			return
		}
		app.writeError(w, http.StatusInternalServerError, "failed to look up project")
		return
	}

	v, err, _ := app.indexReads.Do(slug, func() (any, error) {
		store, err := catalog.NewStore(project.Path)
		if err != nil {
			return nil, err
		}
		return store.LoadIndex()
	})
	if err != nil {
		app.Logger.Error().Err(err).Str("project", slug).Msg("failed to load index")
		app.writeError(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}
	app.writeJSON(w, http.StatusOK, v)
}

// ThumbnailHandler serves one preview GIF from the project's data
// directory.
func (app *App) ThumbnailHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	name := chi.URLParam(r, "name")

	project, err := app.Registry.GetBySlug(slug)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	// Reject path traversal; thumbnails are flat files.
	if name != filepath.Base(name) {
		http.NotFound(w, r)
		return
	}

	store, err := catalog.NewStore(project.Path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	path := filepath.Join(store.ThumbnailsDir(), name)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

// StartAnalysisHandler launches a background analysis job for the
// project. A project can only run one job at a time.
func (app *App) StartAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	project, err := app.Registry.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			app.writeError(w, http.StatusNotFound, "project not found")
			return
		}
		app.writeError(w, http.StatusInternalServerError, "failed to look up project")
		return
	}

	var req AnalyzeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			app.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	jobID, err := app.Jobs.Start(context.Background(), slug, func(ctx context.Context, logw io.Writer) error {
		return app.Analyze(ctx, project, req, logw)
	})
	if err != nil {
		if errors.Is(err, jobs.ErrAlreadyRunning) {
			app.writeError(w, http.StatusConflict, "a job is already running for this project")
			return
		}
		app.writeError(w, http.StatusInternalServerError, "failed to start job")
		return
	}

	app.Logger.Info().Str("project", slug).Str("job", jobID).Msg("analysis job started")
	app.writeJSON(w, http.StatusAccepted, map[string]string{"jobId": jobID})
}

// JobStatusHandler returns the state and captured logs of one job.
func (app *App) JobStatusHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, ok := app.Jobs.Get(id)
	if !ok {
		app.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	app.writeJSON(w, http.StatusOK, snap)
}
