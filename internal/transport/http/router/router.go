// Package router defines api routes and middleware
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MurtazaD1410/developer-dashboard/internal/transport/http/handler"
)

// NewRouter initializes and configures the http router
func NewRouter(projectHandler *handler.ProjectHandler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/repository", projectHandler.GetRepository)
		r.Get("/commits", projectHandler.GetCommits)
		r.Get("/issues", projectHandler.GetIssues)
		r.Get("/pull-requests", projectHandler.GetPullRequests)
	})

	return r
}
