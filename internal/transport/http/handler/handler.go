// Package handler exposes the query service over HTTP
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MurtazaD1410/developer-dashboard/internal/apperror"
	"github.com/MurtazaD1410/developer-dashboard/internal/query"
)

// QueryService is the read surface served by ProjectHandler
type QueryService interface {
	GetRepository(ctx context.Context, projectID string) (*query.RepositoryView, error)
	GetCommits(ctx context.Context, projectID string, page, limit int) (*query.CommitsPage, error)
	GetIssues(ctx context.Context, projectID string, page, limit int) (*query.IssuesPage, error)
	GetPullRequests(ctx context.Context, projectID string, page, limit int) (*query.PullRequestsPage, error)
}

// ProjectHandler serves the GitHub data of a project
type ProjectHandler struct {
	svc    QueryService
	logger *slog.Logger
}

func NewProjectHandler(svc QueryService, logger *slog.Logger) *ProjectHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectHandler{svc: svc, logger: logger}
}

func (h *ProjectHandler) GetRepository(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetRepository(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ProjectHandler) GetCommits(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pagination(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.svc.GetCommits(r.Context(), chi.URLParam(r, "projectID"), page, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ProjectHandler) GetIssues(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pagination(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.svc.GetIssues(r.Context(), chi.URLParam(r, "projectID"), page, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ProjectHandler) GetPullRequests(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pagination(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.svc.GetPullRequests(r.Context(), chi.URLParam(r, "projectID"), page, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// pagination reads page and limit, applying the defaults when absent.
// Range checks are left to the query service.
func pagination(r *http.Request) (int, int, error) {
	page, err := intParam(r, "page", query.DefaultPage)
	if err != nil {
		return 0, 0, err
	}
	limit, err := intParam(r, "limit", query.DefaultLimit)
	if err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, name+" must be an integer")
	}
	return n, nil
}
