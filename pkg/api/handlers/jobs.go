package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/dittoacl/pkg/job"
)

// JobsHandler exposes job records.
type JobsHandler struct {
	store job.Store
}

// NewJobsHandler creates a jobs handler.
func NewJobsHandler(store job.Store) *JobsHandler {
	return &JobsHandler{store: store}
}

// List handles GET /jobs, oldest first.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.store.List(r.Context())
	if err != nil {
		InternalServerError(w, "Failed to list jobs")
		return
	}
	job.SortByStart(jobs)
	if jobs == nil {
		jobs = []*job.Job{}
	}
	WriteJSONOK(w, jobs)
}

// Get handles GET /jobs/{id}.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	j, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			NotFound(w, "Job not found")
			return
		}
		InternalServerError(w, "Failed to get job")
		return
	}
	WriteJSONOK(w, j)
}
