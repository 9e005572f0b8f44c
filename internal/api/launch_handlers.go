package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/campaign-sentinel/internal/domain"
	"github.com/ignite/campaign-sentinel/internal/launch"
	"github.com/ignite/campaign-sentinel/internal/pkg/httputil"
)

// RunLaunch submits a launch request. The idempotency key travels in the
// body; replays return the stored run with 200 instead of re-executing.
//
//	POST /api/launch/run
func (h *Handlers) RunLaunch(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectScope(w, r)
	if !ok {
		return
	}

	var req domain.LaunchRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	req.ProjectID = projectID
	if req.ExecutionStatus == "" {
		req.ExecutionStatus = domain.ExecutionReady
	}

	run, err := h.launcher.Execute(r.Context(), &req)
	switch {
	case errors.Is(err, launch.ErrExecutionBlocked):
		httputil.Conflict(w, "launch request is blocked")
		return
	case errors.Is(err, launch.ErrInvalidRequest):
		httputil.BadRequest(w, err.Error())
		return
	case err != nil:
		respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(err))
		return
	}

	httputil.OK(w, run)
}

// GetLaunchRun returns the stored run for an idempotency key.
//
//	GET /api/launch/runs/{idempotencyKey}
func (h *Handlers) GetLaunchRun(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectScope(w, r)
	if !ok {
		return
	}

	key := chi.URLParam(r, "idempotencyKey")
	run, err := h.launches.GetByIdempotencyKey(r.Context(), projectID, key)
	if errors.Is(err, launch.ErrNotFound) {
		httputil.NotFound(w, "launch run not found")
		return
	}
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(err))
		return
	}

	httputil.OK(w, run)
}
