package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/ignite/campaign-sentinel/internal/automation"
	"github.com/ignite/campaign-sentinel/internal/domain"
	"github.com/ignite/campaign-sentinel/internal/pkg/httputil"
	"github.com/ignite/campaign-sentinel/internal/repository/postgres"
)

// RunAutomation triggers one automation run for the caller's project.
// Debounced requests map to 429, a held run lock to 409.
//
//	POST /api/automation/run
func (h *Handlers) RunAutomation(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectScope(w, r)
	if !ok {
		return
	}

	result, err := h.runner.Run(r.Context(), projectID)
	switch {
	case errors.Is(err, automation.ErrDebounced):
		httputil.TooManyRequests(w, "run request debounced, retry shortly")
		return
	case errors.Is(err, automation.ErrRunInProgress):
		httputil.Conflict(w, "an automation run is already in progress")
		return
	case err != nil:
		respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(err))
		return
	}

	httputil.OK(w, result)
}

// ListLogs returns the automation audit trail for the project, newest first.
// Optional filters: rule_id, campaign_id, skip_reason, success=true,
// limit, offset.
//
//	GET /api/automation/logs
func (h *Handlers) ListLogs(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectScope(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	f := postgres.LogFilter{
		CampaignID: q.Get("campaign_id"),
		SkipReason: domain.SkipReason(q.Get("skip_reason")),
	}
	if v := q.Get("rule_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httputil.BadRequest(w, "invalid rule_id")
			return
		}
		f.RuleID = id
	}
	f.OnlySuccess = q.Get("success") == "true"
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			f.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			f.Offset = n
		}
	}

	entries, total, err := h.logs.List(r.Context(), projectID, f)
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(err))
		return
	}

	httputil.OK(w, map[string]any{
		"logs":   entries,
		"total":  total,
		"limit":  f.Limit,
		"offset": f.Offset,
	})
}
