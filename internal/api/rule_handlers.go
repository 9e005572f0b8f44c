package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ignite/campaign-sentinel/internal/domain"
	"github.com/ignite/campaign-sentinel/internal/pkg/httputil"
	"github.com/ignite/campaign-sentinel/internal/repository/postgres"
	"github.com/ignite/campaign-sentinel/internal/rules"
)

func ruleID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "ruleID"))
	if err != nil {
		httputil.BadRequest(w, "invalid rule id")
		return uuid.Nil, false
	}
	return id, true
}

// ListRules returns every rule for the project.
//
//	GET /api/automation/rules
func (h *Handlers) ListRules(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectScope(w, r)
	if !ok {
		return
	}

	ruleSet, err := h.rules.List(r.Context(), projectID)
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(err))
		return
	}
	httputil.OK(w, map[string]any{"rules": ruleSet, "total": len(ruleSet)})
}

// GetRule returns a single rule.
//
//	GET /api/automation/rules/{ruleID}
func (h *Handlers) GetRule(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectScope(w, r)
	if !ok {
		return
	}
	id, ok := ruleID(w, r)
	if !ok {
		return
	}

	rule, err := h.rules.Get(r.Context(), projectID, id)
	if errors.Is(err, postgres.ErrNotFound) {
		httputil.NotFound(w, "rule not found")
		return
	}
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(err))
		return
	}
	httputil.OK(w, rule)
}

// CreateRule validates and stores a new rule. Rules are born disabled; an
// explicit enable call is required before they run.
//
//	POST /api/automation/rules
func (h *Handlers) CreateRule(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectScope(w, r)
	if !ok {
		return
	}

	var rule domain.AutomationRule
	if !httputil.Decode(w, r, &rule) {
		return
	}
	rule.ProjectID = projectID
	rule.State = domain.RuleDisabled

	if err := rule.Validate(); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	if err := h.rules.Create(r.Context(), &rule); err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(err))
		return
	}
	httputil.Created(w, rule)
}

// UpdateRule edits a rule's definition. Allowed only in states that permit
// editing; the lifecycle state itself is untouched.
//
//	PUT /api/automation/rules/{ruleID}
func (h *Handlers) UpdateRule(w http.ResponseWriter, r *http.Request) {
	projectID, ok := projectScope(w, r)
	if !ok {
		return
	}
	id, ok := ruleID(w, r)
	if !ok {
		return
	}

	existing, err := h.rules.Get(r.Context(), projectID, id)
	if errors.Is(err, postgres.ErrNotFound) {
		httputil.NotFound(w, "rule not found")
		return
	}
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(err))
		return
	}

	if !rules.Allowed(existing.State, rules.OpEdit) {
		httputil.Conflict(w, "rule cannot be edited in its current state")
		return
	}

	var update domain.AutomationRule
	if !httputil.Decode(w, r, &update) {
		return
	}
	update.ID = id
	update.ProjectID = projectID
	update.State = existing.State

	if err := update.Validate(); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	if err := h.rules.Update(r.Context(), &update); err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(err))
		return
	}
	httputil.OK(w, update)
}

// DeleteRule removes a rule in a deletable state.
//
//	DELETE /api/automation/rules/{ruleID}
func (h *Handlers) DeleteRule(w http.ResponseWriter, r *http.Request) {
	h.applyRuleOp(w, r, rules.OpDelete)
}

// EnableRule moves a disabled rule to active.
//
//	POST /api/automation/rules/{ruleID}/enable
func (h *Handlers) EnableRule(w http.ResponseWriter, r *http.Request) {
	h.applyRuleOp(w, r, rules.OpEnable)
}

// DisableRule moves a rule to disabled from any state that allows it.
//
//	POST /api/automation/rules/{ruleID}/disable
func (h *Handlers) DisableRule(w http.ResponseWriter, r *http.Request) {
	h.applyRuleOp(w, r, rules.OpDisable)
}

// ResetRuleCooldown returns a cooling-down rule to active.
//
//	POST /api/automation/rules/{ruleID}/reset-cooldown
func (h *Handlers) ResetRuleCooldown(w http.ResponseWriter, r *http.Request) {
	h.applyRuleOp(w, r, rules.OpResetCooldown)
}

// applyRuleOp runs one lifecycle operation through the state machine.
func (h *Handlers) applyRuleOp(w http.ResponseWriter, r *http.Request, op rules.Op) {
	projectID, ok := projectScope(w, r)
	if !ok {
		return
	}
	id, ok := ruleID(w, r)
	if !ok {
		return
	}

	rule, err := h.rules.Get(r.Context(), projectID, id)
	if errors.Is(err, postgres.ErrNotFound) {
		httputil.NotFound(w, "rule not found")
		return
	}
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(err))
		return
	}

	next, err := rules.Transition(rule.State, op)
	if errors.Is(err, rules.ErrNotAllowed) {
		httputil.Conflict(w, "operation not allowed in the rule's current state")
		return
	}
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(err))
		return
	}

	if op == rules.OpDelete {
		if err := h.rules.Delete(r.Context(), projectID, id); err != nil {
			respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(err))
			return
		}
		httputil.NoContent(w)
		return
	}

	if err := h.rules.UpdateState(r.Context(), projectID, id, next); err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, safeErrorMessage(err))
		return
	}
	rule.State = next
	httputil.OK(w, rule)
}
