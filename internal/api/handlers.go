package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/ignite/campaign-sentinel/internal/auth"
	"github.com/ignite/campaign-sentinel/internal/automation"
	"github.com/ignite/campaign-sentinel/internal/domain"
	"github.com/ignite/campaign-sentinel/internal/pkg/httputil"
	"github.com/ignite/campaign-sentinel/internal/repository/postgres"
)

// Middleware wraps an http.Handler; the auth package's Require satisfies it.
type Middleware func(http.Handler) http.Handler

// AutomationRunner triggers one automation run for a project.
type AutomationRunner interface {
	Run(ctx context.Context, projectID string) (*automation.RunResult, error)
}

// LaunchExecutor drives a launch request through the orchestrator.
type LaunchExecutor interface {
	Execute(ctx context.Context, req *domain.LaunchRequest) (*domain.LaunchRun, error)
}

// RuleStore is the rule persistence surface the handlers need.
type RuleStore interface {
	Get(ctx context.Context, projectID string, id uuid.UUID) (*domain.AutomationRule, error)
	List(ctx context.Context, projectID string) ([]domain.AutomationRule, error)
	Create(ctx context.Context, rule *domain.AutomationRule) error
	Update(ctx context.Context, rule *domain.AutomationRule) error
	UpdateState(ctx context.Context, projectID string, id uuid.UUID, state domain.RuleState) error
	Delete(ctx context.Context, projectID string, id uuid.UUID) error
}

// LogStore reads the automation audit trail.
type LogStore interface {
	List(ctx context.Context, projectID string, f postgres.LogFilter) ([]domain.AutomationLog, int, error)
}

// LaunchStore reads stored launch runs. Lookups are scoped to the caller's
// project.
type LaunchStore interface {
	GetByIdempotencyKey(ctx context.Context, projectID, key string) (*domain.LaunchRun, error)
}

// Handlers bundles the HTTP handlers and their dependencies.
type Handlers struct {
	runner   AutomationRunner
	launcher LaunchExecutor
	rules    RuleStore
	logs     LogStore
	launches LaunchStore
	health   *HealthChecker
}

// NewHandlers wires the handler set.
func NewHandlers(runner AutomationRunner, launcher LaunchExecutor, rules RuleStore, logs LogStore, launches LaunchStore, health *HealthChecker) *Handlers {
	return &Handlers{
		runner:   runner,
		launcher: launcher,
		rules:    rules,
		logs:     logs,
		launches: launches,
		health:   health,
	}
}

// projectScope resolves the caller's project. The auth middleware injects it
// for token-authenticated requests; with auth disabled the project_id query
// parameter is accepted instead.
func projectScope(w http.ResponseWriter, r *http.Request) (string, bool) {
	if id := auth.ProjectID(r.Context()); id != "" {
		return id, true
	}
	if id := r.URL.Query().Get("project_id"); id != "" {
		return id, true
	}
	httputil.BadRequest(w, "project scope is required")
	return "", false
}
