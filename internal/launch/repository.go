package launch

import (
	"context"

	"github.com/ignite/campaign-sentinel/internal/domain"
)

// RunRepository persists launch runs keyed by (project, idempotency key).
// Keys are scoped per project: the same key under two projects is two
// independent runs, so one tenant can never read another's stored run.
type RunRepository interface {
	// GetByIdempotencyKey returns the project's stored run for the key, or
	// ErrNotFound.
	GetByIdempotencyKey(ctx context.Context, projectID, key string) (*domain.LaunchRun, error)

	// Insert stores the run. If a run already exists for the run's project
	// and idempotency key, the insert is a no-op and the previously stored
	// run is returned with created=false. Racing inserts on the same key
	// must resolve to exactly one stored run.
	Insert(ctx context.Context, run *domain.LaunchRun) (stored *domain.LaunchRun, created bool, err error)
}

// PermissionChecker is the external permission interpreter. A lookup error
// counts as a denial.
type PermissionChecker interface {
	CanLaunch(ctx context.Context, projectID, platform, accountID string) (bool, error)
}

// ComplianceChecker is the compliance guard surface the orchestrator needs.
type ComplianceChecker interface {
	Check(ctx context.Context, projectID, platform, locale string, content domain.AdContent) *domain.ComplianceResult
}

// Decider makes the final go/no-go call for a translated item. The reason is
// recorded on the item when the decider refuses.
type Decider interface {
	Approve(ctx context.Context, req *domain.LaunchRequest, platform, accountID string) (ok bool, reason string)
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(ctx context.Context, req *domain.LaunchRequest, platform, accountID string) (bool, string)

func (f DeciderFunc) Approve(ctx context.Context, req *domain.LaunchRequest, platform, accountID string) (bool, string) {
	return f(ctx, req, platform, accountID)
}
