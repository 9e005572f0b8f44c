// Package launch runs the staged campaign-launch pipeline. Each request is
// identified by a caller-supplied idempotency key and processed at most once:
// replays return the stored run verbatim without re-running any stage.
//
// The pipeline per (platform, account) target is permission, compliance,
// translation, decision. Targets are isolated from each other: a panic or
// failure in one item never aborts the batch.
package launch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/campaign-sentinel/internal/config"
	"github.com/ignite/campaign-sentinel/internal/domain"
)

// Orchestrator drives launch requests through the pipeline.
type Orchestrator struct {
	repo        RunRepository
	guard       ComplianceChecker
	translator  Translator
	permissions PermissionChecker
	decider     Decider
	cfg         config.LaunchConfig

	now func() time.Time
}

// NewOrchestrator wires the pipeline. decider may be nil, in which case every
// translated item is approved and only the risk threshold decides.
func NewOrchestrator(repo RunRepository, guard ComplianceChecker, translator Translator, permissions PermissionChecker, decider Decider, cfg config.LaunchConfig) *Orchestrator {
	return &Orchestrator{
		repo:        repo,
		guard:       guard,
		translator:  translator,
		permissions: permissions,
		decider:     decider,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Execute processes one launch request and returns the persisted run.
//
// The idempotency contract: the first request for a project's key runs the
// pipeline and stores the result; every later request from that project for
// the same key, including racing concurrent ones, returns that stored run
// unchanged. Keys are scoped per project, never shared across tenants.
func (o *Orchestrator) Execute(ctx context.Context, req *domain.LaunchRequest) (*domain.LaunchRun, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
	}

	existing, err := o.repo.GetByIdempotencyKey(ctx, req.ProjectID, req.IdempotencyKey)
	if err == nil {
		log.Printf("[LaunchOrchestrator] Replay for project=%s key=%s, returning stored run %s", req.ProjectID, req.IdempotencyKey, existing.ID)
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}

	if req.ExecutionStatus == domain.ExecutionBlocked {
		return nil, ErrExecutionBlocked
	}

	var items []domain.LaunchRunItem
	for _, target := range req.Targets {
		for _, accountID := range target.AccountIDs {
			items = append(items, o.processItem(ctx, req, target.Platform, accountID))
		}
	}

	run := &domain.LaunchRun{
		ID:             uuid.New(),
		IdempotencyKey: req.IdempotencyKey,
		ProjectID:      req.ProjectID,
		RiskScore:      req.RiskScore,
		Items:          items,
		Summary:        tally(items),
		CreatedAt:      o.now().UTC(),
	}

	stored, created, err := o.repo.Insert(ctx, run)
	if err != nil {
		return nil, fmt.Errorf("persist launch run: %w", err)
	}
	if !created {
		// A racing request with the same key won the insert; its run is the
		// canonical one.
		log.Printf("[LaunchOrchestrator] Lost insert race for key=%s, returning stored run %s", req.IdempotencyKey, stored.ID)
		return stored, nil
	}

	log.Printf("[LaunchOrchestrator] Run %s complete: %d items (%d success, %d blocked, %d skipped, %d failed)",
		run.ID, run.Summary.Total, run.Summary.Success, run.Summary.Blocked, run.Summary.Skipped, run.Summary.Failed)
	return stored, nil
}

// processItem runs the per-target stages. Panics are contained here so one
// bad target cannot take down the batch.
func (o *Orchestrator) processItem(ctx context.Context, req *domain.LaunchRequest, platform, accountID string) (item domain.LaunchRunItem) {
	item = domain.LaunchRunItem{
		Platform:  platform,
		AccountID: accountID,
		Status:    domain.ItemPending,
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[LaunchOrchestrator] Panic processing %s/%s: %v", platform, accountID, r)
			item.Status = domain.ItemFailedValidation
			item.Error = fmt.Sprintf("internal error: %v", r)
		}
	}()

	allowed, err := o.permissions.CanLaunch(ctx, req.ProjectID, platform, accountID)
	if err != nil {
		log.Printf("[LaunchOrchestrator] Permission lookup failed for %s/%s: %v", platform, accountID, err)
		allowed = false
	}
	if !allowed {
		item.Status = domain.ItemSkippedNoPermission
		return item
	}

	compliance := o.guard.Check(ctx, req.ProjectID, platform, req.Intent.Locale, req.Intent.Content)
	if !compliance.Passed {
		item.Status = domain.ItemBlockedCompliance
		item.Error = fmt.Sprintf("compliance %s (risk %d)", compliance.Status, compliance.RiskScore)
		return item
	}

	payload, err := o.translator.Translate(req.Intent, platform, accountID)
	if err != nil {
		item.Status = domain.ItemFailedValidation
		item.Error = err.Error()
		return item
	}
	item.Status = domain.ItemTranslated
	item.Payload = payload

	if o.decider != nil {
		if ok, reason := o.decider.Approve(ctx, req, platform, accountID); !ok {
			item.Status = domain.ItemDecidedBlock
			item.Decision = reason
			return item
		}
	}
	if req.RiskScore > o.cfg.RiskThreshold {
		item.Status = domain.ItemDecidedSoft
		item.Decision = "high risk score, soft launch with reduced scope"
		return item
	}

	item.Status = domain.ItemDecidedFull
	return item
}

func tally(items []domain.LaunchRunItem) domain.LaunchSummary {
	s := domain.LaunchSummary{Total: len(items)}
	for _, it := range items {
		switch it.Status {
		case domain.ItemDecidedFull, domain.ItemDecidedSoft:
			s.Success++
		case domain.ItemDecidedBlock, domain.ItemBlockedCompliance:
			s.Blocked++
		case domain.ItemSkippedNoPermission:
			s.Skipped++
		case domain.ItemFailedValidation:
			s.Failed++
		}
	}
	return s
}
