package automation

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignite/campaign-sentinel/internal/domain"
)

// RuleSource provides the active rules for a project, ordered by creation
// time so earlier rules get first claim on a campaign.
type RuleSource interface {
	ListActive(ctx context.Context, projectID string) ([]domain.AutomationRule, error)

	// ReleaseExpiredCooldowns returns rules whose rest period has elapsed
	// to the active state. The runner calls it before loading the active
	// set, so a rested rule rejoins the run that released it.
	ReleaseExpiredCooldowns(ctx context.Context, projectID string) (int, error)
}

// RuleStateSink persists engine-owned rule lifecycle transitions: a rule is
// parked in cooldown after it fires with its own rest period configured, and
// in error when its action cannot be dispatched.
type RuleStateSink interface {
	UpdateState(ctx context.Context, projectID string, id uuid.UUID, state domain.RuleState) error
}

// SnapshotSource provides the campaign metric snapshots for a project.
type SnapshotSource interface {
	Snapshots(ctx context.Context, projectID string) ([]domain.CampaignSnapshot, error)
}

// LogSink receives the audit record for every rule evaluation.
type LogSink interface {
	Append(ctx context.Context, entry *domain.AutomationLog) error
}

// ActionDispatcher executes a committed action against the ad platform.
// Dispatch runs only after the ledger commit succeeds; a dispatch failure is
// recorded on the log entry but the committed counters are not rolled back.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, action domain.RuleAction, snap *domain.CampaignSnapshot) error
}
