// Package ledger tracks automated-action counters and cooldown state.
//
// The ledger is one of the two pieces of mutable shared state in the engine
// (the other is the lock table). Every mutation is expressed as a single
// atomic server-side operation — never a read-then-write from the caller —
// so two evaluations racing on the same key cannot both succeed.
//
// Cooldown keys are per-action-type rather than per-rule: a recreated rule
// would otherwise bypass the cooldown of the rule it replaces.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/campaign-sentinel/internal/domain"
)

// CooldownKey identifies a cooldown entry for one action on one target.
type CooldownKey struct {
	ActionType domain.ActionType
	Platform   string
	AccountID  string
	CampaignID string
}

func (k CooldownKey) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", k.ActionType, k.Platform, k.AccountID, k.CampaignID)
}

// CommitStatus is the outcome of an atomic action commit.
type CommitStatus int

const (
	CommitOK CommitStatus = iota
	// CommitDailyLimit means the campaign's same-day ceiling was already
	// reached when the commit ran.
	CommitDailyLimit
	// CommitCooldownActive means the cooldown was armed by a racing caller
	// between the guard check and the commit.
	CommitCooldownActive
)

// Ledger is the injected interface for counters and cooldowns. Callers must
// treat any error as the restrictive outcome (fail closed).
type Ledger interface {
	// CampaignActionCount returns the campaign's same-day action count.
	CampaignActionCount(ctx context.Context, platform, accountID, campaignID string) (int, error)

	// IncrementGlobalAction atomically increments the project-wide daily
	// counter, refusing once limit is reached. Returns false when the
	// project's daily budget is exhausted.
	IncrementGlobalAction(ctx context.Context, projectID string, limit int) (bool, error)

	// InCooldown reports whether the action is still cooling down for the
	// target. The cooldown timestamp lives server-side; callers never
	// derive it from wall-clock math.
	InCooldown(ctx context.Context, key CooldownKey) (bool, error)

	// CommitAction atomically increments the campaign's daily counter and
	// arms the cooldown for the key. If either part cannot apply, nothing
	// is committed and the action must not execute.
	CommitAction(ctx context.Context, key CooldownKey, campaignLimit int, cooldown time.Duration) (CommitStatus, error)
}
