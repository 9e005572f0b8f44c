package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus is the global gate on a launch request. A blocked request
// fails before any target is touched.
type ExecutionStatus string

const (
	ExecutionReady   ExecutionStatus = "ready"
	ExecutionBlocked ExecutionStatus = "blocked"
)

// ItemStatus is the fixed state set for a LaunchRunItem.
type ItemStatus string

const (
	ItemPending            ItemStatus = "PENDING"
	ItemSkippedNoPermission ItemStatus = "SKIPPED_NO_PERMISSION"
	ItemBlockedCompliance  ItemStatus = "BLOCKED_COMPLIANCE"
	ItemFailedValidation   ItemStatus = "FAILED_VALIDATION"
	ItemTranslated         ItemStatus = "TRANSLATED"
	ItemDecidedBlock       ItemStatus = "DECIDED_BLOCK"
	ItemDecidedSoft        ItemStatus = "DECIDED_SOFT"
	ItemDecidedFull        ItemStatus = "DECIDED_FULL"
)

// Terminal reports whether the status ends the pipeline for an item.
func (s ItemStatus) Terminal() bool {
	switch s {
	case ItemSkippedNoPermission, ItemBlockedCompliance, ItemFailedValidation,
		ItemDecidedBlock, ItemDecidedSoft, ItemDecidedFull:
		return true
	}
	return false
}

// AdContent is the structured content payload submitted to compliance checks
// and translated into platform payloads.
type AdContent struct {
	Headline    string `json:"headline"`
	Body        string `json:"body"`
	Description string `json:"description"`
}

// CampaignIntent is the platform-agnostic description of the campaign a
// launch request wants to create.
type CampaignIntent struct {
	Name        string    `json:"name"`
	Objective   string    `json:"objective"`
	DailyBudget float64   `json:"daily_budget"`
	Content     AdContent `json:"content"`
	LandingURL  string    `json:"landing_url"`
	Locale      string    `json:"locale"`
}

// LaunchTarget names a platform and the ad accounts to launch into.
type LaunchTarget struct {
	Platform   string   `json:"platform"`
	AccountIDs []string `json:"account_ids"`
}

// LaunchRequest is a caller-submitted request to launch a campaign across
// one or more (platform, account) targets. The idempotency key guarantees
// side effects occur at most once across retries.
type LaunchRequest struct {
	IdempotencyKey  string          `json:"idempotency_key"`
	ProjectID       string          `json:"project_id"`
	Intent          CampaignIntent  `json:"intent"`
	ExecutionStatus ExecutionStatus `json:"execution_status"`
	RiskScore       int             `json:"risk_score"`
	Targets         []LaunchTarget  `json:"targets"`
}

// Validate checks the structural requirements of a launch request.
func (r *LaunchRequest) Validate() error {
	if r.IdempotencyKey == "" {
		return fmt.Errorf("idempotency_key is required")
	}
	if r.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}
	if len(r.Targets) == 0 {
		return fmt.Errorf("at least one target is required")
	}
	for i, t := range r.Targets {
		if t.Platform == "" {
			return fmt.Errorf("target %d: platform is required", i)
		}
		if len(t.AccountIDs) == 0 {
			return fmt.Errorf("target %d: at least one account is required", i)
		}
	}
	return nil
}

// LaunchRunItem is the outcome for one (platform, account) pair.
type LaunchRunItem struct {
	Platform string     `json:"platform"`
	AccountID string    `json:"account_id"`
	Status   ItemStatus `json:"status"`
	// Payload is the translated platform campaign payload, present once the
	// item reaches TRANSLATED or later.
	Payload  json.RawMessage `json:"payload,omitempty"`
	Decision string          `json:"decision,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// LaunchSummary tallies item outcomes for a run.
type LaunchSummary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Blocked int `json:"blocked"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// LaunchRun is the persisted, replayable record of processing one launch
// request. Runs are stored keyed by idempotency key; re-submission returns
// the stored run unchanged.
type LaunchRun struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	IdempotencyKey string          `json:"idempotency_key" db:"idempotency_key"`
	ProjectID      string          `json:"project_id" db:"project_id"`
	RiskScore      int             `json:"risk_score" db:"risk_score"`
	Items          []LaunchRunItem `json:"items" db:"items"`
	Summary        LaunchSummary   `json:"summary" db:"summary"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
