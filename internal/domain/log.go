package domain

import (
	"time"

	"github.com/google/uuid"
)

// SkipReason enumerates why a rule evaluation did not execute an action.
// These are expected, non-error outcomes; each one still produces exactly
// one AutomationLog entry.
type SkipReason string

const (
	SkipKillSwitch          SkipReason = "KILL_SWITCH_ACTIVE"
	SkipInsufficientData    SkipReason = "INSUFFICIENT_DATA"
	SkipUserPaused          SkipReason = "USER_PAUSED"
	SkipRecoveryState       SkipReason = "RECOVERY_STATE"
	SkipCampaignStopped     SkipReason = "CAMPAIGN_STOPPED"
	SkipCampaignDisapproved SkipReason = "CAMPAIGN_DISAPPROVED"
	SkipDailyLimit          SkipReason = "DAILY_LIMIT_EXCEEDED"
	SkipGlobalLimit         SkipReason = "GLOBAL_LIMIT_EXCEEDED"
	SkipCooldownActive      SkipReason = "COOLDOWN_ACTIVE"
	SkipCooldownCheckFailed SkipReason = "COOLDOWN_CHECK_FAILED"
	SkipNoMatch             SkipReason = "NO_MATCH"
	SkipAlreadyActioned     SkipReason = "ALREADY_ACTIONED"
	SkipCommitFailed        SkipReason = "COMMIT_FAILED"
)

// AutomationLog is the immutable audit record for one rule evaluation
// against one campaign: matched, skipped, or failed. It is the sole
// artifact queryable by downstream consumers.
type AutomationLog struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	ProjectID  string     `json:"project_id" db:"project_id"`
	RuleID     uuid.UUID  `json:"rule_id" db:"rule_id"`
	RuleName   string     `json:"rule_name" db:"rule_name"`
	Platform   string     `json:"platform" db:"platform"`
	AccountID  string     `json:"account_id" db:"account_id"`
	CampaignID string     `json:"campaign_id" db:"campaign_id"`
	Action     ActionType `json:"action,omitempty" db:"action"`
	// Reason is a sanitized, human-readable explanation. Internal threshold
	// values are stripped before this leaves the engine.
	Reason     string     `json:"reason" db:"reason"`
	Success    bool       `json:"success" db:"success"`
	SkipReason SkipReason `json:"skip_reason,omitempty" db:"skip_reason"`
	Error      string     `json:"error,omitempty" db:"error"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}
