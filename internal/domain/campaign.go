package domain

import "time"

// CampaignState enumerates the lifecycle states of a tracked campaign as
// reported by metrics ingestion. The engine never mutates campaign state; it
// only reads it to decide whether automation may touch the campaign.
type CampaignState string

const (
	CampaignActive      CampaignState = "active"
	CampaignLearning    CampaignState = "learning"
	CampaignRecovery    CampaignState = "recovery"
	CampaignStopped     CampaignState = "stopped"
	CampaignDisapproved CampaignState = "disapproved"
)

// Blocked returns true if automation must not act on a campaign in this state.
func (s CampaignState) Blocked() bool {
	switch s {
	case CampaignRecovery, CampaignStopped, CampaignDisapproved:
		return true
	}
	return false
}

// CampaignSnapshot is a point-in-time read of a campaign's metrics, produced
// externally by metrics ingestion. The engine consumes it read-only.
type CampaignSnapshot struct {
	ProjectID     string        `json:"project_id" db:"project_id"`
	Platform      string        `json:"platform" db:"platform"`
	AccountID     string        `json:"account_id" db:"account_id"`
	CampaignID    string        `json:"campaign_id" db:"campaign_id"`
	Spend         float64       `json:"spend" db:"spend"`
	Purchases     int           `json:"purchases" db:"purchases"`
	CPA           float64       `json:"cpa" db:"cpa"`
	CreativeID    string        `json:"creative_id" db:"creative_id"`
	CreativeScore float64       `json:"creative_score" db:"creative_score"`
	Impressions   int64         `json:"impressions" db:"impressions"`
	FirstSpendAt  *time.Time    `json:"first_spend_at" db:"first_spend_at"`
	UserPaused    bool          `json:"user_paused" db:"user_paused"`
	State         CampaignState `json:"state" db:"state"`
	CapturedAt    time.Time     `json:"captured_at" db:"captured_at"`
}

// MinutesSinceFirstSpend returns elapsed minutes since the campaign first
// spent, relative to now. Returns 0 if the campaign has never spent.
func (s *CampaignSnapshot) MinutesSinceFirstSpend(now time.Time) float64 {
	if s.FirstSpendAt == nil || s.FirstSpendAt.IsZero() {
		return 0
	}
	m := now.Sub(*s.FirstSpendAt).Minutes()
	if m < 0 {
		return 0
	}
	return m
}
