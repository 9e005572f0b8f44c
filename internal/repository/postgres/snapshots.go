package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/campaign-sentinel/internal/domain"
)

// SnapshotRepo reads campaign metric snapshots. Snapshots are written by
// metrics ingestion; the engine only reads them.
type SnapshotRepo struct{ db *sql.DB }

// NewSnapshotRepo creates a Postgres-backed snapshot reader.
func NewSnapshotRepo(db *sql.DB) *SnapshotRepo { return &SnapshotRepo{db: db} }

// Snapshots returns the latest snapshot per campaign for the project.
func (r *SnapshotRepo) Snapshots(ctx context.Context, projectID string) ([]domain.CampaignSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT ON (platform, account_id, campaign_id)
		       project_id, platform, account_id, campaign_id,
		       spend, purchases, cpa, COALESCE(creative_id,''), creative_score,
		       impressions, first_spend_at, user_paused, state, captured_at
		FROM campaign_snapshots
		WHERE project_id = $1
		ORDER BY platform, account_id, campaign_id, captured_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []domain.CampaignSnapshot
	for rows.Next() {
		var s domain.CampaignSnapshot
		if err := rows.Scan(
			&s.ProjectID, &s.Platform, &s.AccountID, &s.CampaignID,
			&s.Spend, &s.Purchases, &s.CPA, &s.CreativeID, &s.CreativeScore,
			&s.Impressions, &s.FirstSpendAt, &s.UserPaused, &s.State, &s.CapturedAt,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
