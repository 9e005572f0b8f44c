package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/campaign-sentinel/internal/domain"
)

// LogRepo stores the append-only automation audit trail.
type LogRepo struct{ db *sql.DB }

// NewLogRepo creates a Postgres-backed audit log repository.
func NewLogRepo(db *sql.DB) *LogRepo { return &LogRepo{db: db} }

// Append writes one audit entry. Entries are never updated or deleted.
func (r *LogRepo) Append(ctx context.Context, e *domain.AutomationLog) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO automation_logs
			(id, project_id, rule_id, rule_name, platform, account_id, campaign_id,
			 action, reason, success, skip_reason, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, e.ID, e.ProjectID, e.RuleID, e.RuleName, e.Platform, e.AccountID, e.CampaignID,
		string(e.Action), e.Reason, e.Success, string(e.SkipReason), e.Error, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append automation log: %w", err)
	}
	return nil
}

// LogFilter narrows a log listing. Zero values mean "any".
type LogFilter struct {
	RuleID     uuid.UUID
	CampaignID string
	SkipReason domain.SkipReason
	OnlySuccess bool
	Limit      int
	Offset     int
}

// List returns audit entries for a project, newest first, with the total
// count for pagination.
func (r *LogRepo) List(ctx context.Context, projectID string, f LogFilter) ([]domain.AutomationLog, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := "WHERE project_id = $1"
	args := []interface{}{projectID}
	idx := 2

	if f.RuleID != uuid.Nil {
		where += fmt.Sprintf(" AND rule_id = $%d", idx)
		args = append(args, f.RuleID)
		idx++
	}
	if f.CampaignID != "" {
		where += fmt.Sprintf(" AND campaign_id = $%d", idx)
		args = append(args, f.CampaignID)
		idx++
	}
	if f.SkipReason != "" {
		where += fmt.Sprintf(" AND skip_reason = $%d", idx)
		args = append(args, string(f.SkipReason))
		idx++
	}
	if f.OnlySuccess {
		where += " AND success = true"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM automation_logs "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count automation logs: %w", err)
	}

	query := `
		SELECT id, project_id, rule_id, rule_name, platform, account_id, campaign_id,
		       COALESCE(action,''), reason, success, COALESCE(skip_reason,''), COALESCE(error,''), created_at
		FROM automation_logs ` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list automation logs: %w", err)
	}
	defer rows.Close()

	var out []domain.AutomationLog
	for rows.Next() {
		var e domain.AutomationLog
		var action, skipReason string
		if err := rows.Scan(
			&e.ID, &e.ProjectID, &e.RuleID, &e.RuleName, &e.Platform, &e.AccountID, &e.CampaignID,
			&action, &e.Reason, &e.Success, &skipReason, &e.Error, &e.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan automation log: %w", err)
		}
		e.Action = domain.ActionType(action)
		e.SkipReason = domain.SkipReason(skipReason)
		out = append(out, e)
	}
	return out, total, rows.Err()
}
