package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/campaign-sentinel/internal/domain"
)

// ComplianceRepo persists non-passing compliance verdicts for audit.
type ComplianceRepo struct{ db *sql.DB }

// NewComplianceRepo creates a Postgres-backed verdict audit store.
func NewComplianceRepo(db *sql.DB) *ComplianceRepo { return &ComplianceRepo{db: db} }

// RecordVerdict appends one verdict with its decision trace.
func (r *ComplianceRepo) RecordVerdict(ctx context.Context, projectID, platform string, content domain.AdContent, result *domain.ComplianceResult) error {
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode verdict content: %w", err)
	}
	issues, err := json.Marshal(result.Issues)
	if err != nil {
		return fmt.Errorf("encode verdict issues: %w", err)
	}
	trace, err := json.Marshal(result.Trace)
	if err != nil {
		return fmt.Errorf("encode verdict trace: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO compliance_verdicts
			(id, project_id, platform, content, status, risk_score, issues, trace, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.New(), projectID, platform, contentJSON, string(result.Status), result.RiskScore, issues, trace, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record compliance verdict: %w", err)
	}
	return nil
}
