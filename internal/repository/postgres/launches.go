package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ignite/campaign-sentinel/internal/domain"
	"github.com/ignite/campaign-sentinel/internal/launch"
)

// LaunchRepo stores launch runs. (project_id, idempotency_key) carries a
// unique index; racing inserts resolve to exactly one stored run via
// ON CONFLICT DO NOTHING followed by a re-read.
type LaunchRepo struct{ db *sql.DB }

// NewLaunchRepo creates a Postgres-backed launch run repository.
func NewLaunchRepo(db *sql.DB) *LaunchRepo { return &LaunchRepo{db: db} }

func (r *LaunchRepo) GetByIdempotencyKey(ctx context.Context, projectID, key string) (*domain.LaunchRun, error) {
	run := &domain.LaunchRun{}
	var items, summary []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, idempotency_key, project_id, risk_score, items, summary, created_at
		FROM launch_runs
		WHERE project_id = $1 AND idempotency_key = $2
	`, projectID, key).Scan(&run.ID, &run.IdempotencyKey, &run.ProjectID, &run.RiskScore, &items, &summary, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, launch.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get launch run: %w", err)
	}
	if err := json.Unmarshal(items, &run.Items); err != nil {
		return nil, fmt.Errorf("decode launch items: %w", err)
	}
	if err := json.Unmarshal(summary, &run.Summary); err != nil {
		return nil, fmt.Errorf("decode launch summary: %w", err)
	}
	return run, nil
}

// Insert stores the run unless one already exists for the run's project and
// key. The stored run is returned either way; created reports whether this
// call won.
func (r *LaunchRepo) Insert(ctx context.Context, run *domain.LaunchRun) (*domain.LaunchRun, bool, error) {
	items, err := json.Marshal(run.Items)
	if err != nil {
		return nil, false, fmt.Errorf("encode launch items: %w", err)
	}
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return nil, false, fmt.Errorf("encode launch summary: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO launch_runs
			(id, idempotency_key, project_id, risk_score, items, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (project_id, idempotency_key) DO NOTHING
	`, run.ID, run.IdempotencyKey, run.ProjectID, run.RiskScore, items, summary, run.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("insert launch run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if n == 1 {
		return run, true, nil
	}

	// Another request with the same key got there first.
	stored, err := r.GetByIdempotencyKey(ctx, run.ProjectID, run.IdempotencyKey)
	if err != nil {
		return nil, false, fmt.Errorf("re-read after conflict: %w", err)
	}
	return stored, false, nil
}
