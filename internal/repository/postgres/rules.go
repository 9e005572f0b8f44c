// Package postgres holds the relational persistence for rules, audit logs,
// launch runs, campaign snapshots and compliance verdicts.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/campaign-sentinel/internal/domain"
)

// ErrNotFound is returned when a row does not exist (or belongs to another
// project).
var ErrNotFound = errors.New("not found")

// RuleRepo implements rule storage against PostgreSQL. Conditions and the
// action are stored as JSONB; cooldowns as whole seconds.
type RuleRepo struct{ db *sql.DB }

// NewRuleRepo creates a Postgres-backed rule repository.
func NewRuleRepo(db *sql.DB) *RuleRepo { return &RuleRepo{db: db} }

const ruleColumns = `id, project_id, name, scope, conditions, action, cooldown_seconds, dynamic, state, created_at, updated_at`

func scanRule(row interface{ Scan(...any) error }) (*domain.AutomationRule, error) {
	r := &domain.AutomationRule{}
	var conditions, action []byte
	var cooldownSeconds int64
	err := row.Scan(
		&r.ID, &r.ProjectID, &r.Name, &r.Scope, &conditions, &action,
		&cooldownSeconds, &r.Dynamic, &r.State, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(conditions, &r.Conditions); err != nil {
		return nil, fmt.Errorf("decode rule conditions: %w", err)
	}
	if err := json.Unmarshal(action, &r.Action); err != nil {
		return nil, fmt.Errorf("decode rule action: %w", err)
	}
	r.Cooldown = time.Duration(cooldownSeconds) * time.Second
	return r, nil
}

func (r *RuleRepo) Get(ctx context.Context, projectID string, id uuid.UUID) (*domain.AutomationRule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+ruleColumns+`
		FROM automation_rules
		WHERE id = $1 AND project_id = $2
	`, id, projectID)

	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rule: %w", err)
	}
	return rule, nil
}

func (r *RuleRepo) List(ctx context.Context, projectID string) ([]domain.AutomationRule, error) {
	return r.list(ctx, `
		SELECT `+ruleColumns+`
		FROM automation_rules
		WHERE project_id = $1
		ORDER BY created_at
	`, projectID)
}

// ListActive returns the project's ACTIVE rules in creation order; this is
// the set an automation run evaluates.
func (r *RuleRepo) ListActive(ctx context.Context, projectID string) ([]domain.AutomationRule, error) {
	return r.list(ctx, `
		SELECT `+ruleColumns+`
		FROM automation_rules
		WHERE project_id = $1 AND state = 'active'
		ORDER BY created_at
	`, projectID)
}

// ReleaseExpiredCooldowns returns cooldown rules whose rest period has
// elapsed to the active state. The period is measured from the parking
// transition (updated_at).
func (r *RuleRepo) ReleaseExpiredCooldowns(ctx context.Context, projectID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE automation_rules
		SET state = 'active', updated_at = NOW()
		WHERE project_id = $1 AND state = 'cooldown'
		  AND updated_at + make_interval(secs => cooldown_seconds) < NOW()
	`, projectID)
	if err != nil {
		return 0, fmt.Errorf("release rule cooldowns: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *RuleRepo) list(ctx context.Context, query, projectID string) ([]domain.AutomationRule, error) {
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []domain.AutomationRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		out = append(out, *rule)
	}
	return out, rows.Err()
}

func (r *RuleRepo) Create(ctx context.Context, rule *domain.AutomationRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("encode rule conditions: %w", err)
	}
	action, err := json.Marshal(rule.Action)
	if err != nil {
		return fmt.Errorf("encode rule action: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO automation_rules
			(id, project_id, name, scope, conditions, action, cooldown_seconds, dynamic, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`, rule.ID, rule.ProjectID, rule.Name, rule.Scope, conditions, action,
		int64(rule.Cooldown/time.Second), rule.Dynamic, rule.State)
	if err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	return nil
}

func (r *RuleRepo) Update(ctx context.Context, rule *domain.AutomationRule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("encode rule conditions: %w", err)
	}
	action, err := json.Marshal(rule.Action)
	if err != nil {
		return fmt.Errorf("encode rule action: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE automation_rules
		SET name = $3, scope = $4, conditions = $5, action = $6,
		    cooldown_seconds = $7, dynamic = $8, updated_at = NOW()
		WHERE id = $1 AND project_id = $2
	`, rule.ID, rule.ProjectID, rule.Name, rule.Scope, conditions, action,
		int64(rule.Cooldown/time.Second), rule.Dynamic)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	return checkAffected(res)
}

// UpdateState moves a rule to a new lifecycle state. The state machine in
// internal/rules decides whether the transition is legal before this runs.
func (r *RuleRepo) UpdateState(ctx context.Context, projectID string, id uuid.UUID, state domain.RuleState) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE automation_rules
		SET state = $3, updated_at = NOW()
		WHERE id = $1 AND project_id = $2
	`, id, projectID, state)
	if err != nil {
		return fmt.Errorf("update rule state: %w", err)
	}
	return checkAffected(res)
}

func (r *RuleRepo) Delete(ctx context.Context, projectID string, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM automation_rules
		WHERE id = $1 AND project_id = $2
	`, id, projectID)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
