package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/campaign-sentinel/internal/domain"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func ruleRow(id uuid.UUID, state domain.RuleState) *sqlmock.Rows {
	conditions, _ := json.Marshal([]domain.RuleCondition{
		{Field: domain.FieldSpend, Operator: domain.OpGT, Value: 10},
	})
	action, _ := json.Marshal(domain.RuleAction{Type: domain.ActionPauseCampaign})
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "project_id", "name", "scope", "conditions", "action",
		"cooldown_seconds", "dynamic", "state", "created_at", "updated_at",
	}).AddRow(id, "proj-1", "no_sales_burn", "campaign", conditions, action,
		int64(7200), false, string(state), now, now)
}

func TestRuleRepoGet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRuleRepo(db)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM automation_rules`).
		WithArgs(id, "proj-1").
		WillReturnRows(ruleRow(id, domain.RuleActive))

	rule, err := repo.Get(context.Background(), "proj-1", id)
	require.NoError(t, err)
	assert.Equal(t, "no_sales_burn", rule.Name)
	assert.Equal(t, 2*time.Hour, rule.Cooldown)
	assert.Len(t, rule.Conditions, 1)
	assert.Equal(t, domain.ActionPauseCampaign, rule.Action.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleRepoGetNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRuleRepo(db)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM automation_rules`).
		WithArgs(id, "proj-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Get(context.Background(), "proj-1", id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRuleRepoListActive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRuleRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM automation_rules\s+WHERE project_id = \$1 AND state = 'active'`).
		WithArgs("proj-1").
		WillReturnRows(ruleRow(uuid.New(), domain.RuleActive))

	rules, err := repo.ListActive(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Len(t, rules, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleRepoReleaseExpiredCooldowns(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRuleRepo(db)

	mock.ExpectExec(`UPDATE automation_rules\s+SET state = 'active'`).
		WithArgs("proj-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	released, err := repo.ReleaseExpiredCooldowns(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Equal(t, 2, released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleRepoCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRuleRepo(db)

	rule := &domain.AutomationRule{
		ProjectID: "proj-1",
		Name:      "no_sales_burn",
		Scope:     domain.ScopeCampaign,
		Conditions: []domain.RuleCondition{
			{Field: domain.FieldSpend, Operator: domain.OpGT, Value: 10},
		},
		Action:   domain.RuleAction{Type: domain.ActionPauseCampaign},
		Cooldown: 2 * time.Hour,
		State:    domain.RuleDisabled,
	}

	mock.ExpectExec(`INSERT INTO automation_rules`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), rule)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, rule.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleRepoUpdateState(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRuleRepo(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE automation_rules`).
		WithArgs(id, "proj-1", domain.RuleActive).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateState(context.Background(), "proj-1", id, domain.RuleActive)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleRepoDeleteNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRuleRepo(db)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM automation_rules`).
		WithArgs(id, "proj-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "proj-1", id)
	assert.ErrorIs(t, err, ErrNotFound)
}
