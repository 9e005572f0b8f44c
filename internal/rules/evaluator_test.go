package rules

import (
	"testing"
	"time"

	"github.com/ignite/campaign-sentinel/internal/domain"
)

func snap(spend float64, purchases int, cpa float64) domain.CampaignSnapshot {
	return domain.CampaignSnapshot{
		Platform:   "meta",
		AccountID:  "acct-1",
		CampaignID: "camp-1",
		Spend:      spend,
		Purchases:  purchases,
		CPA:        cpa,
	}
}

func TestMatchesStandardRule(t *testing.T) {
	e := NewEvaluator(1.5)

	tests := []struct {
		name       string
		conditions []domain.RuleCondition
		snapshot   domain.CampaignSnapshot
		want       bool
	}{
		{
			name: "no_sales_burn matches",
			conditions: []domain.RuleCondition{
				{Field: domain.FieldSpend, Operator: domain.OpGT, Value: 10},
				{Field: domain.FieldPurchases, Operator: domain.OpEQ, Value: 0},
			},
			snapshot: snap(15, 0, 0),
			want:     true,
		},
		{
			name: "no_sales_burn fails on spend",
			conditions: []domain.RuleCondition{
				{Field: domain.FieldSpend, Operator: domain.OpGT, Value: 10},
				{Field: domain.FieldPurchases, Operator: domain.OpEQ, Value: 0},
			},
			snapshot: snap(5, 0, 0),
			want:     false,
		},
		{
			name: "AND semantics: one failing condition fails the rule",
			conditions: []domain.RuleCondition{
				{Field: domain.FieldSpend, Operator: domain.OpGT, Value: 10},
				{Field: domain.FieldPurchases, Operator: domain.OpEQ, Value: 0},
			},
			snapshot: snap(15, 2, 7.5),
			want:     false,
		},
		{
			name: "gte and lte operators",
			conditions: []domain.RuleCondition{
				{Field: domain.FieldSpend, Operator: domain.OpGTE, Value: 15},
				{Field: domain.FieldCPA, Operator: domain.OpLTE, Value: 8},
			},
			snapshot: snap(15, 2, 8),
			want:     true,
		},
		{
			name: "unknown field is a non-match, not an error",
			conditions: []domain.RuleCondition{
				{Field: domain.ConditionField("roas"), Operator: domain.OpGT, Value: 1},
			},
			snapshot: snap(100, 10, 10),
			want:     false,
		},
		{
			name:       "no conditions never matches",
			conditions: nil,
			snapshot:   snap(100, 10, 10),
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := &domain.AutomationRule{Conditions: tt.conditions}
			got := e.Matches(rule, &tt.snapshot, nil)
			if got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchesMinutesSinceFirstSpend(t *testing.T) {
	e := NewEvaluator(1.5)
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	e.Now = func() time.Time { return now }

	first := now.Add(-90 * time.Minute)
	s := snap(20, 1, 20)
	s.FirstSpendAt = &first

	rule := &domain.AutomationRule{Conditions: []domain.RuleCondition{
		{Field: domain.FieldMinutesSinceFirstSpend, Operator: domain.OpGTE, Value: 60},
	}}
	if !e.Matches(rule, &s, nil) {
		t.Error("expected match after 90 minutes")
	}

	// Campaign that never spent reads as 0 minutes
	s.FirstSpendAt = nil
	if e.Matches(rule, &s, nil) {
		t.Error("campaign without first spend should not match")
	}
}

func TestMatchesInefficiency(t *testing.T) {
	e := NewEvaluator(1.5)
	rule := &domain.AutomationRule{Dynamic: true}

	batch := []domain.CampaignSnapshot{
		snap(100, 10, 10), // best CPA = 10
		snap(100, 5, 20),
		snap(50, 0, 0), // no purchases, excluded from best
	}

	// CPA 20 > 1.5 * 10 → match
	target := snap(100, 5, 20)
	if !e.Matches(rule, &target, batch) {
		t.Error("expected inefficiency match at CPA 20 vs best 10")
	}

	// CPA 12 <= 15 → no match
	target = snap(100, 5, 12)
	if e.Matches(rule, &target, batch) {
		t.Error("CPA 12 should not match against best 10")
	}

	// No purchases → never matches even with a high CPA
	target = snap(100, 0, 50)
	if e.Matches(rule, &target, batch) {
		t.Error("campaign without purchases should not match")
	}

	// No qualifying snapshots → no match
	empty := []domain.CampaignSnapshot{snap(50, 0, 0)}
	target = snap(100, 5, 100)
	if e.Matches(rule, &target, empty) {
		t.Error("no best CPA means no match")
	}
}

func TestCustomMultiplier(t *testing.T) {
	e := NewEvaluator(3.0)
	rule := &domain.AutomationRule{Dynamic: true}
	batch := []domain.CampaignSnapshot{snap(100, 10, 10)}

	target := snap(100, 5, 20)
	if e.Matches(rule, &target, batch) {
		t.Error("CPA 20 should not exceed 3.0 * 10")
	}
	target = snap(100, 5, 31)
	if !e.Matches(rule, &target, batch) {
		t.Error("CPA 31 should exceed 3.0 * 10")
	}
}
