// Package rules contains the pure evaluation logic for automation rules:
// condition matching against campaign snapshots and the rule lifecycle
// state machine. Nothing in this package performs I/O.
package rules

import (
	"time"

	"github.com/ignite/campaign-sentinel/internal/domain"
)

// fieldAccessors maps every supported condition field to its snapshot
// accessor. A field without an entry here is a non-match, never an error;
// domain.AutomationRule.Validate rejects unknown fields at creation time.
var fieldAccessors = map[domain.ConditionField]func(*domain.CampaignSnapshot, time.Time) float64{
	domain.FieldSpend:         func(s *domain.CampaignSnapshot, _ time.Time) float64 { return s.Spend },
	domain.FieldPurchases:     func(s *domain.CampaignSnapshot, _ time.Time) float64 { return float64(s.Purchases) },
	domain.FieldCPA:           func(s *domain.CampaignSnapshot, _ time.Time) float64 { return s.CPA },
	domain.FieldCreativeScore: func(s *domain.CampaignSnapshot, _ time.Time) float64 { return s.CreativeScore },
	domain.FieldImpressions:   func(s *domain.CampaignSnapshot, _ time.Time) float64 { return float64(s.Impressions) },
	domain.FieldMinutesSinceFirstSpend: func(s *domain.CampaignSnapshot, now time.Time) float64 {
		return s.MinutesSinceFirstSpend(now)
	},
}

// Evaluator matches rules against campaign snapshots. It is a pure value;
// the zero multiplier is replaced by the conventional 1.5.
type Evaluator struct {
	// InefficiencyMultiplier scales the best CPA for the cross-campaign
	// inefficiency rule.
	InefficiencyMultiplier float64
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewEvaluator creates an evaluator with the given CPA multiplier.
func NewEvaluator(multiplier float64) *Evaluator {
	if multiplier <= 0 {
		multiplier = 1.5
	}
	return &Evaluator{InefficiencyMultiplier: multiplier, Now: time.Now}
}

// Matches reports whether the rule matches the snapshot. Standard rules
// require every condition to hold (logical AND). Dynamic rules are
// evaluated across the whole snapshot batch.
func (e *Evaluator) Matches(rule *domain.AutomationRule, snap *domain.CampaignSnapshot, all []domain.CampaignSnapshot) bool {
	if rule.Dynamic {
		return e.matchesInefficiency(snap, all)
	}

	now := e.now()
	for _, cond := range rule.Conditions {
		accessor, ok := fieldAccessors[cond.Field]
		if !ok {
			// Missing field is a non-match, never an error.
			return false
		}
		if !compare(accessor(snap, now), cond.Operator, cond.Value) {
			return false
		}
	}
	return len(rule.Conditions) > 0
}

// matchesInefficiency implements the cross-campaign "platform inefficiency"
// rule: find the best CPA among snapshots with purchases and a positive CPA;
// a campaign matches when its CPA exceeds multiplier × best and it has
// purchases. No qualifying snapshots means no match.
func (e *Evaluator) matchesInefficiency(snap *domain.CampaignSnapshot, all []domain.CampaignSnapshot) bool {
	best := 0.0
	for i := range all {
		c := &all[i]
		if c.Purchases > 0 && c.CPA > 0 {
			if best == 0 || c.CPA < best {
				best = c.CPA
			}
		}
	}
	if best == 0 {
		return false
	}
	return snap.Purchases > 0 && snap.CPA > e.InefficiencyMultiplier*best
}

func (e *Evaluator) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// compare applies an operator with standard IEEE754 semantics. == is exact;
// callers should not rely on it for computed floats.
func compare(actual float64, op domain.Operator, expected float64) bool {
	switch op {
	case domain.OpGT:
		return actual > expected
	case domain.OpLT:
		return actual < expected
	case domain.OpEQ:
		return actual == expected
	case domain.OpGTE:
		return actual >= expected
	case domain.OpLTE:
		return actual <= expected
	}
	return false
}
