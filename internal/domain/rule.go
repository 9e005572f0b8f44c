package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RuleState enumerates the lifecycle states of an automation rule.
// Transitions are engine-owned; external callers request operations and the
// state machine in internal/rules decides whether they are allowed.
type RuleState string

const (
	RuleDisabled RuleState = "disabled"
	RuleActive   RuleState = "active"
	RuleCooldown RuleState = "cooldown"
	RuleError    RuleState = "error"
)

// RuleScope identifies the level a rule acts at.
type RuleScope string

const (
	ScopeCampaign RuleScope = "campaign"
	ScopeAdSet    RuleScope = "ad_set"
	ScopeAd       RuleScope = "ad"
)

// ConditionField is the closed set of snapshot metrics a condition may test.
// Every field must have an accessor in internal/rules; Validate rejects
// anything outside this set at rule-creation time.
type ConditionField string

const (
	FieldSpend                 ConditionField = "spend"
	FieldPurchases             ConditionField = "purchases"
	FieldCPA                   ConditionField = "cpa"
	FieldCreativeScore         ConditionField = "creative_score"
	FieldImpressions           ConditionField = "impressions"
	FieldMinutesSinceFirstSpend ConditionField = "minutes_since_first_spend"
)

// Operator is the closed set of comparison operators for conditions.
type Operator string

const (
	OpGT  Operator = ">"
	OpLT  Operator = "<"
	OpEQ  Operator = "=="
	OpGTE Operator = ">="
	OpLTE Operator = "<="
)

// ActionType is the closed set of automated actions a rule may emit.
type ActionType string

const (
	ActionPauseCampaign  ActionType = "PAUSE_CAMPAIGN"
	ActionDecreaseBudget ActionType = "DECREASE_BUDGET"
	ActionIncreaseBudget ActionType = "INCREASE_BUDGET"
	ActionRotateCreative ActionType = "ROTATE_CREATIVE"
)

// RuleCondition is one field/operator/value comparison. All conditions in a
// rule must hold (logical AND) for the rule to match.
type RuleCondition struct {
	Field    ConditionField `json:"field"`
	Operator Operator       `json:"operator"`
	Value    float64        `json:"value"`
}

// RuleAction is the single action a rule emits when it matches.
type RuleAction struct {
	Type  ActionType `json:"type"`
	Value *float64   `json:"value,omitempty"`
}

// AutomationRule is a user-authored automation rule. Conditions and action
// are validated when the rule is created or edited, never at evaluation time.
type AutomationRule struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	ProjectID  string          `json:"project_id" db:"project_id"`
	Name       string          `json:"name" db:"name"`
	Scope      RuleScope       `json:"scope" db:"scope"`
	Conditions []RuleCondition `json:"conditions" db:"conditions"`
	Action     RuleAction      `json:"action" db:"action"`
	Cooldown   time.Duration   `json:"cooldown" db:"cooldown"`
	// Dynamic marks rules that need cross-campaign evaluation (e.g. platform
	// inefficiency) instead of the per-snapshot condition AND.
	Dynamic   bool      `json:"dynamic" db:"dynamic"`
	State     RuleState `json:"state" db:"state"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

var validFields = map[ConditionField]bool{
	FieldSpend: true, FieldPurchases: true, FieldCPA: true,
	FieldCreativeScore: true, FieldImpressions: true, FieldMinutesSinceFirstSpend: true,
}

var validOperators = map[Operator]bool{
	OpGT: true, OpLT: true, OpEQ: true, OpGTE: true, OpLTE: true,
}

var validActions = map[ActionType]bool{
	ActionPauseCampaign: true, ActionDecreaseBudget: true,
	ActionIncreaseBudget: true, ActionRotateCreative: true,
}

var validScopes = map[RuleScope]bool{
	ScopeCampaign: true, ScopeAdSet: true, ScopeAd: true,
}

// Validate checks the rule against the closed condition/action unions.
// Dynamic rules may omit conditions; standard rules need at least one.
func (r *AutomationRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}
	if !validScopes[r.Scope] {
		return fmt.Errorf("unknown scope %q", r.Scope)
	}
	if !r.Dynamic && len(r.Conditions) == 0 {
		return fmt.Errorf("rule needs at least one condition")
	}
	for i, c := range r.Conditions {
		if !validFields[c.Field] {
			return fmt.Errorf("condition %d: unknown field %q", i, c.Field)
		}
		if !validOperators[c.Operator] {
			return fmt.Errorf("condition %d: unknown operator %q", i, c.Operator)
		}
	}
	if !validActions[r.Action.Type] {
		return fmt.Errorf("unknown action type %q", r.Action.Type)
	}
	if r.Cooldown < 0 {
		return fmt.Errorf("cooldown must not be negative")
	}
	return nil
}
