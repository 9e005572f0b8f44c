package rules

import (
	"errors"
	"fmt"

	"github.com/ignite/campaign-sentinel/internal/domain"
)

// Op is an externally requested operation on a rule.
type Op string

const (
	OpEnable        Op = "enable"
	OpDisable       Op = "disable"
	OpEdit          Op = "edit"
	OpDelete        Op = "delete"
	OpExecute       Op = "execute"
	OpResetCooldown Op = "reset-cooldown"
)

// ErrNotAllowed is returned when an operation is not permitted in the
// rule's current state.
var ErrNotAllowed = errors.New("operation not allowed in current rule state")

// allowedOps is the rule lifecycle table. Transitions themselves are
// engine-owned; callers only request operations.
var allowedOps = map[domain.RuleState]map[Op]bool{
	domain.RuleDisabled: {OpEnable: true, OpEdit: true, OpDelete: true},
	domain.RuleActive:   {OpDisable: true, OpEdit: true, OpExecute: true},
	domain.RuleCooldown: {OpDisable: true, OpResetCooldown: true},
	domain.RuleError:    {OpDisable: true, OpEdit: true, OpDelete: true},
}

// Allowed reports whether op is permitted for a rule in the given state.
func Allowed(state domain.RuleState, op Op) bool {
	return allowedOps[state][op]
}

// Transition returns the state a rule moves to when op is applied, or
// ErrNotAllowed. Operations without a state change (edit, execute, delete)
// return the current state.
func Transition(state domain.RuleState, op Op) (domain.RuleState, error) {
	if !Allowed(state, op) {
		return state, fmt.Errorf("%w: %s in %s", ErrNotAllowed, op, state)
	}
	switch op {
	case OpEnable:
		return domain.RuleActive, nil
	case OpDisable:
		return domain.RuleDisabled, nil
	case OpResetCooldown:
		return domain.RuleActive, nil
	}
	return state, nil
}
