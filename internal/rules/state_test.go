package rules

import (
	"errors"
	"testing"

	"github.com/ignite/campaign-sentinel/internal/domain"
)

func TestAllowedTable(t *testing.T) {
	tests := []struct {
		state domain.RuleState
		op    Op
		want  bool
	}{
		{domain.RuleDisabled, OpEnable, true},
		{domain.RuleDisabled, OpEdit, true},
		{domain.RuleDisabled, OpDelete, true},
		{domain.RuleDisabled, OpExecute, false},
		{domain.RuleActive, OpDisable, true},
		{domain.RuleActive, OpEdit, true},
		{domain.RuleActive, OpExecute, true},
		{domain.RuleActive, OpEnable, false},
		{domain.RuleActive, OpDelete, false},
		{domain.RuleCooldown, OpDisable, true},
		{domain.RuleCooldown, OpResetCooldown, true},
		{domain.RuleCooldown, OpEdit, false},
		{domain.RuleCooldown, OpExecute, false},
		{domain.RuleError, OpDisable, true},
		{domain.RuleError, OpEdit, true},
		{domain.RuleError, OpDelete, true},
		{domain.RuleError, OpExecute, false},
	}

	for _, tt := range tests {
		if got := Allowed(tt.state, tt.op); got != tt.want {
			t.Errorf("Allowed(%s, %s) = %v, want %v", tt.state, tt.op, got, tt.want)
		}
	}
}

func TestTransition(t *testing.T) {
	next, err := Transition(domain.RuleDisabled, OpEnable)
	if err != nil || next != domain.RuleActive {
		t.Fatalf("enable: got %s, %v", next, err)
	}

	next, err = Transition(domain.RuleCooldown, OpResetCooldown)
	if err != nil || next != domain.RuleActive {
		t.Fatalf("reset-cooldown: got %s, %v", next, err)
	}

	next, err = Transition(domain.RuleActive, OpDisable)
	if err != nil || next != domain.RuleDisabled {
		t.Fatalf("disable: got %s, %v", next, err)
	}

	// Edit keeps the state
	next, err = Transition(domain.RuleActive, OpEdit)
	if err != nil || next != domain.RuleActive {
		t.Fatalf("edit: got %s, %v", next, err)
	}

	_, err = Transition(domain.RuleCooldown, OpExecute)
	if !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed, got %v", err)
	}
}
