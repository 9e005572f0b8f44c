// Package automation runs the safety-gated rules engine. Every evaluation of
// a rule against a campaign walks an ordered chain of guards; the first guard
// that fires short-circuits the rest and the evaluation is recorded as a
// skip. Exactly one audit log entry is written per rule-campaign evaluation,
// whether it matched, skipped, or failed.
package automation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/campaign-sentinel/internal/config"
	"github.com/ignite/campaign-sentinel/internal/domain"
	"github.com/ignite/campaign-sentinel/internal/ledger"
	"github.com/ignite/campaign-sentinel/internal/pkg/logger"
	"github.com/ignite/campaign-sentinel/internal/rules"
)

// RunResult summarizes one automation run.
type RunResult struct {
	ProjectID string `json:"project_id"`
	Rules     int    `json:"rules"`
	Campaigns int    `json:"campaigns"`
	Evaluated int    `json:"evaluated"`
	Executed  int    `json:"executed"`
	Skipped   int    `json:"skipped"`
	// Aborted is set when the project-wide daily budget ran out mid-run and
	// the remaining evaluations were not attempted.
	Aborted bool `json:"aborted"`
}

// Engine evaluates rules against snapshots under the safety chain. It holds
// no per-run state; a single Engine serves concurrent runs for different
// projects (per-project serialization is the runner's job).
type Engine struct {
	ledger     ledger.Ledger
	evaluator  *rules.Evaluator
	logs       LogSink
	dispatcher ActionDispatcher
	states     RuleStateSink
	cfg        config.AutomationConfig

	now func() time.Time
}

// NewEngine wires an engine. dispatcher may be nil for dry runs; actions are
// then committed and logged but no platform call is made. states may be nil,
// in which case rule lifecycle transitions are kept in memory for the run
// but not persisted.
func NewEngine(l ledger.Ledger, evaluator *rules.Evaluator, logs LogSink, dispatcher ActionDispatcher, states RuleStateSink, cfg config.AutomationConfig) *Engine {
	return &Engine{
		ledger:     l,
		evaluator:  evaluator,
		logs:       logs,
		dispatcher: dispatcher,
		states:     states,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Run evaluates every (rule, campaign) pair. Campaigns are walked in
// snapshot order; for each campaign every active rule is evaluated in the
// order given, so the audit trail groups by campaign. A campaign that has
// had an action executed this run is immune for the rest of it.
func (e *Engine) Run(ctx context.Context, projectID string, ruleSet []domain.AutomationRule, snaps []domain.CampaignSnapshot) (*RunResult, error) {
	result := &RunResult{
		ProjectID: projectID,
		Rules:     len(ruleSet),
		Campaigns: len(snaps),
	}

	// Campaigns already actioned in this run.
	actioned := make(map[string]bool)

	for si := range snaps {
		snap := &snaps[si]
		for ri := range ruleSet {
			rule := &ruleSet[ri]
			if rule.State != domain.RuleActive {
				// Includes rules parked in cooldown or error earlier in
				// this run.
				continue
			}
			result.Evaluated++

			outcome := e.evaluate(ctx, projectID, rule, snap, snaps, actioned)
			switch outcome {
			case evalExecuted:
				result.Executed++
				actioned[snap.CampaignID] = true
			case evalSkipped:
				result.Skipped++
			case evalAbortRun:
				result.Skipped++
				result.Aborted = true
				log.Printf("[AutomationEngine] Project %s daily budget exhausted, aborting run", projectID)
				return result, nil
			}
		}
	}

	log.Printf("[AutomationEngine] Run complete for %s: %d evaluated, %d executed, %d skipped",
		projectID, result.Evaluated, result.Executed, result.Skipped)
	return result, nil
}

type evalOutcome int

const (
	evalSkipped evalOutcome = iota
	evalExecuted
	evalAbortRun
)

// evaluate walks the safety chain for one rule against one campaign. Each
// guard short-circuits the remainder; every path writes exactly one log.
func (e *Engine) evaluate(ctx context.Context, projectID string, rule *domain.AutomationRule, snap *domain.CampaignSnapshot, all []domain.CampaignSnapshot, actioned map[string]bool) evalOutcome {
	// 1. Kill switch
	if e.cfg.KillSwitch {
		e.logSkip(ctx, projectID, rule, snap, domain.SkipKillSwitch, "automation globally disabled")
		return evalSkipped
	}

	// 2. Data floor: enough observation time or enough volume.
	minutes := snap.MinutesSinceFirstSpend(e.now())
	if minutes < float64(e.cfg.DataFloorMinutes) && snap.Impressions < e.cfg.DataFloorImpressions {
		e.logSkip(ctx, projectID, rule, snap, domain.SkipInsufficientData, "campaign below data floor")
		return evalSkipped
	}

	// 3. Campaign state guard
	if snap.UserPaused {
		e.logSkip(ctx, projectID, rule, snap, domain.SkipUserPaused, "campaign paused by user")
		return evalSkipped
	}
	switch snap.State {
	case domain.CampaignRecovery:
		e.logSkip(ctx, projectID, rule, snap, domain.SkipRecoveryState, "campaign in recovery")
		return evalSkipped
	case domain.CampaignStopped:
		e.logSkip(ctx, projectID, rule, snap, domain.SkipCampaignStopped, "campaign stopped")
		return evalSkipped
	case domain.CampaignDisapproved:
		e.logSkip(ctx, projectID, rule, snap, domain.SkipCampaignDisapproved, "campaign disapproved")
		return evalSkipped
	}

	// 4. Daily per-campaign ceiling. A count lookup failure is treated as
	// the ceiling being reached (fail closed).
	count, err := e.ledger.CampaignActionCount(ctx, snap.Platform, snap.AccountID, snap.CampaignID)
	if err != nil {
		log.Printf("[AutomationEngine] Action count lookup failed for %s: %v", snap.CampaignID, err)
		count = e.cfg.DailyCampaignLimit
	}
	if count >= e.cfg.DailyCampaignLimit {
		e.logSkip(ctx, projectID, rule, snap, domain.SkipDailyLimit, "campaign daily action ceiling reached")
		return evalSkipped
	}

	// 5. Cooldown. Lookup failure fails closed.
	cdKey := ledger.CooldownKey{
		ActionType: rule.Action.Type,
		Platform:   snap.Platform,
		AccountID:  snap.AccountID,
		CampaignID: snap.CampaignID,
	}
	cooling, err := e.ledger.InCooldown(ctx, cdKey)
	if err != nil {
		log.Printf("[AutomationEngine] Cooldown lookup failed for %s: %v", cdKey, err)
		e.logSkip(ctx, projectID, rule, snap, domain.SkipCooldownCheckFailed, "cooldown state unavailable, treated as cooling")
		return evalSkipped
	}
	if cooling {
		e.logSkip(ctx, projectID, rule, snap, domain.SkipCooldownActive, "action still cooling down for this campaign")
		return evalSkipped
	}

	// 6. Condition match
	if !e.evaluator.Matches(rule, snap, all) {
		e.logSkip(ctx, projectID, rule, snap, domain.SkipNoMatch, "conditions not met")
		return evalSkipped
	}

	// 7. At most one action per campaign per run.
	if actioned[snap.CampaignID] {
		e.logSkip(ctx, projectID, rule, snap, domain.SkipAlreadyActioned, "campaign already actioned this run")
		return evalSkipped
	}

	// 8. Project-wide daily budget. Refusal or error aborts the whole run.
	ok, err := e.ledger.IncrementGlobalAction(ctx, projectID, e.cfg.DailyGlobalLimit)
	if err != nil {
		log.Printf("[AutomationEngine] Global counter failed for %s: %v", projectID, err)
		ok = false
	}
	if !ok {
		e.logSkip(ctx, projectID, rule, snap, domain.SkipGlobalLimit, "project daily action budget exhausted")
		return evalAbortRun
	}

	// Atomic commit: campaign counter + cooldown together. Only a CommitOK
	// permits the external side effect.
	cooldown := rule.Cooldown
	if cooldown <= 0 {
		cooldown = e.cfg.CooldownFor(string(rule.Action.Type))
	}
	status, err := e.ledger.CommitAction(ctx, cdKey, e.cfg.DailyCampaignLimit, cooldown)
	if err != nil {
		log.Printf("[AutomationEngine] Commit failed for %s/%s: %v", rule.Name, snap.CampaignID, err)
		e.logSkip(ctx, projectID, rule, snap, domain.SkipCommitFailed, "action commit failed")
		return evalSkipped
	}
	switch status {
	case ledger.CommitDailyLimit:
		e.logSkip(ctx, projectID, rule, snap, domain.SkipDailyLimit, "campaign daily action ceiling reached")
		return evalSkipped
	case ledger.CommitCooldownActive:
		e.logSkip(ctx, projectID, rule, snap, domain.SkipCooldownActive, "cooldown armed by a concurrent run")
		return evalSkipped
	}

	entry := e.newLog(projectID, rule, snap)
	entry.Action = rule.Action.Type
	entry.Success = true
	entry.Reason = logger.SanitizeReason(fmt.Sprintf("rule %q matched, executing %s", rule.Name, rule.Action.Type))

	if e.dispatcher != nil {
		if err := e.dispatcher.Dispatch(ctx, rule.Action, snap); err != nil {
			// Counters are already burned; the action is recorded as failed
			// and the cooldown stands so we do not retry-storm the platform.
			log.Printf("[AutomationEngine] Dispatch failed for %s/%s: %v", rule.Name, snap.CampaignID, err)
			entry.Success = false
			entry.Error = "action dispatch failed"
			// The platform already refused past the dispatcher's retries;
			// park the rule until an operator reviews it.
			e.parkRule(ctx, projectID, rule, domain.RuleError)
		}
	}
	if entry.Success && rule.Cooldown > 0 {
		// A rule with its own rest period sleeps after firing. The runner
		// releases it once the period elapses; reset-cooldown releases it
		// early.
		e.parkRule(ctx, projectID, rule, domain.RuleCooldown)
	}

	e.append(ctx, entry)
	return evalExecuted
}

// parkRule applies an engine-owned lifecycle transition. The in-memory state
// changes even when persisting fails, so the rest of this run skips the rule
// either way.
func (e *Engine) parkRule(ctx context.Context, projectID string, rule *domain.AutomationRule, state domain.RuleState) {
	rule.State = state
	if e.states == nil {
		return
	}
	if err := e.states.UpdateState(ctx, projectID, rule.ID, state); err != nil {
		log.Printf("[AutomationEngine] Failed to persist rule %s state %s: %v", rule.ID, state, err)
	}
}

func (e *Engine) newLog(projectID string, rule *domain.AutomationRule, snap *domain.CampaignSnapshot) *domain.AutomationLog {
	return &domain.AutomationLog{
		ID:         uuid.New(),
		ProjectID:  projectID,
		RuleID:     rule.ID,
		RuleName:   rule.Name,
		Platform:   snap.Platform,
		AccountID:  snap.AccountID,
		CampaignID: snap.CampaignID,
		CreatedAt:  e.now().UTC(),
	}
}

func (e *Engine) logSkip(ctx context.Context, projectID string, rule *domain.AutomationRule, snap *domain.CampaignSnapshot, reason domain.SkipReason, detail string) {
	entry := e.newLog(projectID, rule, snap)
	entry.SkipReason = reason
	entry.Reason = logger.SanitizeReason(detail)
	e.append(ctx, entry)
}

func (e *Engine) append(ctx context.Context, entry *domain.AutomationLog) {
	if err := e.logs.Append(ctx, entry); err != nil {
		log.Printf("[AutomationEngine] Failed to append audit log for rule %s: %v", entry.RuleID, err)
	}
}
