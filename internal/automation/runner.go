package automation

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ignite/campaign-sentinel/internal/config"
	"github.com/ignite/campaign-sentinel/internal/pkg/debounce"
	"github.com/ignite/campaign-sentinel/internal/pkg/distlock"
)

var (
	// ErrDebounced means an identical run request arrived within the
	// debounce window. The caller should treat it as rate-limited.
	ErrDebounced = errors.New("automation run debounced")

	// ErrRunInProgress means another caller holds the project's run lock.
	// Retryable once the current run finishes or the lock TTL expires.
	ErrRunInProgress = errors.New("automation run already in progress")
)

// Runner serializes automation runs per project: an in-process debounce
// filter in front of a distributed lock, then rule and snapshot loading,
// then the engine.
type Runner struct {
	engine      *Engine
	rules       RuleSource
	snapshots   SnapshotSource
	lockFactory distlock.Factory
	filter      *debounce.Filter
	cfg         config.AutomationConfig
}

// NewRunner wires a runner around the engine.
func NewRunner(engine *Engine, rules RuleSource, snapshots SnapshotSource, lockFactory distlock.Factory, cfg config.AutomationConfig) *Runner {
	return &Runner{
		engine:      engine,
		rules:       rules,
		snapshots:   snapshots,
		lockFactory: lockFactory,
		filter:      debounce.New(cfg.DebounceWindow()),
		cfg:         cfg,
	}
}

// Run executes one automation run for the project. At most one run per
// project is live at a time; the lock is released on every exit path and
// self-expires via TTL if the release fails.
func (r *Runner) Run(ctx context.Context, projectID string) (*RunResult, error) {
	if !r.filter.Allow(projectID) {
		return nil, ErrDebounced
	}

	lock := r.lockFactory(distlock.RunLockKey(projectID), r.cfg.LockTTL())
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !acquired {
		return nil, ErrRunInProgress
	}
	log.Printf("[AutomationRunner] Acquired run lock for %s (holder=%s)", projectID, lock.Holder())

	defer func() {
		// Release must not be skipped by request cancellation; if it still
		// fails the TTL reclaims the lock.
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			log.Printf("[AutomationRunner] Lock release failed for %s, TTL will expire: %v", projectID, err)
		}
	}()

	released, err := r.rules.ReleaseExpiredCooldowns(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("release rule cooldowns: %w", err)
	}
	if released > 0 {
		log.Printf("[AutomationRunner] Released %d rule(s) from cooldown for %s", released, projectID)
	}

	ruleSet, err := r.rules.ListActive(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load active rules: %w", err)
	}
	snaps, err := r.snapshots.Snapshots(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load campaign snapshots: %w", err)
	}

	return r.engine.Run(ctx, projectID, ruleSet, snaps)
}
