package automation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ignite/campaign-sentinel/internal/config"
	"github.com/ignite/campaign-sentinel/internal/domain"
	"github.com/ignite/campaign-sentinel/internal/pkg/distlock"
)

type fakeLock struct {
	acquireOK  bool
	acquireErr error
	released   bool
}

func (l *fakeLock) Acquire(ctx context.Context) (bool, error) { return l.acquireOK, l.acquireErr }
func (l *fakeLock) Release(ctx context.Context) error {
	l.released = true
	return nil
}
func (l *fakeLock) Holder() string { return "test-holder" }

type fixedRules struct {
	rules    []domain.AutomationRule
	err      error
	released int
}

func (f *fixedRules) ListActive(ctx context.Context, projectID string) ([]domain.AutomationRule, error) {
	return f.rules, f.err
}

func (f *fixedRules) ReleaseExpiredCooldowns(ctx context.Context, projectID string) (int, error) {
	return f.released, nil
}

type fixedSnaps struct {
	snaps []domain.CampaignSnapshot
	err   error
}

func (f *fixedSnaps) Snapshots(ctx context.Context, projectID string) ([]domain.CampaignSnapshot, error) {
	return f.snaps, f.err
}

func newTestRunner(lock *fakeLock, ruleSrc RuleSource, snapSrc SnapshotSource, cfg config.AutomationConfig) *Runner {
	engine := newTestEngine(newMemLedger(), &memLogs{}, nil, cfg)
	factory := distlock.Factory(func(key string, ttl time.Duration) distlock.DistLock { return lock })
	return NewRunner(engine, ruleSrc, snapSrc, factory, cfg)
}

func TestRunnerHappyPath(t *testing.T) {
	cfg := testAutomationConfig()
	cfg.DebounceSeconds = 1
	cfg.LockTTLSeconds = 30
	lock := &fakeLock{acquireOK: true}

	r := newTestRunner(lock,
		&fixedRules{rules: []domain.AutomationRule{matchingRule("r1")}},
		&fixedSnaps{snaps: []domain.CampaignSnapshot{eligibleSnap("camp-1")}},
		cfg)

	result, err := r.Run(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Executed != 1 {
		t.Fatalf("executed = %d, want 1", result.Executed)
	}
	if !lock.released {
		t.Fatal("lock must be released after the run")
	}
}

func TestRunnerDebounce(t *testing.T) {
	cfg := testAutomationConfig()
	cfg.DebounceSeconds = 2
	lock := &fakeLock{acquireOK: true}

	r := newTestRunner(lock, &fixedRules{}, &fixedSnaps{}, cfg)
	ctx := context.Background()

	if _, err := r.Run(ctx, "proj-1"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := r.Run(ctx, "proj-1"); !errors.Is(err, ErrDebounced) {
		t.Fatalf("err = %v, want ErrDebounced", err)
	}

	// A different project is not suppressed.
	if _, err := r.Run(ctx, "proj-2"); err != nil {
		t.Fatalf("other project: %v", err)
	}
}

func TestRunnerLockBusy(t *testing.T) {
	cfg := testAutomationConfig()
	cfg.DebounceSeconds = 1
	lock := &fakeLock{acquireOK: false}

	r := newTestRunner(lock, &fixedRules{}, &fixedSnaps{}, cfg)

	_, err := r.Run(context.Background(), "proj-1")
	if !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("err = %v, want ErrRunInProgress", err)
	}
	if lock.released {
		t.Fatal("a lock we never held must not be released")
	}
}

func TestRunnerReleasesLockOnLoadError(t *testing.T) {
	cfg := testAutomationConfig()
	cfg.DebounceSeconds = 1
	lock := &fakeLock{acquireOK: true}

	r := newTestRunner(lock,
		&fixedRules{err: errors.New("db down")},
		&fixedSnaps{}, cfg)

	if _, err := r.Run(context.Background(), "proj-1"); err == nil {
		t.Fatal("expected load error")
	}
	if !lock.released {
		t.Fatal("lock must be released on every exit path")
	}
}
