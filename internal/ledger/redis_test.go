package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/campaign-sentinel/internal/domain"
)

func setupTestLedger(t *testing.T) (*RedisLedger, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisLedger(client), mr
}

func testKey() CooldownKey {
	return CooldownKey{
		ActionType: domain.ActionPauseCampaign,
		Platform:   "meta",
		AccountID:  "acct-1",
		CampaignID: "camp-1",
	}
}

func TestCommitActionArmsCooldown(t *testing.T) {
	l, _ := setupTestLedger(t)
	ctx := context.Background()
	key := testKey()

	status, err := l.CommitAction(ctx, key, 3, 2*time.Hour)
	if err != nil || status != CommitOK {
		t.Fatalf("first commit: status=%v err=%v", status, err)
	}

	// Counter moved
	n, err := l.CampaignActionCount(ctx, "meta", "acct-1", "camp-1")
	if err != nil || n != 1 {
		t.Fatalf("count after commit: n=%d err=%v", n, err)
	}

	// Cooldown is armed
	cooling, err := l.InCooldown(ctx, key)
	if err != nil || !cooling {
		t.Fatalf("expected cooldown armed: cooling=%v err=%v", cooling, err)
	}

	// Second commit within the window is refused
	status, err = l.CommitAction(ctx, key, 3, 2*time.Hour)
	if err != nil || status != CommitCooldownActive {
		t.Fatalf("second commit: status=%v err=%v", status, err)
	}
}

func TestCommitActionDailyLimit(t *testing.T) {
	l, mr := setupTestLedger(t)
	ctx := context.Background()

	// Use a distinct action type per commit so cooldowns don't interfere;
	// the campaign counter is shared across action types.
	actions := []domain.ActionType{
		domain.ActionPauseCampaign,
		domain.ActionDecreaseBudget,
		domain.ActionIncreaseBudget,
	}
	for i, a := range actions {
		key := testKey()
		key.ActionType = a
		status, err := l.CommitAction(ctx, key, 3, time.Hour)
		if err != nil || status != CommitOK {
			t.Fatalf("commit %d: status=%v err=%v", i, status, err)
		}
	}

	key := testKey()
	key.ActionType = domain.ActionRotateCreative
	status, err := l.CommitAction(ctx, key, 3, time.Hour)
	if err != nil || status != CommitDailyLimit {
		t.Fatalf("over-limit commit: status=%v err=%v", status, err)
	}

	// Campaign counter never exceeds the ceiling
	n, _ := l.CampaignActionCount(ctx, "meta", "acct-1", "camp-1")
	if n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}
	_ = mr
}

func TestCommitActionConcurrentRace(t *testing.T) {
	l, _ := setupTestLedger(t)
	ctx := context.Background()
	key := testKey()

	const callers = 10
	var wg sync.WaitGroup
	results := make(chan CommitStatus, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := l.CommitAction(ctx, key, 3, time.Hour)
			if err != nil {
				t.Errorf("commit error: %v", err)
				return
			}
			results <- status
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for status := range results {
		if status == CommitOK {
			ok++
		}
	}
	if ok != 1 {
		t.Fatalf("exactly one racing commit must win, got %d", ok)
	}
}

func TestCooldownExpiry(t *testing.T) {
	l, mr := setupTestLedger(t)
	ctx := context.Background()
	key := testKey()

	if status, _ := l.CommitAction(ctx, key, 3, time.Minute); status != CommitOK {
		t.Fatal("commit failed")
	}

	mr.FastForward(2 * time.Minute)

	cooling, err := l.InCooldown(ctx, key)
	if err != nil || cooling {
		t.Fatalf("cooldown should have expired: cooling=%v err=%v", cooling, err)
	}

	status, err := l.CommitAction(ctx, key, 3, time.Minute)
	if err != nil || status != CommitOK {
		t.Fatalf("commit after expiry: status=%v err=%v", status, err)
	}
}

func TestIncrementGlobalAction(t *testing.T) {
	l, _ := setupTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.IncrementGlobalAction(ctx, "proj-1", 3)
		if err != nil || !ok {
			t.Fatalf("increment %d: ok=%v err=%v", i, ok, err)
		}
	}

	ok, err := l.IncrementGlobalAction(ctx, "proj-1", 3)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if ok {
		t.Fatal("global limit must refuse the 4th increment")
	}

	// Other projects are unaffected
	ok, err = l.IncrementGlobalAction(ctx, "proj-2", 3)
	if err != nil || !ok {
		t.Fatalf("other project: ok=%v err=%v", ok, err)
	}
}

func TestGlobalIncrementConcurrent(t *testing.T) {
	l, _ := setupTestLedger(t)
	ctx := context.Background()

	const callers = 20
	const limit = 5
	var wg sync.WaitGroup
	results := make(chan bool, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.IncrementGlobalAction(ctx, "proj-race", limit)
			if err != nil {
				t.Errorf("increment error: %v", err)
				return
			}
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	allowed := 0
	for ok := range results {
		if ok {
			allowed++
		}
	}
	if allowed != limit {
		t.Fatalf("exactly %d increments may pass, got %d", limit, allowed)
	}
}
