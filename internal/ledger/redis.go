package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Daily keys expire after 25 hours so a counter never leaks into the next
// day but survives clock skew around midnight.
const dayTTLSeconds = 90000

// Lua script for the atomic action commit. Checks the campaign ceiling and
// the cooldown, then increments and arms both — all server-side, so racing
// callers serialize on Redis.
const commitLuaScript = `
local campKey = KEYS[1]
local cdKey = KEYS[2]
local campLimit = tonumber(ARGV[1])
local dayTTL = tonumber(ARGV[2])
local cooldownMs = tonumber(ARGV[3])
local nowMs = ARGV[4]

local camp = tonumber(redis.call("GET", campKey) or "0")
if camp >= campLimit then
    return 1
end
if redis.call("EXISTS", cdKey) == 1 then
    return 2
end

local newCamp = redis.call("INCR", campKey)
if newCamp == 1 then
    redis.call("EXPIRE", campKey, dayTTL)
end
redis.call("SET", cdKey, nowMs, "PX", cooldownMs)
return 0
`

// Lua script for the bounded global counter increment.
const globalLuaScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local dayTTL = tonumber(ARGV[2])

local current = tonumber(redis.call("GET", key) or "0")
if current >= limit then
    return 0
end

local newVal = redis.call("INCR", key)
if newVal == 1 then
    redis.call("EXPIRE", key, dayTTL)
end
return 1
`

// RedisLedger implements Ledger on Redis with pre-compiled Lua scripts.
// The cooldown entry is a key whose TTL equals the cooldown duration and
// whose value is the last-executed timestamp, so "in cooldown" is simply
// key existence — expiry is decided by the Redis server, not the caller.
type RedisLedger struct {
	redis *redis.Client

	commitScript *redis.Script
	globalScript *redis.Script

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewRedisLedger creates a ledger backed by the given Redis client.
func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{
		redis:        client,
		commitScript: redis.NewScript(commitLuaScript),
		globalScript: redis.NewScript(globalLuaScript),
		now:          time.Now,
	}
}

func (l *RedisLedger) campaignKey(platform, accountID, campaignID string) string {
	day := l.now().UTC().Format("2006-01-02")
	return fmt.Sprintf("actions:campaign:%s:%s:%s:%s", platform, accountID, campaignID, day)
}

func (l *RedisLedger) globalKey(projectID string) string {
	day := l.now().UTC().Format("2006-01-02")
	return fmt.Sprintf("actions:project:%s:%s", projectID, day)
}

func (l *RedisLedger) cooldownKey(k CooldownKey) string {
	return fmt.Sprintf("cooldown:%s", k.String())
}

// CampaignActionCount returns the campaign's same-day action count.
func (l *RedisLedger) CampaignActionCount(ctx context.Context, platform, accountID, campaignID string) (int, error) {
	n, err := l.redis.Get(ctx, l.campaignKey(platform, accountID, campaignID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("campaign action count: %w", err)
	}
	return n, nil
}

// IncrementGlobalAction atomically increments the project-wide daily counter.
func (l *RedisLedger) IncrementGlobalAction(ctx context.Context, projectID string, limit int) (bool, error) {
	res, err := l.globalScript.Run(ctx, l.redis,
		[]string{l.globalKey(projectID)},
		limit, dayTTLSeconds,
	).Int()
	if err != nil {
		return false, fmt.Errorf("global action increment: %w", err)
	}
	return res == 1, nil
}

// InCooldown reports whether the cooldown key still exists.
func (l *RedisLedger) InCooldown(ctx context.Context, key CooldownKey) (bool, error) {
	n, err := l.redis.Exists(ctx, l.cooldownKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("cooldown lookup: %w", err)
	}
	return n > 0, nil
}

// CommitAction atomically increments the campaign counter and arms the
// cooldown. Racing callers on the same key serialize inside Redis; at most
// one observes CommitOK per cooldown window.
func (l *RedisLedger) CommitAction(ctx context.Context, key CooldownKey, campaignLimit int, cooldown time.Duration) (CommitStatus, error) {
	res, err := l.commitScript.Run(ctx, l.redis,
		[]string{
			l.campaignKey(key.Platform, key.AccountID, key.CampaignID),
			l.cooldownKey(key),
		},
		campaignLimit,
		dayTTLSeconds,
		cooldown.Milliseconds(),
		l.now().UTC().UnixMilli(),
	).Int()
	if err != nil {
		return CommitDailyLimit, fmt.Errorf("commit action: %w", err)
	}

	switch res {
	case 0:
		return CommitOK, nil
	case 1:
		return CommitDailyLimit, nil
	case 2:
		return CommitCooldownActive, nil
	}
	return CommitDailyLimit, fmt.Errorf("commit action: unexpected result %d", res)
}
