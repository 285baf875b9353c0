package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis shares the window across instances. Each key is a sorted set of
// hit timestamps in milliseconds, trimmed to the window and expiring with it.
type Redis struct {
	client *redis.Client
	prefix string
	rule   Rule
	now    func() time.Time
}

func NewRedis(client *redis.Client, prefix string, rule Rule) *Redis {
	return &Redis{client: client, prefix: prefix, rule: rule, now: time.Now}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := fmt.Sprintf("%s:ratelimit:%s", r.prefix, key)
	now := r.now()
	nowMs := now.UnixMilli()
	cutoff := nowMs - r.rule.Window.Milliseconds()
	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()

	var card *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, k, "-inf", strconv.FormatInt(cutoff, 10))
		p.ZAdd(ctx, k, redis.Z{Score: float64(nowMs), Member: member})
		card = p.ZCard(ctx, k)
		p.PExpire(ctx, k, r.rule.Window)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if card.Val() <= int64(r.rule.Limit) {
		return true, 0, nil
	}

	// Over the limit: the rejected hit does not count.
	if err := r.client.ZRem(ctx, k, member).Err(); err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", key, err)
	}
	oldest, err := r.client.ZRangeWithScores(ctx, k, 0, 0).Result()
	if err != nil || len(oldest) == 0 {
		return false, r.rule.Window, nil
	}
	retry := time.UnixMilli(int64(oldest[0].Score)).Add(r.rule.Window).Sub(now)
	if retry < 0 {
		retry = 0
	}
	return false, retry, nil
}
