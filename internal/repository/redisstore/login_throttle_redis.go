package redisstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type ThrottlePolicy struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

func (p ThrottlePolicy) normalized() ThrottlePolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.Window <= 0 {
		p.Window = 15 * time.Minute
	}
	if p.Lockout <= 0 {
		p.Lockout = 15 * time.Minute
	}
	return p
}

// LoginThrottle counts failed sign-ins per key in a fixed window and locks
// the key once MaxAttempts is reached.
type LoginThrottle struct {
	client *redis.Client
	prefix string
	policy ThrottlePolicy
}

func NewLoginThrottle(client *redis.Client, prefix string, policy ThrottlePolicy) *LoginThrottle {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "login_throttle"
	}
	return &LoginThrottle{client: client, prefix: prefix, policy: policy.normalized()}
}

func (t *LoginThrottle) Check(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := t.client.PTTL(ctx, t.lockKey(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("throttle check: %w", err)
	}
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

func (t *LoginThrottle) RegisterFailure(ctx context.Context, key string) (time.Duration, error) {
	counterKey := t.counterKey(key)

	count, err := t.client.Incr(ctx, counterKey).Result()
	if err != nil {
		return 0, fmt.Errorf("throttle register: %w", err)
	}
	if count == 1 {
		if err := t.client.Expire(ctx, counterKey, t.policy.Window).Err(); err != nil {
			return 0, fmt.Errorf("throttle register: %w", err)
		}
	}

	if count < int64(t.policy.MaxAttempts) {
		return 0, nil
	}

	pipe := t.client.TxPipeline()
	pipe.Set(ctx, t.lockKey(key), "1", t.policy.Lockout)
	pipe.Del(ctx, counterKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("throttle lock: %w", err)
	}
	return t.policy.Lockout, nil
}

func (t *LoginThrottle) Reset(ctx context.Context, key string) error {
	err := t.client.Del(ctx, t.counterKey(key), t.lockKey(key)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("throttle reset: %w", err)
	}
	return nil
}

func (t *LoginThrottle) counterKey(key string) string {
	return t.prefix + ":count:" + hashKey(key)
}

func (t *LoginThrottle) lockKey(key string) string {
	return t.prefix + ":lock:" + hashKey(key)
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(key))))
	return hex.EncodeToString(sum[:16])
}
