package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const lockKey = "buzzer:lock"

// LockArbiter implements the buzz race as a single SETNX against a shared
// key, so the race stays linearizable across service instances: exactly one
// SETNX observes the key absent, and that caller's team holds the lock until
// an explicit release.
type LockArbiter struct {
	client *redis.Client
}

func NewLockArbiter(client *redis.Client) *LockArbiter {
	return &LockArbiter{client: client}
}

func (a *LockArbiter) TryAcquire(ctx context.Context, teamID string) (bool, string, error) {
	won, err := a.client.SetNX(ctx, lockKey, teamID, 0).Result()
	if err != nil {
		return false, "", fmt.Errorf("acquire buzz lock: %w", err)
	}
	if won {
		return true, teamID, nil
	}
	holder, err := a.client.Get(ctx, lockKey).Result()
	if err == redis.Nil {
		// Lost the race and the winner was released in between; report the
		// rejection, the caller re-buzzes on the next unlocked window.
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("read buzz lock holder: %w", err)
	}
	return false, holder, nil
}

func (a *LockArbiter) Release(ctx context.Context) error {
	if err := a.client.Del(ctx, lockKey).Err(); err != nil {
		return fmt.Errorf("release buzz lock: %w", err)
	}
	return nil
}
