package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const cycleLockKey = "marketmind:cycle-lock"

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCycleLock rejects a cycle while another process holds the lock.
type RedisCycleLock struct {
	client   *redis.Client
	ttl      time.Duration
	newToken func() string
}

func NewRedisCycleLock(client *redis.Client, ttl time.Duration) *RedisCycleLock {
	return &RedisCycleLock{client: client, ttl: ttl, newToken: uuid.NewString}
}

func (l *RedisCycleLock) Acquire(ctx context.Context) (func(context.Context) error, error) {
	token := l.newToken()
	ok, err := l.client.SetNX(ctx, cycleLockKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire cycle lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: cycle lock held by another process", domain.ErrConcurrentCycleConflict)
	}

	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{cycleLockKey}, token).Err()
	}
	return release, nil
}
