// Package lock provides short-lived per-key mutual exclusion across server
// instances.
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker grants a lock on key or reports that another holder has it.
type Locker interface {
	TryLock(ctx context.Context, key string) (unlock func(), ok bool, err error)
}

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// store is the part of the redis client the locker uses.
type store interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	redis.Scripter
}

type redisLocker struct {
	client store
	ttl    time.Duration
}

// NewRedisLocker returns a Locker backed by SET NX with a ttl. A nil client
// grants every lock.
func NewRedisLocker(client *redis.Client, ttl time.Duration) Locker {
	if client == nil {
		return Noop{}
	}
	return &redisLocker{client: client, ttl: ttl}
}

func (l *redisLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func() {
		// The request context may already be done.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			slog.Warn("release lock", "key", key, "error", err)
		}
	}
	return unlock, true, nil
}

// Noop grants every lock.
type Noop struct{}

func (Noop) TryLock(context.Context, string) (func(), bool, error) {
	return func() {}, true, nil
}
