package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/funnel/pkg/ports"
)

// ErrLockAcquire is returned when a session stays locked by another owner until ctx ends.
var ErrLockAcquire = errors.New("session is locked by another owner")

// release deletes the lock only while it still carries the owner's token,
// so an owner whose lock lapsed cannot free a successor's.
var release = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker is a ports.SessionLocker backed by SET NX with an expiry.
type Locker struct {
	client *backend.Client
	prefix string
	poll   time.Duration
}

var _ ports.SessionLocker = (*Locker)(nil)

// NewLocker locks sessions under <prefix>session:<id>:lock.
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix, poll: 100 * time.Millisecond}
}

func (l *Locker) key(sessionID string) string {
	return l.prefix + "session:" + sessionID + ":lock"
}

// Lock retries every poll interval until the session is free or ctx ends.
func (l *Locker) Lock(ctx context.Context, sessionID string, ttl time.Duration) (ports.Release, error) {
	key, token := l.key(sessionID), uuid.NewString()

	for {
		acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
		switch {
		case acquired:
			return func(ctx context.Context) error {
				return release.Run(ctx, l.client, []string{key}, token).Err()
			}, nil
		case err != nil && ctx.Err() == nil:
			return nil, fmt.Errorf("lock session %s: %w", sessionID, err)
		}

		timer := time.NewTimer(l.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %s: %w", ErrLockAcquire, sessionID, ctx.Err())
		case <-timer.C:
		}
	}
}
