package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/funnel/pkg/adapters/redis"
)

func newLocker(t *testing.T) (*miniredis.Miniredis, *redis.Locker) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, redis.NewLocker(client, "funnel:")
}

func TestLocker_LockAndRelease(t *testing.T) {
	mr, locker := newLocker(t)
	ctx := context.Background()

	release, err := locker.Lock(ctx, "s1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("funnel:session:s1:lock"))
	assert.Equal(t, 5*time.Second, mr.TTL("funnel:session:s1:lock"))

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("funnel:session:s1:lock"))
}

func TestLocker_SecondOwnerWaits(t *testing.T) {
	_, locker := newLocker(t)
	ctx := context.Background()

	release, err := locker.Lock(ctx, "s1", 5*time.Second)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(short, "s1", 5*time.Second)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := locker.Lock(ctx, "s2", 5*time.Second)
	require.NoError(t, err, "other sessions are not blocked")
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	again, err := locker.Lock(ctx, "s1", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestLocker_LapsedLockIsNotReleasedByOldOwner(t *testing.T) {
	mr, locker := newLocker(t)
	ctx := context.Background()

	release, err := locker.Lock(ctx, "s1", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	successor, err := locker.Lock(ctx, "s1", time.Minute)
	require.NoError(t, err)

	require.NoError(t, release(ctx))
	assert.True(t, mr.Exists("funnel:session:s1:lock"), "successor keeps its lock")
	require.NoError(t, successor(ctx))
}
