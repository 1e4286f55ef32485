package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLock(t *testing.T, ttl time.Duration) (*RedisLock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLock(client, ttl), mr
}

func TestRedisLock_ExclusiveUntilReleased(t *testing.T) {
	lock, mr := newTestLock(t, time.Minute)
	ctx := context.Background()

	release, ok, err := lock.Acquire(ctx, "publish:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("lock:publish:1"))

	_, ok, err = lock.Acquire(ctx, "publish:1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = lock.Acquire(ctx, "publish:2")
	require.NoError(t, err)
	assert.True(t, ok)

	release()
	release()
	assert.False(t, mr.Exists("lock:publish:1"))

	_, ok, err = lock.Acquire(ctx, "publish:1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_LeaseExpires(t *testing.T) {
	lock, mr := newTestLock(t, 30*time.Second)
	ctx := context.Background()

	staleRelease, ok, err := lock.Acquire(ctx, "publish:1")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(31 * time.Second)

	_, ok, err = lock.Acquire(ctx, "publish:1")
	require.NoError(t, err)
	require.True(t, ok)

	// The stale holder must not release the new holder's lease.
	staleRelease()
	assert.True(t, mr.Exists("lock:publish:1"))
}

func TestRedisLock_ConnectionError(t *testing.T) {
	lock, mr := newTestLock(t, time.Minute)
	mr.Close()

	release, ok, err := lock.Acquire(context.Background(), "publish:1")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.NotPanics(t, release)
}
