package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dawg2324/moneypuck-mirror/internal/domain"
)

// releaseLua deletes the lock only while it still names the caller's run.
const releaseLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// releaseTimeout bounds the release call; the run context is often already
// cancelled at shutdown.
const releaseTimeout = 5 * time.Second

// lockStore is the slice of Redis the run lock needs.
type lockStore interface {
	claim(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	owner(ctx context.Context, key string) (string, error)
	releaseIfOwner(ctx context.Context, key, owner string) (bool, error)
}

type redisLockStore struct {
	rdb     *redis.Client
	release *redis.Script
}

func (s redisLockStore) claim(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, owner, ttl).Result()
}

func (s redisLockStore) owner(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (s redisLockStore) releaseIfOwner(ctx context.Context, key, owner string) (bool, error) {
	n, err := s.release.Run(ctx, s.rdb, []string{key}, owner).Int64()
	return n == 1, err
}

// RunLock keeps two runs from working on the same slate date at once. The
// lock value is the owning run ID, so a refused run can name the holder.
type RunLock struct {
	store lockStore
}

var _ domain.RunLock = (*RunLock)(nil)

// NewRunLock creates a RunLock backed by c.
func NewRunLock(c *Client) *RunLock {
	return &RunLock{store: redisLockStore{rdb: c.Underlying(), release: redis.NewScript(releaseLua)}}
}

func runLockKey(dateET string) string {
	return KeyPrefix + "lock:run:" + dateET
}

// Acquire claims dateET for runID until ttl expires or release is called.
// release may be called more than once and never removes a lock that has
// since passed to another run. A lock held elsewhere yields an error
// wrapping domain.ErrLockHeld.
func (l *RunLock) Acquire(ctx context.Context, dateET, runID string, ttl time.Duration) (func(), error) {
	key := runLockKey(dateET)

	ok, err := l.store.claim(ctx, key, runID, ttl)
	if err != nil {
		return nil, fmt.Errorf("redis: claim run lock %s: %w", dateET, err)
	}
	if !ok {
		holder, err := l.store.owner(ctx, key)
		if err != nil || holder == "" {
			return nil, fmt.Errorf("redis: run lock %s: %w", dateET, domain.ErrLockHeld)
		}
		return nil, fmt.Errorf("redis: run lock %s held by run %s: %w", dateET, holder, domain.ErrLockHeld)
	}

	released := false
	release := func() {
		if released {
			return
		}
		released = true

		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		_, _ = l.store.releaseIfOwner(releaseCtx, key, runID)
	}
	return release, nil
}
