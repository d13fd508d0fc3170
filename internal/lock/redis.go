package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// Options configures RedisLocker.
type Options struct {
	// Expiry bounds how long a crashed holder can block the group.
	Expiry time.Duration
	// Tries is the number of acquisition attempts before ErrNotAcquired.
	Tries int
	// RetryDelay is the wait between attempts.
	RetryDelay time.Duration
}

// DefaultOptions suits writes that finish well within a second.
func DefaultOptions() Options {
	return Options{
		Expiry:     10 * time.Second,
		Tries:      32,
		RetryDelay: 100 * time.Millisecond,
	}
}

// RedisLocker coordinates writers across server instances with the RedLock algorithm.
type RedisLocker struct {
	rs   *redsync.Redsync
	opts Options
}

var _ GroupLocker = (*RedisLocker)(nil)

func NewRedisLocker(client *redis.Client, opts Options) *RedisLocker {
	pool := goredis.NewPool(client)
	return &RedisLocker{rs: redsync.New(pool), opts: opts}
}

func lockKey(groupID string) string {
	return "splitledger:lock:group:" + groupID
}

func (l *RedisLocker) WithGroupLock(ctx context.Context, groupID string, fn func(ctx context.Context) error) error {
	key := lockKey(groupID)
	mutex := l.rs.NewMutex(
		key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) {
			return fmt.Errorf("%w: %s", ErrNotAcquired, groupID)
		}
		return fmt.Errorf("failed to acquire group lock: %w", err)
	}

	// Release with a fresh context so a cancelled request still frees the lock.
	defer func() {
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if ok, err := mutex.UnlockContext(unlockCtx); !ok || err != nil {
			slog.Warn("Failed to release group lock", "group_id", groupID, "error", err)
		}
	}()

	return fn(ctx)
}
