package support

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultLeadershipTTL = 45 * time.Second
	leadershipRetryDelay = time.Second
	lockOpTimeout        = 5 * time.Second
)

// ErrLockLost is returned by Renew when another holder owns the key.
var ErrLockLost = errors.New("support: leader lock lost")

var (
	lockSeq atomic.Uint64

	// Both scripts only touch the key while it still holds our token.
	extendLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

	dropLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
)

// LeaderLock is a Redis key owned by one process at a time. The owner is
// identified by a token unique to this lock value.
type LeaderLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

func NewLeaderLock(client *redis.Client, key string, ttl time.Duration) *LeaderLock {
	if ttl <= 0 {
		ttl = DefaultLeadershipTTL
	}
	host, _ := os.Hostname()
	return &LeaderLock{
		client: client,
		key:    key,
		token:  fmt.Sprintf("%s-%d-%d", host, os.Getpid(), lockSeq.Add(1)),
		ttl:    ttl,
	}
}

// TryAcquire sets the key if nobody holds it.
func (l *LeaderLock) TryAcquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
}

// Renew pushes the expiry out by another ttl.
func (l *LeaderLock) Renew(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, lockOpTimeout)
	defer cancel()

	n, err := extendLock.Run(opCtx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockLost
	}
	return nil
}

// Release deletes the key if it is still ours.
func (l *LeaderLock) Release() error {
	ctx, cancel := context.WithTimeout(context.Background(), lockOpTimeout)
	defer cancel()

	if err := dropLock.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// RunWithLeader runs fn whenever this process holds the lock at key, so only
// one instance sharing the Redis server runs it at a time. fn's context is
// cancelled when the lock cannot be renewed. Once fn returns the lock is
// released and acquisition starts over until ctx is done.
func RunWithLeader(ctx context.Context, client *redis.Client, key string, ttl time.Duration, fn func(context.Context)) error {
	if fn == nil {
		return errors.New("support: leader run function cannot be nil")
	}
	if client == nil {
		return errors.New("support: leader lock requires a redis client")
	}

	lock := NewLeaderLock(client, key, ttl)
	for {
		if err := waitForLock(ctx, lock); err != nil {
			return err
		}

		log.Debug("leader lock: acquired", "key", key)
		lead(ctx, lock, fn)
		if err := lock.Release(); err != nil {
			log.Warn("leader lock: release failed", "key", key, "error", err)
		}
		log.Debug("leader lock: released", "key", key)

		if !sleepContext(ctx, leadershipRetryDelay) {
			return ctx.Err()
		}
	}
}

func waitForLock(ctx context.Context, lock *LeaderLock) error {
	for {
		ok, err := lock.TryAcquire(ctx)
		if ok {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			log.Warn("leader lock: acquire failed", "key", lock.key, "error", err)
		}
		if !sleepContext(ctx, leadershipRetryDelay) {
			return ctx.Err()
		}
	}
}

// lead runs fn and renews the lock at a third of its ttl until fn returns.
func lead(ctx context.Context, lock *LeaderLock, fn func(context.Context)) {
	leaderCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(leaderCtx)
	}()

	interval := lock.ttl / 3
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if leaderCtx.Err() != nil {
				continue
			}
			if err := lock.Renew(leaderCtx); err != nil {
				log.Warn("leader lock: renewal failed", "key", lock.key, "error", err)
				cancel()
			}
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
