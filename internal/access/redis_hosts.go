package access

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

const (
	// AllowedHostsKey is the Redis set holding explicitly allowed hosts.
	AllowedHostsKey = "nodebackup:access:allowed_hosts"
	// AllowedHostsChannel triggers an immediate resync when published to.
	AllowedHostsChannel = "nodebackup:access:updates"

	defaultHostsSyncInterval = 30 * time.Second
	redisOpTimeout           = 5 * time.Second
)

// RedisHosts mirrors a Redis set into an in-memory HostSet. Lookups never
// touch Redis; they read the last synced snapshot.
type RedisHosts struct {
	client   *redis.Client
	key      string
	channel  string
	snapshot atomic.Pointer[StaticHosts]
}

// NewRedisHosts returns an empty host set backed by client. Call Sync or Run
// to populate it.
func NewRedisHosts(client *redis.Client) *RedisHosts {
	h := &RedisHosts{
		client:  client,
		key:     AllowedHostsKey,
		channel: AllowedHostsChannel,
	}
	h.snapshot.Store(NewStaticHosts())
	return h
}

func (h *RedisHosts) Contains(addr Address) bool {
	if h == nil {
		return false
	}
	return h.snapshot.Load().Contains(addr)
}

// Len returns the number of hosts in the current snapshot.
func (h *RedisHosts) Len() int {
	if h == nil {
		return 0
	}
	return h.snapshot.Load().Len()
}

// Sync replaces the snapshot with the current members of the Redis set.
func (h *RedisHosts) Sync(ctx context.Context) error {
	if h.client == nil {
		return errors.New("access: allowed hosts redis client is nil")
	}

	opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	members, err := h.client.SMembers(opCtx, h.key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("access: load allowed hosts: %w", err)
	}

	next := ParseStaticHosts(members)
	h.snapshot.Store(next)
	log.Debug("Allowed hosts synced", "key", h.key, "hosts", next.Len())
	return nil
}

// Run syncs on every interval tick and whenever a message arrives on the
// update channel, until ctx is done.
func (h *RedisHosts) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultHostsSyncInterval
	}

	if err := h.Sync(ctx); err != nil {
		log.Warn("Allowed hosts sync failed", "error", err)
	}

	pubsub := h.client.Subscribe(ctx, h.channel)
	defer pubsub.Close()
	updates := pubsub.Channel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case _, ok := <-updates:
			if !ok {
				return
			}
		}

		if err := h.Sync(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("Allowed hosts sync failed", "error", err)
		}
	}
}
