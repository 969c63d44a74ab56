package astdb

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"nodebackup/internal/support"
)

const refreshLockKey = "nodebackup:leader:astdb_refresh"

// StartRefreshRoutine refreshes at startup and then every interval until ctx
// is done. With a Redis client, only the instance holding the leader lock
// runs the loop.
func StartRefreshRoutine(ctx context.Context, interval time.Duration, opts Options, client *redis.Client) {
	if interval <= 0 {
		log.Debug("Node database refresh disabled")
		return
	}

	if client == nil {
		runRefreshLoop(ctx, interval, opts)
		return
	}

	err := support.RunWithLeader(ctx, client, refreshLockKey, support.DefaultLeadershipTTL, func(leaderCtx context.Context) {
		runRefreshLoop(leaderCtx, interval, opts)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Node database refresh routine stopped", "error", err)
	}
}

func runRefreshLoop(ctx context.Context, interval time.Duration, opts Options) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	triggerRefresh(ctx, "startup", opts)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			triggerRefresh(ctx, "scheduled", opts)
		}
	}
}

func triggerRefresh(ctx context.Context, reason string, opts Options) {
	outcome, err := Refresh(ctx, opts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("Node database refresh canceled", "reason", reason)
		} else {
			log.Error("Node database refresh failed", "reason", reason, "error", err)
		}
		return
	}

	log.Info("Node database refresh completed",
		"reason", reason,
		"remote", outcome.Remote,
		"private", outcome.Private,
		"written", outcome.Written,
		"file", opts.OutputFile,
	)
}
