package access

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisHostsEmptyUntilSynced(t *testing.T) {
	mr, client := newTestRedis(t)
	if _, err := mr.SAdd(AllowedHostsKey, "192.0.2.44"); err != nil {
		t.Fatalf("SAdd: %v", err)
	}

	hosts := NewRedisHosts(client)
	if hosts.Contains(mustParseAddress("192.0.2.44")) {
		t.Fatal("host set populated before Sync")
	}

	if err := hosts.Sync(context.Background()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if !hosts.Contains(mustParseAddress("192.0.2.44")) {
		t.Fatal("host set missing 192.0.2.44 after Sync")
	}
}

func TestRedisHostsSkipsInvalidMembers(t *testing.T) {
	mr, client := newTestRedis(t)
	if _, err := mr.SAdd(AllowedHostsKey, "192.0.2.44", "bogus", "10.0.0.0/8"); err != nil {
		t.Fatalf("SAdd: %v", err)
	}

	hosts := NewRedisHosts(client)
	if err := hosts.Sync(context.Background()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if hosts.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", hosts.Len())
	}
}

func TestRedisHostsMissingKeyIsEmpty(t *testing.T) {
	_, client := newTestRedis(t)

	hosts := NewRedisHosts(client)
	if err := hosts.Sync(context.Background()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if hosts.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", hosts.Len())
	}
}

func TestRedisHostsRunPicksUpPublishedChange(t *testing.T) {
	mr, client := newTestRedis(t)
	hosts := NewRedisHosts(client)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hosts.Run(ctx, time.Hour)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	target := mustParseAddress("192.0.2.77")
	if _, err := mr.SAdd(AllowedHostsKey, target.String()); err != nil {
		t.Fatalf("SAdd: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !hosts.Contains(target) {
		if time.Now().After(deadline) {
			t.Fatal("host never appeared after publish")
		}
		if err := client.Publish(context.Background(), AllowedHostsChannel, "sync").Err(); err != nil {
			t.Fatalf("Publish: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestRedisHostsFeedEvaluator(t *testing.T) {
	mr, client := newTestRedis(t)
	if _, err := mr.SAdd(AllowedHostsKey, "192.0.2.44"); err != nil {
		t.Fatalf("SAdd: %v", err)
	}
	hosts := NewRedisHosts(client)
	if err := hosts.Sync(context.Background()); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}

	eval := Evaluator{Hosts: hosts}
	if got := eval.Decide(Request{Path: "/", RemoteAddr: "192.0.2.44"}, nil); got != Allow {
		t.Fatalf("Decide = %s, want allow", got)
	}
}
