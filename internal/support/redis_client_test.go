package support

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := OpenRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("OpenRedis returned error: %v", err)
	}
	defer client.Close()

	if err := client.SAdd(context.Background(), "k", "v").Err(); err != nil {
		t.Fatalf("SAdd: %v", err)
	}
	if ok, _ := mr.SIsMember("k", "v"); !ok {
		t.Fatal("write did not reach the server")
	}
}

func TestOpenRedisRejectsBadURL(t *testing.T) {
	if _, err := OpenRedis(context.Background(), "not-a-url://"); err == nil {
		t.Fatal("OpenRedis accepted an invalid url")
	}
}

func TestOpenRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := OpenRedis(context.Background(), "redis://"+addr); err == nil {
		t.Fatal("OpenRedis succeeded against a closed server")
	}
}
