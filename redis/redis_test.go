package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/vidscribe/component"
	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/redis"
)

type testState struct {
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)

	client, err := redis.New(redis.Config{Enabled: true, Addr: mini.Addr()}, logger.Nop())
	if err != nil {
		t.Fatalf("failed to create redis client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, mini
}

func TestTypedStore_SaveAndLoad(t *testing.T) {
	client, mini := newTestClient(t)
	store := redis.NewTypedStore[testState](client, "test")
	ctx := context.Background()

	if err := store.Save(ctx, "k1", &testState{Count: 5, Tags: []string{"a", "b"}}, 0); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !mini.Exists("test:k1") {
		t.Fatal("expected prefixed key in redis")
	}

	got, err := store.Load(ctx, "k1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got == nil || got.Count != 5 || len(got.Tags) != 2 {
		t.Fatalf("expected Count=5, Tags=2, got %+v", got)
	}
}

func TestTypedStore_LoadMissing(t *testing.T) {
	client, _ := newTestClient(t)
	store := redis.NewTypedStore[testState](client, "test")

	got, err := store.Load(context.Background(), "missing")
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", got, err)
	}
}

func TestTypedStore_TTLAndDelete(t *testing.T) {
	client, mini := newTestClient(t)
	store := redis.NewTypedStore[testState](client, "")
	ctx := context.Background()

	_ = store.Save(ctx, "k", &testState{Count: 1}, time.Minute)
	if ttl := mini.TTL("k"); ttl != time.Minute {
		t.Fatalf("expected 1m TTL, got %v", ttl)
	}
	mini.FastForward(2 * time.Minute)
	if got, _ := store.Load(ctx, "k"); got != nil {
		t.Fatalf("expected key expired, got %+v", got)
	}

	_ = store.Save(ctx, "k", &testState{Count: 2}, 0)
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n, _ := client.Exists(ctx, "k"); n != 0 {
		t.Fatal("expected key deleted")
	}
}

func TestTypedStore_CorruptValue(t *testing.T) {
	client, mini := newTestClient(t)
	store := redis.NewTypedStore[testState](client, "test")
	_ = mini.Set("test:bad", "{not json")

	if _, err := store.Load(context.Background(), "bad"); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestClient_GetNil(t *testing.T) {
	client, _ := newTestClient(t)
	_, err := client.Get(context.Background(), "nope")
	if !redis.IsNil(err) {
		t.Fatalf("expected nil reply, got %v", err)
	}
}

func TestClient_CloseTwice(t *testing.T) {
	client, _ := newTestClient(t)
	if err := client.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second close must be a no-op, got %v", err)
	}
}

func TestNew_Disabled(t *testing.T) {
	if _, err := redis.New(redis.Config{}, logger.Nop()); err == nil {
		t.Fatal("expected error for disabled redis")
	}
	if _, err := redis.New(redis.Config{Enabled: true}, logger.Nop()); err == nil {
		t.Fatal("expected error for missing addr")
	}
}

func TestComponent(t *testing.T) {
	mini := miniredis.RunT(t)
	c := redis.NewComponent(redis.Config{Enabled: true, Addr: mini.Addr()}, logger.Nop())
	ctx := context.Background()

	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Fatalf("expected healthy, got %+v", h)
	}
	mini.Close()
	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Fatalf("expected unhealthy after server shutdown, got %+v", h)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestComponent_StartFailsWithoutServer(t *testing.T) {
	c := redis.NewComponent(redis.Config{Enabled: true, Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: 1}, logger.Nop())
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected start error without a server")
	}
}
