package pipeline_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/pipeline"
	"github.com/kbukum/vidscribe/redis"
	"github.com/kbukum/vidscribe/transcription"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*pipeline.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	client, err := redis.New(redis.Config{Enabled: true, Addr: mini.Addr(), KeyPrefix: "vs", JobTTL: ttl}, logger.Nop())
	if err != nil {
		t.Fatalf("failed to create redis client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return pipeline.NewRedisStore(client), mini
}

func testStores(t *testing.T) map[string]pipeline.Store {
	rs, _ := newRedisStore(t, 0)
	return map[string]pipeline.Store{
		"memory": pipeline.NewMemoryStore(),
		"redis":  rs,
	}
}

func TestStore_SaveGet(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			job := &pipeline.Job{
				ID:          "job-1",
				Name:        "clip",
				ContentHash: "abc",
				State:       pipeline.StateTranscribing,
				Utterances:  []transcription.Utterance{{Start: "a", End: "b", Speech: "c"}},
				CreatedAt:   time.Unix(100, 0).UTC(),
			}
			if err := store.Save(ctx, job); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			got, err := store.Get(ctx, "job-1")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got.Name != "clip" || got.State != pipeline.StateTranscribing || len(got.Utterances) != 1 {
				t.Fatalf("unexpected job %+v", got)
			}
			if !got.CreatedAt.Equal(job.CreatedAt) {
				t.Errorf("CreatedAt mismatch: %v", got.CreatedAt)
			}

			got.Utterances[0].Speech = "mutated"
			again, _ := store.Get(ctx, "job-1")
			if again.Utterances[0].Speech != "c" {
				t.Error("returned job must not alias stored state")
			}
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(context.Background(), "nope")
			appErr, ok := apperrors.AsAppError(err)
			if !ok || appErr.Code != apperrors.ErrCodeNotFound {
				t.Fatalf("expected NOT_FOUND, got %v", err)
			}
		})
	}
}

func TestStore_SaveRequiresID(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Save(context.Background(), &pipeline.Job{}); err == nil {
				t.Fatal("expected error for job without id")
			}
		})
	}
}

func TestStore_FindByHashOnlyDone(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			job := &pipeline.Job{ID: "j", Name: "n", ContentHash: "h1", State: pipeline.StateUploading}
			if err := store.Save(ctx, job); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if got, err := store.FindByHash(ctx, "h1", "n"); err != nil || got != nil {
				t.Fatalf("unfinished job must not be indexed, got %+v, %v", got, err)
			}

			job.State = pipeline.StateDone
			if err := store.Save(ctx, job); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			got, err := store.FindByHash(ctx, "h1", "n")
			if err != nil {
				t.Fatalf("FindByHash failed: %v", err)
			}
			if got == nil || got.ID != "j" {
				t.Fatalf("expected job j, got %+v", got)
			}
		})
	}
}

func TestStore_FindByHashPerName(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, job := range []*pipeline.Job{
				{ID: "ja", Name: "a", ContentHash: "h1", State: pipeline.StateDone},
				{ID: "jb", Name: "b", ContentHash: "h1", State: pipeline.StateDone},
			} {
				if err := store.Save(ctx, job); err != nil {
					t.Fatalf("Save failed: %v", err)
				}
			}

			for wantName, wantID := range map[string]string{"a": "ja", "b": "jb"} {
				got, err := store.FindByHash(ctx, "h1", wantName)
				if err != nil {
					t.Fatalf("FindByHash failed: %v", err)
				}
				if got == nil || got.ID != wantID {
					t.Fatalf("name %q: expected job %s, got %+v", wantName, wantID, got)
				}
			}
			if got, err := store.FindByHash(ctx, "h1", "c"); err != nil || got != nil {
				t.Fatalf("expected miss for unknown name, got %+v, %v", got, err)
			}
		})
	}
}

func TestRedisStore_KeysAndTTL(t *testing.T) {
	store, mini := newRedisStore(t, time.Hour)
	ctx := context.Background()

	job := &pipeline.Job{ID: "j1", Name: "clip", ContentHash: "deadbeef", State: pipeline.StateDone}
	if err := store.Save(ctx, job); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !mini.Exists("vs:job:j1") {
		t.Fatal("expected job key vs:job:j1")
	}
	id, err := mini.Get("vs:job-hash:deadbeef:clip")
	if err != nil || id != "j1" {
		t.Fatalf("expected hash index to point at j1, got %q (%v)", id, err)
	}
	if ttl := mini.TTL("vs:job:j1"); ttl != time.Hour {
		t.Errorf("expected 1h ttl, got %v", ttl)
	}
}

func TestRedisStore_DanglingIndex(t *testing.T) {
	store, mini := newRedisStore(t, 0)
	if err := mini.Set("vs:job-hash:cafe:clip", "gone"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	got, err := store.FindByHash(context.Background(), "cafe", "clip")
	if err != nil || got != nil {
		t.Fatalf("expected miss for dangling index, got %+v, %v", got, err)
	}
}

func TestRunner_WithRedisStore(t *testing.T) {
	store, _ := newRedisStore(t, 0)
	f := &fakeStages{}
	r, err := pipeline.NewRunner(testConfig(t), f.stages(), store, logger.Nop())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	first, err := r.Run(context.Background(), pipeline.Request{Name: "shared", Video: strings.NewReader("bytes")})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	second, err := r.Run(context.Background(), pipeline.Request{Name: "shared", Video: strings.NewReader("bytes")})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("expected redis-backed dedup to return the earlier job")
	}
}
