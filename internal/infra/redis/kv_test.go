package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-vault/internal/storage"
)

func TestKVSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	kv := NewKV(newClient(mr), "quiz:")
	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, "quizUser"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, "quizUser", `{"id":"user-1"}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("quiz:quizUser") {
		t.Fatalf("expected prefixed redis key to be set")
	}
	if ttl := mr.TTL("quiz:quizUser"); ttl != 0 {
		t.Fatalf("expected no expiry, got %v", ttl)
	}

	if err := kv.Delete(ctx, "quizUser"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("quiz:quizUser") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestStoreSeedsRedisOnce(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := storage.NewStore(NewKV(newClient(mr), ""))
	if err := store.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	questions, err := store.Questions(ctx)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != 4 {
		t.Fatalf("expected 4 seeded questions, got %d", len(questions))
	}

	if err := store.WriteQuestions(ctx, questions[:1]); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := store.Initialize(ctx); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
	questions, _ = store.Questions(ctx)
	if len(questions) != 1 {
		t.Fatalf("expected existing data preserved, got %d questions", len(questions))
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
