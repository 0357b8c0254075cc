package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)
	p := sampleProgress()

	if err := store.Save(ctx, p); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected a stored session")
	}
	if got.ID != p.ID || got.CurrentLevel != p.CurrentLevel {
		t.Errorf("got %s/%d, want %s/%d", got.ID, got.CurrentLevel, p.ID, p.CurrentLevel)
	}
	if len(got.Responses) != len(p.Responses) {
		t.Errorf("responses = %d, want %d", len(got.Responses), len(p.Responses))
	}
}

func TestRedisStoreEmpty(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("missing key should load nil")
	}
}

func TestRedisStoreCorruptFailsSafe(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	mr.Set(sessionKey, "{definitely not json")

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("corrupt payload must not error, got %v", err)
	}
	if got != nil {
		t.Error("corrupt payload should load as no session")
	}
}

func TestRedisStoreRepairsLegacyRecord(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	// Another writer to the shared key may store a record without the
	// answered-keys map at all.
	mr.Set(sessionKey, `{"id":"legacy","mode":"solo","current_level":1,`+
		`"questions":[{"content":"q","source":"base","level":1}],`+
		`"shuffled_indices":[0],"current_index":0}`)

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected a stored session")
	}
	if got.AnsweredKeys == nil {
		t.Fatal("answered keys map should be initialized on load")
	}
	if len(got.UnlockedLevels) != 1 || got.UnlockedLevels[0] != MinLevel {
		t.Errorf("unlocked levels = %v, want [%d]", got.UnlockedLevels, MinLevel)
	}
}

func TestRedisStoreClear(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	if err := store.Save(ctx, sampleProgress()); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists(sessionKey) {
		t.Fatal("save did not write the session key")
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if mr.Exists(sessionKey) {
		t.Error("clear did not remove the session key")
	}
}

func TestRedisStoreCustomKey(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewRedisStore(client, WithKey("haven:session:test"))
	if err := store.Save(ctx, sampleProgress()); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("haven:session:test") {
		t.Error("save ignored the custom key")
	}
}
