package risk

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestNewCrisisEvent(t *testing.T) {
	text := strings.Repeat("a", 300)
	ev := NewCrisisEvent("alice", "post", text, LevelHigh, []string{"kill myself"}, 100)

	if ev.ID == "" {
		t.Error("event should get an ID")
	}
	if len(ev.Snippet) != 100 {
		t.Errorf("snippet length = %d, want 100", len(ev.Snippet))
	}
	if ev.Level != LevelHigh {
		t.Errorf("level = %s, want high", ev.Level)
	}
	if ev.CreatedAt.IsZero() {
		t.Error("created at should be set")
	}
}

func TestMemoryRecorder(t *testing.T) {
	ctx := context.Background()
	rec := NewMemoryRecorder()

	for i := 0; i < 4; i++ {
		ev := NewCrisisEvent("alice", "post", fmt.Sprintf("text %d", i), LevelHigh, nil, 100)
		if err := rec.Record(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}
	other := NewCrisisEvent("bob", "comment", "other text", LevelMedium, nil, 100)
	if err := rec.Record(ctx, other); err != nil {
		t.Fatal(err)
	}

	events, err := rec.ListByUser(ctx, "alice", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 4 {
		t.Fatalf("alice has %d events, want 4", len(events))
	}
	// Newest first.
	if events[0].Snippet != "text 3" {
		t.Errorf("first event snippet = %q, want newest", events[0].Snippet)
	}

	limited, err := rec.ListByUser(ctx, "alice", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("limited list has %d events, want 2", len(limited))
	}

	if rec.Len() != 5 {
		t.Errorf("recorder has %d events, want 5", rec.Len())
	}
}

func TestMemoryRecorderValidation(t *testing.T) {
	ctx := context.Background()
	rec := NewMemoryRecorder()

	if err := rec.Record(ctx, nil); err != ErrNilEvent {
		t.Errorf("nil event: err = %v, want ErrNilEvent", err)
	}
	if err := rec.Record(ctx, &CrisisEvent{}); err != ErrEmptyUserID {
		t.Errorf("missing user: err = %v, want ErrEmptyUserID", err)
	}
	if _, err := rec.ListByUser(ctx, "", 0); err != ErrEmptyUserID {
		t.Errorf("empty user list: err = %v, want ErrEmptyUserID", err)
	}
}
