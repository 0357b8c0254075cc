package risk

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestBehavioralRiskThresholds(t *testing.T) {
	testCases := []struct {
		name   string
		levels []Level
		want   Recommendation
	}{
		{
			name:   "empty window",
			levels: nil,
			want:   RecommendNone,
		},
		{
			name:   "clean messages only",
			levels: []Level{LevelNone, LevelNone, LevelLow},
			want:   RecommendNone,
		},
		{
			name:   "single medium triggers monitor",
			levels: []Level{LevelNone, LevelMedium},
			want:   RecommendMonitor,
		},
		{
			name:   "two medium stays at monitor",
			levels: []Level{LevelMedium, LevelNone, LevelMedium},
			want:   RecommendMonitor,
		},
		{
			name:   "three medium triggers escalate",
			levels: []Level{LevelMedium, LevelMedium, LevelMedium},
			want:   RecommendEscalate,
		},
		{
			name:   "mix of medium and high counts together",
			levels: []Level{LevelMedium, LevelHigh, LevelMedium},
			want:   RecommendEscalate,
		},
		{
			name:   "low levels never count as elevated",
			levels: []Level{LevelLow, LevelLow, LevelLow, LevelLow},
			want:   RecommendNone,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tracker := NewSignalTracker(DefaultTrackerConfig())
			for i, lvl := range tc.levels {
				tracker.AddMessage(fmt.Sprintf("message %d", i), lvl)
			}

			got := tracker.BehavioralRisk()
			if got.Recommendation != tc.want {
				t.Errorf("recommendation = %s, want %s (window %v)", got.Recommendation, tc.want, tc.levels)
			}
		})
	}
}

func TestWindowEviction(t *testing.T) {
	cfg := DefaultTrackerConfig()
	cfg.WindowSize = 5
	tracker := NewSignalTracker(cfg)

	// Three elevated messages, then enough clean ones to push them out.
	tracker.AddMessage("a", LevelMedium)
	tracker.AddMessage("b", LevelMedium)
	tracker.AddMessage("c", LevelMedium)
	if got := tracker.BehavioralRisk(); got.Recommendation != RecommendEscalate {
		t.Fatalf("after 3 medium: recommendation = %s, want escalate", got.Recommendation)
	}

	for i := 0; i < 5; i++ {
		tracker.AddMessage(fmt.Sprintf("clean %d", i), LevelNone)
	}

	got := tracker.BehavioralRisk()
	if got.Recommendation != RecommendNone {
		t.Errorf("after window rolled over: recommendation = %s, want none", got.Recommendation)
	}
	if got.ElevatedCount != 0 {
		t.Errorf("elevated count = %d, want 0", got.ElevatedCount)
	}
	if len(tracker.History()) != 5 {
		t.Errorf("history length = %d, want window size 5", len(tracker.History()))
	}
}

func TestWindowKeepsMostRecent(t *testing.T) {
	cfg := DefaultTrackerConfig()
	cfg.WindowSize = 3
	tracker := NewSignalTracker(cfg)

	for i := 0; i < 6; i++ {
		tracker.AddMessage(fmt.Sprintf("m%d", i), LevelNone)
	}

	hist := tracker.History()
	if len(hist) != 3 {
		t.Fatalf("history length = %d, want 3", len(hist))
	}
	for i, want := range []string{"m3", "m4", "m5"} {
		if hist[i].Snippet != want {
			t.Errorf("hist[%d].Snippet = %q, want %q", i, hist[i].Snippet, want)
		}
	}
}

func TestSnippetTruncation(t *testing.T) {
	tracker := NewSignalTracker(DefaultTrackerConfig())
	long := strings.Repeat("x", 500)
	tracker.AddMessage(long, LevelLow)

	hist := tracker.History()
	if len(hist[0].Snippet) != 100 {
		t.Errorf("snippet length = %d, want 100", len(hist[0].Snippet))
	}
}

func TestTruncate(t *testing.T) {
	testCases := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "hé"}, // rune boundary, not byte
		{"hello", 0, ""},
		{"", 5, ""},
	}

	for _, tc := range testCases {
		if got := Truncate(tc.in, tc.max); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestTrackerStoreObserve(t *testing.T) {
	store := NewTrackerStore(DefaultTrackerConfig())
	defer store.Close()

	// Separate users have separate windows.
	for i := 0; i < 3; i++ {
		if _, err := store.Observe("alice", "rough day", LevelMedium); err != nil {
			t.Fatal(err)
		}
	}
	v, err := store.Observe("bob", "feeling hopeless", LevelMedium)
	if err != nil {
		t.Fatal(err)
	}
	if v.Recommendation != RecommendMonitor {
		t.Errorf("bob after one medium: %s, want monitor", v.Recommendation)
	}

	v, err = store.Verdict("alice")
	if err != nil {
		t.Fatal(err)
	}
	if v.Recommendation != RecommendEscalate {
		t.Errorf("alice after three medium: %s, want escalate", v.Recommendation)
	}

	if store.Len() != 2 {
		t.Errorf("store has %d trackers, want 2", store.Len())
	}
}

func TestTrackerStoreEmptyUserID(t *testing.T) {
	store := NewTrackerStore(DefaultTrackerConfig())
	defer store.Close()

	if _, err := store.Observe("", "text", LevelNone); err != ErrEmptyUserID {
		t.Errorf("Observe with empty user: err = %v, want ErrEmptyUserID", err)
	}
	if _, err := store.Verdict(""); err != ErrEmptyUserID {
		t.Errorf("Verdict with empty user: err = %v, want ErrEmptyUserID", err)
	}
}

func TestTrackerStoreUnknownUser(t *testing.T) {
	store := NewTrackerStore(DefaultTrackerConfig())
	defer store.Close()

	v, err := store.Verdict("nobody")
	if err != nil {
		t.Fatal(err)
	}
	if v.Recommendation != RecommendNone || v.ElevatedCount != 0 {
		t.Errorf("unknown user verdict = %+v, want empty", v)
	}
}

func TestTrackerStoreForget(t *testing.T) {
	store := NewTrackerStore(DefaultTrackerConfig())
	defer store.Close()

	store.Observe("alice", "x", LevelMedium)
	store.Forget("alice")

	if store.Len() != 0 {
		t.Errorf("store has %d trackers after Forget, want 0", store.Len())
	}
}

func TestTrackerStoreEviction(t *testing.T) {
	store := NewTrackerStore(DefaultTrackerConfig(),
		WithTrackerTTL(10*time.Millisecond),
		WithCleanupInterval(5*time.Millisecond))
	defer store.Close()

	store.Observe("alice", "x", LevelNone)

	deadline := time.Now().Add(time.Second)
	for store.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if store.Len() != 0 {
		t.Error("idle tracker was not evicted")
	}
}
