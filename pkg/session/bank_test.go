package session

import "testing"

func TestDefaultBank(t *testing.T) {
	b := DefaultBank()

	for _, mode := range []Mode{ModeSolo, ModeDuo, ModeGroup} {
		for level := MinLevel; level <= MaxLevel; level++ {
			qs := b.ModeQuestions(mode, level)
			if len(qs) == 0 {
				t.Errorf("mode %s level %d has no questions", mode, level)
			}
			for _, q := range qs {
				if q.Level != level {
					t.Errorf("mode %s level %d question tagged %d", mode, level, q.Level)
				}
				if q.Source != SourceBase {
					t.Errorf("bank question source = %s", q.Source)
				}
			}
		}
	}

	for _, path := range []string{"healing", "self-discovery"} {
		for level := MinLevel; level <= MaxLevel; level++ {
			if len(b.PathQuestions(path, level)) == 0 {
				t.Errorf("path %s level %d has no questions", path, level)
			}
		}
	}

	deck := b.DeckQuestions("depth")
	if len(deck) == 0 {
		t.Fatal("depth deck is empty")
	}
	perLevel := make(map[int]int)
	for _, q := range deck {
		perLevel[q.Level]++
	}
	for level := MinLevel; level <= MaxLevel; level++ {
		if perLevel[level] == 0 {
			t.Errorf("depth deck has no level-%d entries", level)
		}
	}
}

func TestBankUnknownKeys(t *testing.T) {
	b := DefaultBank()

	if qs := b.ModeQuestions("karaoke", 1); qs != nil {
		t.Errorf("unknown mode returned %v", qs)
	}
	if qs := b.PathQuestions("nonexistent", 1); qs != nil {
		t.Errorf("unknown path returned %v", qs)
	}
	if qs := b.DeckQuestions("nonexistent"); len(qs) != 0 {
		t.Errorf("unknown deck returned %v", qs)
	}
}

func TestParseBank(t *testing.T) {
	testCases := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{
			name: "valid",
			yaml: "version: 1\nmodes:\n  solo:\n    levels:\n      1: [q]\n",
		},
		{
			name:    "unknown mode",
			yaml:    "version: 1\nmodes:\n  trivia:\n    levels:\n      1: [q]\n",
			wantErr: true,
		},
		{
			name:    "deck level out of range",
			yaml:    "version: 1\ndecks:\n  d:\n    questions:\n      - content: q\n        level: 4\n",
			wantErr: true,
		},
		{
			name:    "not yaml",
			yaml:    "{{{",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseBank([]byte(tc.yaml))
			if tc.wantErr && err == nil {
				t.Error("expected parse error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("ParseBank() error = %v", err)
			}
		})
	}
}

func TestProgressUnlockBookkeeping(t *testing.T) {
	p := &Progress{UnlockedLevels: []int{1}}

	if !p.unlock(3) {
		t.Error("first unlock of 3 should succeed")
	}
	if !p.unlock(2) {
		t.Error("first unlock of 2 should succeed")
	}
	if p.unlock(2) {
		t.Error("second unlock of 2 should be a no-op")
	}

	want := []int{1, 2, 3}
	if len(p.UnlockedLevels) != len(want) {
		t.Fatalf("unlocked levels = %v, want %v", p.UnlockedLevels, want)
	}
	for i := range want {
		if p.UnlockedLevels[i] != want[i] {
			t.Fatalf("unlocked levels = %v, want sorted %v", p.UnlockedLevels, want)
		}
	}
	if p.MaxUnlocked() != 3 {
		t.Errorf("max unlocked = %d, want 3", p.MaxUnlocked())
	}
}
