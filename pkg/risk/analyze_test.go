package risk

import (
	"reflect"
	"testing"
)

func TestAnalyzeTextLevels(t *testing.T) {
	a := NewAnalyzer(nil)

	testCases := []struct {
		name      string
		text      string
		wantLevel Level
	}{
		{
			name:      "high tier phrase",
			text:      "I want to kill myself",
			wantLevel: LevelHigh,
		},
		{
			name:      "high tier uppercase",
			text:      "I WANT TO KILL MYSELF",
			wantLevel: LevelHigh,
		},
		{
			name:      "high tier mixed case with surrounding text",
			text:      "honestly some days I think about Ending My Life but I keep going",
			wantLevel: LevelHigh,
		},
		{
			name:      "medium tier phrase",
			text:      "I feel hopeless about all of this",
			wantLevel: LevelMedium,
		},
		{
			name:      "low tier phrase",
			text:      "just feeling so alone tonight",
			wantLevel: LevelLow,
		},
		{
			name:      "multiple tiers takes highest",
			text:      "so alone and hopeless, I want to hurt myself",
			wantLevel: LevelHigh,
		},
		{
			name:      "clean text",
			text:      "Had a lovely walk in the park and called my sister",
			wantLevel: LevelNone,
		},
		{
			name:      "empty text",
			text:      "",
			wantLevel: LevelNone,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := a.AnalyzeText(tc.text)
			if err != nil {
				t.Fatalf("AnalyzeText(%q) error = %v", tc.text, err)
			}
			if got.Level != tc.wantLevel {
				t.Errorf("AnalyzeText(%q) level = %s, want %s", tc.text, got.Level, tc.wantLevel)
			}
			if tc.wantLevel == LevelNone && len(got.Matches) != 0 {
				t.Errorf("clean text should have no matches, got %v", got.Matches)
			}
			if tc.wantLevel != LevelNone && len(got.Matches) == 0 {
				t.Errorf("expected matches for %q, got none", tc.text)
			}
		})
	}
}

func TestAnalyzeTextMatchEvidence(t *testing.T) {
	a := NewAnalyzer(nil)

	got, err := a.AnalyzeText("I want to kill myself")
	if err != nil {
		t.Fatal(err)
	}
	if got.Level != LevelHigh {
		t.Fatalf("level = %s, want high", got.Level)
	}
	found := false
	for _, m := range got.Matches {
		if m == "kill myself" {
			found = true
		}
	}
	if !found {
		t.Errorf("matches should include the triggering phrase, got %v", got.Matches)
	}
}

func TestAnalyzeTextMatchOrdering(t *testing.T) {
	a := NewAnalyzer(nil)

	// Lower tier phrase occurs first in the text; matches must be in
	// occurrence order, not tier order.
	got, err := a.AnalyzeText("feeling so alone, and sometimes I want to die")
	if err != nil {
		t.Fatal(err)
	}
	if got.Level != LevelHigh {
		t.Fatalf("level = %s, want high", got.Level)
	}
	if len(got.Matches) < 2 {
		t.Fatalf("expected at least 2 matches, got %v", got.Matches)
	}
	if got.Matches[0] != "so alone" {
		t.Errorf("first match = %q, want the earliest occurrence %q", got.Matches[0], "so alone")
	}
}

func TestAnalyzeTextIdempotent(t *testing.T) {
	a := NewAnalyzer(nil)
	text := "hopeless and so alone, can't cope"

	first, err := a.AnalyzeText(text)
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.AnalyzeText(text)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated analysis differs: %+v vs %+v", first, second)
	}
}

func TestAnalyzeTextInvalidUTF8(t *testing.T) {
	a := NewAnalyzer(nil)

	_, err := a.AnalyzeText(string([]byte{0xff, 0xfe, 0xfd}))
	if err == nil {
		t.Fatal("expected error for invalid UTF-8")
	}
	if _, ok := err.(*InvalidInputError); !ok {
		t.Errorf("error type = %T, want *InvalidInputError", err)
	}
}

func TestAnalyzeTextUnicodeFolding(t *testing.T) {
	a := NewAnalyzer(nil)

	// Full-width characters normalize to their ASCII forms under NFKC.
	got, err := a.AnalyzeText("ｋｉｌｌ ｍｙｓｅｌｆ")
	if err != nil {
		t.Fatal(err)
	}
	if got.Level != LevelHigh {
		t.Errorf("full-width text level = %s, want high", got.Level)
	}
}

func TestVocabularyParse(t *testing.T) {
	testCases := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{
			name: "valid table",
			yaml: "version: 2\ntiers:\n  high: [bad phrase]\n  low: [mild phrase]\n",
		},
		{
			name:    "unknown tier",
			yaml:    "version: 1\ntiers:\n  critical: [phrase]\n",
			wantErr: true,
		},
		{
			name:    "empty phrase",
			yaml:    "version: 1\ntiers:\n  high: ['']\n",
			wantErr: true,
		},
		{
			name:    "no tiers",
			yaml:    "version: 1\n",
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
			v, err := ParseVocabulary([]byte(tc.yaml))
			if tc.wantErr {
				if err == nil {
					t.Error("expected parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVocabulary() error = %v", err)
			}
			if len(v.Phrases()) == 0 {
				t.Error("expected phrases")
			}
		})
	}
}

func TestDefaultVocabulary(t *testing.T) {
	v := Default()
	if v.TierCount(LevelHigh) < 10 {
		t.Errorf("embedded high tier has %d phrases, want at least 10", v.TierCount(LevelHigh))
	}
	if v.TierCount(LevelMedium) == 0 || v.TierCount(LevelLow) == 0 {
		t.Error("embedded table should populate all three tiers")
	}

	if v2 := Default(); v2 != v {
		t.Error("Default() should return the same vocabulary instance")
	}
}

func BenchmarkAnalyzeText(b *testing.B) {
	a := NewAnalyzer(nil)
	text := "long journal entry about a rough week, feeling overwhelmed but mostly holding it together day by day"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = a.AnalyzeText(text)
	}
}
