package risk

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// The vocabulary is versioned external data, loaded once and shared.
// Tier placement is a policy decision owned by the table; the matcher
// never hardcodes phrases.

//go:embed vocabulary.yaml
var embeddedVocabulary []byte

// Phrase is a single vocabulary entry with its assigned severity tier.
type Phrase struct {
	Text  string // folded form used for matching
	Level Level
}

// Vocabulary holds the tiered phrase table used by the analyzer.
type Vocabulary struct {
	Version int
	phrases []Phrase // registration order: high tier first
}

// vocabularyFile is the on-disk YAML shape.
type vocabularyFile struct {
	Version int                 `yaml:"version"`
	Tiers   map[string][]string `yaml:"tiers"`
}

// global default vocabulary - parsed once from the embedded table
var (
	defaultVocab     *Vocabulary
	defaultVocabOnce sync.Once
)

// Default returns the vocabulary parsed from the embedded table.
// The embedded table is validated at build time, so this cannot fail.
func Default() *Vocabulary {
	defaultVocabOnce.Do(func() {
		v, err := ParseVocabulary(embeddedVocabulary)
		if err != nil {
			panic(&VocabularyError{Source: "embedded", Err: err})
		}
		defaultVocab = v
	})
	return defaultVocab
}

// LoadVocabulary reads a vocabulary table from a YAML file. An empty path
// returns the embedded default.
func LoadVocabulary(path string) (*Vocabulary, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &VocabularyError{Source: path, Err: err}
	}
	v, err := ParseVocabulary(data)
	if err != nil {
		return nil, &VocabularyError{Source: path, Err: err}
	}
	return v, nil
}

// ParseVocabulary parses a YAML vocabulary table. Phrases are folded at
// load time so matching never pays for normalization of the table.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var file vocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Tiers) == 0 {
		return nil, fmt.Errorf("no tiers defined")
	}

	v := &Vocabulary{Version: file.Version}

	// Register high -> medium -> low so MatchAny-style early exits see the
	// most severe phrases first.
	for _, tier := range []Level{LevelHigh, LevelMedium, LevelLow} {
		entries, ok := file.Tiers[string(tier)]
		if !ok {
			continue
		}
		for _, raw := range entries {
			folded := foldText(raw)
			if folded == "" {
				return nil, fmt.Errorf("tier %s contains an empty phrase", tier)
			}
			v.phrases = append(v.phrases, Phrase{Text: folded, Level: tier})
		}
	}

	for name := range file.Tiers {
		switch Level(name) {
		case LevelHigh, LevelMedium, LevelLow:
		default:
			return nil, fmt.Errorf("unknown tier %q", name)
		}
	}

	if len(v.phrases) == 0 {
		return nil, fmt.Errorf("no phrases defined")
	}
	return v, nil
}

// Phrases returns the registered phrases in severity order.
func (v *Vocabulary) Phrases() []Phrase {
	return v.phrases
}

// TierCount returns the number of phrases registered at a severity tier.
func (v *Vocabulary) TierCount(level Level) int {
	n := 0
	for _, p := range v.phrases {
		if p.Level == level {
			n++
		}
	}
	return n
}
