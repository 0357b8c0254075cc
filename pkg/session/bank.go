package session

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed banks.yaml
var embeddedBanks []byte

// Bank is the static question bank, keyed by mode+level (and by path or
// deck name for the premium modes). Loaded once from versioned YAML.
type Bank struct {
	Version int
	modes   map[Mode]map[int][]string
	paths   map[string]map[int][]string
	decks   map[string][]Question
}

type bankFile struct {
	Version int `yaml:"version"`
	Modes   map[string]struct {
		Levels map[int][]string `yaml:"levels"`
	} `yaml:"modes"`
	Paths map[string]struct {
		Levels map[int][]string `yaml:"levels"`
	} `yaml:"paths"`
	Decks map[string]struct {
		Questions []struct {
			Content string `yaml:"content"`
			Level   int    `yaml:"level"`
		} `yaml:"questions"`
	} `yaml:"decks"`
}

var (
	defaultBank     *Bank
	defaultBankOnce sync.Once
)

// DefaultBank returns the bank parsed from the embedded banks table.
func DefaultBank() *Bank {
	defaultBankOnce.Do(func() {
		b, err := ParseBank(embeddedBanks)
		if err != nil {
			panic(fmt.Sprintf("embedded question bank: %v", err))
		}
		defaultBank = b
	})
	return defaultBank
}

// ParseBank parses a YAML question bank.
func ParseBank(data []byte) (*Bank, error) {
	var file bankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	b := &Bank{
		Version: file.Version,
		modes:   make(map[Mode]map[int][]string),
		paths:   make(map[string]map[int][]string),
		decks:   make(map[string][]Question),
	}

	for name, entry := range file.Modes {
		mode := Mode(name)
		if !mode.Valid() {
			return nil, fmt.Errorf("unknown mode %q", name)
		}
		b.modes[mode] = entry.Levels
	}
	for name, entry := range file.Paths {
		b.paths[name] = entry.Levels
	}
	for name, entry := range file.Decks {
		var qs []Question
		for _, q := range entry.Questions {
			if q.Level < MinLevel || q.Level > MaxLevel {
				return nil, fmt.Errorf("deck %q: question level %d out of range", name, q.Level)
			}
			qs = append(qs, Question{Content: q.Content, Source: SourceBase, Level: q.Level})
		}
		b.decks[name] = qs
	}

	return b, nil
}

// ModeQuestions returns the base questions for a plain mode at one level.
func (b *Bank) ModeQuestions(mode Mode, level int) []Question {
	levels, ok := b.modes[mode]
	if !ok {
		return nil
	}
	var out []Question
	for _, content := range levels[level] {
		out = append(out, Question{Content: content, Source: SourceBase, Level: level})
	}
	return out
}

// PathQuestions returns the questions for a premium path at one level.
func (b *Bank) PathQuestions(path string, level int) []Question {
	levels, ok := b.paths[path]
	if !ok {
		return nil
	}
	var out []Question
	for _, content := range levels[level] {
		out = append(out, Question{Content: content, Source: SourceBase, Level: level})
	}
	return out
}

// DeckQuestions returns the full leveled question list for a premium deck.
func (b *Bank) DeckQuestions(deck string) []Question {
	return append([]Question(nil), b.decks[deck]...)
}
