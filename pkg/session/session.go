// Package session implements the guided-session progression engine for
// the conversation card experience: leveled question delivery, unlock
// thresholds, shuffle/draw mechanics, and session bookkeeping with
// save/restore through a pluggable store.
//
// The engine holds no hidden state. All session state lives in Progress,
// which callers thread through Engine operations explicitly and which
// round-trips through the Store as JSON.
package session

import (
	"fmt"
	"time"
)

// Mode selects the active question pool.
type Mode string

const (
	ModeSolo        Mode = "solo"
	ModeDuo         Mode = "duo"
	ModeGroup       Mode = "group"
	ModePremiumPath Mode = "premium_path"
	ModePremiumDeck Mode = "premium_deck"
)

// Valid reports whether the mode is one of the known pools.
func (m Mode) Valid() bool {
	switch m {
	case ModeSolo, ModeDuo, ModeGroup, ModePremiumPath, ModePremiumDeck:
		return true
	}
	return false
}

// Source identifies where a question came from.
type Source string

const (
	SourceBase      Source = "base"      // static question bank
	SourceCustom    Source = "custom"    // the user's own cards
	SourceCommunity Source = "community" // approved cards shared by other users
)

// Levels are depth/intimacy tiers. Level 1 is always unlocked.
const (
	MinLevel = 1
	MaxLevel = 3
)

// Question is one pool entry. Level is an explicit tag on every entry;
// it is never inferred from position in the pool.
type Question struct {
	Content string `json:"content"`
	Source  Source `json:"source"`
	Level   int    `json:"level"`
}

// Response is one append-only audit-trail entry, recorded per Next/Skip
// action. It feeds end-of-session summarization.
type Response struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Level     int       `json:"level"`
	Mode      Mode      `json:"mode"`
	Skipped   bool      `json:"skipped"`
	Timestamp time.Time `json:"timestamp"`
}

// Progress is the complete state of one game session. It is serialized
// to the store after every mutation while the session is active.
type Progress struct {
	ID   string `json:"id"`
	Mode Mode   `json:"mode"`

	// Premium selectors, used only by the premium modes.
	Path    string `json:"path,omitempty"`
	Deck    string `json:"deck,omitempty"`
	Stacked bool   `json:"stacked,omitempty"`

	CurrentLevel             int   `json:"current_level"`
	UnlockedLevels           []int `json:"unlocked_levels"` // sorted, monotonically non-decreasing
	QuestionsAnsweredAtLevel int   `json:"questions_answered_at_level"`

	// Pool state. Questions is assembled once per level/mode change;
	// ShuffledIndices is a permutation of its indices.
	Questions       []Question `json:"questions"`
	ShuffledIndices []int      `json:"shuffled_indices"`
	CurrentIndex    int        `json:"current_index"`

	// AnsweredKeys accumulates (content, mode, level) keys across the
	// whole session. Stats display only - previously answered questions
	// are NOT excluded from future draws.
	AnsweredKeys map[string]bool `json:"answered_keys"`

	Responses []Response `json:"responses"`

	// CustomCards are the caller's own card texts, kept so a pool reload
	// on level switch can reassemble them.
	CustomCards []string `json:"custom_cards,omitempty"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// normalize repairs optional fields after deserialization. A record
// written by an earlier schema (or another writer to the shared key) may
// carry the answered-keys map as null or omit the unlocked set; loading
// such a record must still hand back a usable session.
func (p *Progress) normalize() {
	if p.AnsweredKeys == nil {
		p.AnsweredKeys = make(map[string]bool)
	}
	if len(p.UnlockedLevels) == 0 {
		p.UnlockedLevels = []int{MinLevel}
	}
}

// IsUnlocked reports whether a level is available for manual switching.
func (p *Progress) IsUnlocked(level int) bool {
	for _, l := range p.UnlockedLevels {
		if l == level {
			return true
		}
	}
	return false
}

// unlock adds a level to the unlocked set. Idempotent; levels are never
// re-locked within a session.
func (p *Progress) unlock(level int) bool {
	if p.IsUnlocked(level) {
		return false
	}
	// Insert keeping the slice sorted.
	pos := len(p.UnlockedLevels)
	for i, l := range p.UnlockedLevels {
		if level < l {
			pos = i
			break
		}
	}
	p.UnlockedLevels = append(p.UnlockedLevels, 0)
	copy(p.UnlockedLevels[pos+1:], p.UnlockedLevels[pos:])
	p.UnlockedLevels[pos] = level
	return true
}

// MaxUnlocked returns the highest unlocked level.
func (p *Progress) MaxUnlocked() int {
	max := MinLevel
	for _, l := range p.UnlockedLevels {
		if l > max {
			max = l
		}
	}
	return max
}

// CurrentQuestion returns the question under the draw pointer.
func (p *Progress) CurrentQuestion() (Question, error) {
	if len(p.Questions) == 0 || len(p.ShuffledIndices) == 0 {
		return Question{}, ErrEmptyPool
	}
	if p.CurrentIndex < 0 || p.CurrentIndex >= len(p.ShuffledIndices) {
		return Question{}, fmt.Errorf("draw pointer %d out of range", p.CurrentIndex)
	}
	return p.Questions[p.ShuffledIndices[p.CurrentIndex]], nil
}

// answeredKey builds the composite stats key for a question.
func answeredKey(content string, mode Mode, level int) string {
	return fmt.Sprintf("%s|%s|%d", content, mode, level)
}

// Summary is the end-of-session view derived from the audit trail.
type Summary struct {
	SessionID      string        `json:"session_id"`
	Mode           Mode          `json:"mode"`
	Answered       int           `json:"answered"`
	Skipped        int           `json:"skipped"`
	UniqueAnswered int           `json:"unique_answered"`
	LevelsReached  []int         `json:"levels_reached"`
	Duration       time.Duration `json:"duration"`
}

// Summarize folds the response trail into a Summary.
func (p *Progress) Summarize(now time.Time) *Summary {
	s := &Summary{
		SessionID:      p.ID,
		Mode:           p.Mode,
		UniqueAnswered: len(p.AnsweredKeys),
		LevelsReached:  append([]int(nil), p.UnlockedLevels...),
		Duration:       now.Sub(p.StartedAt),
	}
	for _, r := range p.Responses {
		if r.Skipped {
			s.Skipped++
		} else {
			s.Answered++
		}
	}
	return s
}
