// Package risk implements the crisis-risk signal engine for user-authored
// text: lexical detection of crisis language, per-user behavioral tracking
// over a rolling window, and the caller-side decision policy that turns a
// risk level into a UI action.
//
// Detection is deliberately a pure lexical match against a tiered phrase
// vocabulary. It does not attempt paraphrase or semantic detection; the
// matched phrases are returned as evidence so callers can audit decisions.
package risk

// Level is the severity of detected risk in a single text sample.
type Level string

const (
	LevelNone   Level = "none"
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// rank orders levels for highest-severity-wins aggregation.
var rank = map[Level]int{
	LevelNone:   0,
	LevelLow:    1,
	LevelMedium: 2,
	LevelHigh:   3,
}

// Rank returns the numeric severity of a level (0 = none, 3 = high).
// Unknown levels rank as none.
func (l Level) Rank() int {
	return rank[l]
}

// AtLeast reports whether l is at or above the given severity.
func (l Level) AtLeast(other Level) bool {
	return l.Rank() >= other.Rank()
}

// Elevated reports whether the level counts toward behavioral escalation.
func (l Level) Elevated() bool {
	return l.Rank() >= rank[LevelMedium]
}

// Assessment is the result of analyzing a single text sample.
// It is created per call and never persisted by the engine itself.
type Assessment struct {
	Level   Level    `json:"level"`
	Matches []string `json:"matches"` // matched phrases in order of first occurrence
}

// Recommendation is the aggregate verdict over a user's recent messages.
type Recommendation string

const (
	RecommendNone     Recommendation = "none"
	RecommendMonitor  Recommendation = "monitor"
	RecommendEscalate Recommendation = "escalate"
)

// Verdict is the output of behavioral-risk aggregation. It is a pure
// function of the tracker's window; there is no hidden state behind it.
type Verdict struct {
	Recommendation Recommendation `json:"recommendation"`
	ElevatedCount  int            `json:"elevated_count"` // MEDIUM+ messages in the window
	WindowSize     int            `json:"window_size"`
}
