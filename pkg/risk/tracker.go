package risk

import (
	"time"
)

// TrackerConfig holds the tuning knobs for behavioral aggregation.
// These are policy values, configured externally - see config.Config.
type TrackerConfig struct {
	WindowSize    int // most recent N messages kept per user
	EscalateCount int // elevated messages in window that trigger ESCALATE
	MonitorCount  int // elevated messages in window that trigger MONITOR
	SnippetMaxLen int // max chars of each message retained
}

// DefaultTrackerConfig returns the default aggregation policy.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		WindowSize:    5,
		EscalateCount: 3,
		MonitorCount:  1,
		SnippetMaxLen: 100,
	}
}

// SignalRecord is one entry in a user's rolling message window.
type SignalRecord struct {
	Snippet   string    `json:"snippet"` // truncated, never the full text
	Level     Level     `json:"level"`
	Timestamp time.Time `json:"timestamp"`
}

// SignalTracker accumulates a bounded window of one user's recent message
// risk levels. One tracker per user; the tracker itself is not safe for
// concurrent use - TrackerStore serializes access.
type SignalTracker struct {
	cfg     TrackerConfig
	history []SignalRecord
	now     func() time.Time
}

// NewSignalTracker creates a tracker with the given policy.
func NewSignalTracker(cfg TrackerConfig) *SignalTracker {
	if cfg.WindowSize < 1 {
		cfg.WindowSize = 1
	}
	if cfg.SnippetMaxLen <= 0 {
		cfg.SnippetMaxLen = 100
	}
	return &SignalTracker{
		cfg:     cfg,
		history: make([]SignalRecord, 0, cfg.WindowSize),
		now:     time.Now,
	}
}

// AddMessage appends a message's assessed level to the window, evicting
// the oldest entry once the window is full.
func (t *SignalTracker) AddMessage(text string, level Level) {
	t.history = append(t.history, SignalRecord{
		Snippet:   Truncate(text, t.cfg.SnippetMaxLen),
		Level:     level,
		Timestamp: t.now(),
	})
	if len(t.history) > t.cfg.WindowSize {
		t.history = t.history[len(t.history)-t.cfg.WindowSize:]
	}
}

// History returns the current window, oldest first.
func (t *SignalTracker) History() []SignalRecord {
	out := make([]SignalRecord, len(t.history))
	copy(out, t.history)
	return out
}

// BehavioralRisk aggregates the window into a recommendation. The result
// is a pure function of the window contents: ESCALATE once the configured
// count of elevated-risk (MEDIUM+) messages is reached, MONITOR when any
// are present below that, otherwise none.
func (t *SignalTracker) BehavioralRisk() Verdict {
	elevated := 0
	for _, rec := range t.history {
		if rec.Level.Elevated() {
			elevated++
		}
	}

	v := Verdict{
		Recommendation: RecommendNone,
		ElevatedCount:  elevated,
		WindowSize:     t.cfg.WindowSize,
	}
	switch {
	case elevated >= t.cfg.EscalateCount:
		v.Recommendation = RecommendEscalate
	case elevated >= t.cfg.MonitorCount:
		v.Recommendation = RecommendMonitor
	}
	return v
}

// Truncate shortens text to at most max runes without splitting a rune.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
