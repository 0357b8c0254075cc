package session

import (
	"math/rand"
	"time"
)

// Wildcards are a cosmetic engagement feature: at most one bonus prompt
// per session start, drawn outside the main pool and never touching the
// core Progress fields. The draw is deterministic during special
// time-of-day/day-of-week windows and probabilistic otherwise.

var wildcardPrompts = map[string][]string{
	"late_night": {
		"It's late. What thought keeps you up at this hour?",
		"If tonight had a title, what would it be?",
	},
	"sunrise": {
		"The day is just starting. What is one intention for it?",
		"What would make this morning feel unhurried?",
	},
	"weekend": {
		"No schedule today. What would rest actually look like?",
		"What is one thing this weekend you will do just for joy?",
	},
	"anytime": {
		"Wildcard: answer the question you wish someone would ask you.",
		"Wildcard: describe today in exactly three words.",
	},
}

// wildcardWindow classifies a local time into a bonus window, or "" when
// none applies. Late night means the small hours after midnight, not the
// evening: a 23:00 session start gets no window and falls through to the
// probabilistic draw. Late night wins over weekend when both apply.
func wildcardWindow(now time.Time) string {
	hour := now.Hour()
	switch {
	case hour < 5:
		return "late_night"
	case hour < 7:
		return "sunrise"
	}
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return "weekend"
	}
	return ""
}

// drawWildcard returns a bonus prompt when a window is active, or with
// the configured chance otherwise. ok=false means no wildcard this
// session.
func drawWildcard(rng *rand.Rand, now time.Time, chance float64) (string, bool) {
	window := wildcardWindow(now)
	if window == "" {
		if chance <= 0 || rng.Float64() >= chance {
			return "", false
		}
		window = "anytime"
	}
	prompts := wildcardPrompts[window]
	return prompts[rng.Intn(len(prompts))], true
}
