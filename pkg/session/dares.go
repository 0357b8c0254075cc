package session

import (
	"math/rand"
)

// Skipping a question is not a silent action: the engine offers a
// randomly chosen consolation dare from the pool for the session's mode.
// Premium modes borrow the solo dares.
var darePools = map[Mode][]string{
	ModeSolo: {
		"Take three slow breaths before drawing the next card.",
		"Write one sentence about why this question felt hard.",
		"Name the feeling that made you skip, even just to yourself.",
		"Stand up and stretch for ten seconds.",
		"Think of one person you could ask this question instead.",
	},
	ModeDuo: {
		"Give the other person a genuine compliment.",
		"Let the other person pick your next question.",
		"Share the short version: answer in exactly five words.",
		"Swap seats before the next card.",
		"Tell them why you skipped, in one sentence.",
	},
	ModeGroup: {
		"Do your best impression of someone in the group (kindly).",
		"Let the group vote on your next question.",
		"Share a one-word answer instead of skipping fully.",
		"Lead the group in one collective deep breath.",
		"Pass the question to the person across from you.",
	},
}

// randomDare picks a dare for the mode. Modes without a dedicated pool
// fall back to the solo pool.
func randomDare(rng *rand.Rand, mode Mode) string {
	pool, ok := darePools[mode]
	if !ok || len(pool) == 0 {
		pool = darePools[ModeSolo]
	}
	return pool[rng.Intn(len(pool))]
}
