package session

import (
	"context"
)

// CardProvider supplies shared community cards for a mode+level. The
// pool builder treats it as an unreliable, read-only source: a fetch
// failure degrades the pool instead of failing assembly.
type CardProvider interface {
	Cards(ctx context.Context, mode Mode, level int) ([]Question, error)
}

// PoolBuilder assembles the active question pool from the static bank,
// the user's own custom cards, and the community card provider.
type PoolBuilder struct {
	bank      *Bank
	community CardProvider // nil disables community cards
}

// NewPoolBuilder creates a builder. A nil bank uses the embedded default;
// a nil provider disables community cards entirely.
func NewPoolBuilder(bank *Bank, community CardProvider) *PoolBuilder {
	if bank == nil {
		bank = DefaultBank()
	}
	return &PoolBuilder{bank: bank, community: community}
}

// Build assembles the pool for a session at one level. The returned
// warning is non-nil when the community fetch failed and the pool was
// degraded to base+custom; it is never a hard failure. ErrEmptyPool is
// returned only when assembly produced nothing at all.
//
// In stacked premium-deck sessions the whole deck is loaded at once and
// filtered to entries whose level is within the unlocked set (clamped to
// MaxLevel); other modes load exactly the requested level.
func (pb *PoolBuilder) Build(ctx context.Context, p *Progress) ([]Question, error, error) {
	var pool []Question

	switch p.Mode {
	case ModePremiumDeck:
		for _, q := range pb.bank.DeckQuestions(p.Deck) {
			if p.Stacked && !stackedIncludes(p, q.Level) {
				continue
			}
			pool = append(pool, q)
		}
	case ModePremiumPath:
		pool = append(pool, pb.bank.PathQuestions(p.Path, p.CurrentLevel)...)
	case ModeSolo, ModeDuo, ModeGroup:
		pool = append(pool, pb.bank.ModeQuestions(p.Mode, p.CurrentLevel)...)
	default:
		return nil, nil, ErrUnknownMode
	}

	for _, content := range p.CustomCards {
		if content == "" {
			continue
		}
		pool = append(pool, Question{Content: content, Source: SourceCustom, Level: p.CurrentLevel})
	}

	var warning error
	if pb.community != nil {
		cards, err := pb.community.Cards(ctx, p.Mode, p.CurrentLevel)
		if err != nil {
			warning = &DegradedFetchWarning{Err: err}
		} else {
			pool = append(pool, cards...)
		}
	}

	if len(pool) == 0 {
		return nil, warning, ErrEmptyPool
	}
	return pool, warning, nil
}

// stackedIncludes reports whether a question level is available in a
// stacked session: within the unlocked set, clamped to MaxLevel.
func stackedIncludes(p *Progress, level int) bool {
	if level > MaxLevel {
		level = MaxLevel
	}
	return level <= p.MaxUnlocked()
}
