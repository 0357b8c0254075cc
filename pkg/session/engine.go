package session

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EngineConfig holds the progression tuning knobs.
type EngineConfig struct {
	UnlockThreshold        int     // non-skip answers to unlock the next level
	StackedUnlockThreshold int     // same, for stacked premium-deck sessions
	WildcardChance         float64 // per-session wildcard odds outside special windows
}

// DefaultEngineConfig returns the default progression policy.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		UnlockThreshold:        5,
		StackedUnlockThreshold: 3,
		WildcardChance:         0.05,
	}
}

// Engine drives session progression. It holds no per-session state:
// Progress is threaded through every operation explicitly, and the store
// is an injected port. Safe for concurrent use across sessions; a single
// Progress value must only be mutated by one caller at a time, matching
// the one-user-one-browser-context model.
type Engine struct {
	cfg   EngineConfig
	pools *PoolBuilder
	store Store

	mu  sync.Mutex // guards rng
	rng *rand.Rand
	now func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRandSource sets the random source, for deterministic tests.
func WithRandSource(src rand.Source) EngineOption {
	return func(e *Engine) { e.rng = rand.New(src) }
}

// WithClock sets the time source, for wildcard-window tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine over a pool builder and a store.
func NewEngine(cfg EngineConfig, pools *PoolBuilder, store Store, opts ...EngineOption) *Engine {
	if cfg.UnlockThreshold < 1 {
		cfg.UnlockThreshold = 1
	}
	if cfg.StackedUnlockThreshold < 1 {
		cfg.StackedUnlockThreshold = 1
	}
	if pools == nil {
		pools = NewPoolBuilder(nil, nil)
	}
	if store == nil {
		store = NewMemoryStore()
	}

	e := &Engine{
		cfg:   cfg,
		pools: pools,
		store: store,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BeginOptions selects the session's content.
type BeginOptions struct {
	Mode        Mode
	Path        string // premium path name (ModePremiumPath)
	Deck        string // premium deck name (ModePremiumDeck)
	Stacked     bool   // stacked content density (premium decks)
	CustomCards []string
}

// BeginResult is the outcome of starting a session.
type BeginResult struct {
	Progress *Progress
	Question Question // first card under the fresh permutation
	Wildcard string   // bonus prompt, empty when none drew
	Warnings []error  // degraded fetch / persistence warnings
}

// Begin starts a fresh session at level 1 with only level 1 unlocked.
func (e *Engine) Begin(ctx context.Context, opts BeginOptions) (*BeginResult, error) {
	if !opts.Mode.Valid() {
		return nil, ErrUnknownMode
	}

	now := e.now()
	p := &Progress{
		ID:             uuid.NewString(),
		Mode:           opts.Mode,
		Path:           opts.Path,
		Deck:           opts.Deck,
		Stacked:        opts.Stacked && opts.Mode == ModePremiumDeck,
		CurrentLevel:   MinLevel,
		UnlockedLevels: []int{MinLevel},
		AnsweredKeys:   make(map[string]bool),
		CustomCards:    append([]string(nil), opts.CustomCards...),
		StartedAt:      now,
		UpdatedAt:      now,
	}

	var warnings []error
	if warn, err := e.reloadPool(ctx, p); err != nil {
		return nil, err
	} else if warn != nil {
		warnings = append(warnings, warn)
	}

	result := &BeginResult{Progress: p}

	e.mu.Lock()
	if prompt, ok := drawWildcard(e.rng, now, e.cfg.WildcardChance); ok {
		result.Wildcard = prompt
	}
	e.mu.Unlock()

	q, err := p.CurrentQuestion()
	if err != nil {
		return nil, err
	}
	result.Question = q

	if err := e.persist(ctx, p); err != nil {
		warnings = append(warnings, err)
	}
	result.Warnings = warnings
	return result, nil
}

// Restore reconstructs the active session from the store. A nil result
// with nil error means no active session (including corrupt state, which
// fails safe to fresh).
func (e *Engine) Restore(ctx context.Context) (*Progress, error) {
	return e.store.Load(ctx)
}

// AdvanceResult is the outcome of a Next or Skip action.
type AdvanceResult struct {
	Question      Question // the next card to show
	Dare          string   // consolation dare, skip only
	UnlockedLevel int      // newly unlocked level, 0 when none (one-time notification)
	Warnings      []error
}

// Advance records the response to the current card and moves the draw
// pointer, reshuffling on overflow instead of terminating the deck.
//
// Only non-skip advances count toward level unlocking; a skip records
// its response, draws a consolation dare, and advances identically but
// never runs the progression check.
func (e *Engine) Advance(ctx context.Context, p *Progress, skip bool) (*AdvanceResult, error) {
	if p == nil {
		return nil, ErrNoSession
	}
	current, err := p.CurrentQuestion()
	if err != nil {
		return nil, err
	}

	now := e.now()
	p.Responses = append(p.Responses, Response{
		ID:        uuid.NewString(),
		Question:  current.Content,
		Level:     p.CurrentLevel,
		Mode:      p.Mode,
		Skipped:   skip,
		Timestamp: now,
	})

	result := &AdvanceResult{}

	if skip {
		e.mu.Lock()
		result.Dare = randomDare(e.rng, p.Mode)
		e.mu.Unlock()
	} else {
		p.AnsweredKeys[answeredKey(current.Content, p.Mode, p.CurrentLevel)] = true
		p.QuestionsAnsweredAtLevel++

		if unlocked := e.checkUnlock(p); unlocked > 0 {
			result.UnlockedLevel = unlocked
			// Stacked decks filter on the unlocked set, so a new unlock
			// widens the pool immediately.
			if p.Stacked {
				if warn, err := e.reloadPool(ctx, p); err != nil {
					return nil, err
				} else if warn != nil {
					result.Warnings = append(result.Warnings, warn)
				}
			}
		}
	}

	e.advancePointer(p)
	p.UpdatedAt = now

	next, err := p.CurrentQuestion()
	if err != nil {
		return nil, err
	}
	result.Question = next

	if err := e.persist(ctx, p); err != nil {
		result.Warnings = append(result.Warnings, err)
	}
	return result, nil
}

// SwitchResult is the outcome of a manual level switch.
type SwitchResult struct {
	Switched bool     // false when the level is locked (silent no-op)
	Question Question // current card after the switch (or unchanged card)
	Warnings []error
}

// SwitchLevel jumps to an unlocked level: the per-level counter resets
// and the pool reloads for the new level. Switching to a locked level is
// a silent no-op; an out-of-range level is an InvalidLevelError.
func (e *Engine) SwitchLevel(ctx context.Context, p *Progress, level int) (*SwitchResult, error) {
	if p == nil {
		return nil, ErrNoSession
	}
	if level < MinLevel || level > MaxLevel {
		return nil, &InvalidLevelError{Level: level}
	}

	result := &SwitchResult{}
	if !p.IsUnlocked(level) {
		q, err := p.CurrentQuestion()
		if err != nil {
			return nil, err
		}
		result.Question = q
		return result, nil
	}

	p.CurrentLevel = level
	p.QuestionsAnsweredAtLevel = 0
	if warn, err := e.reloadPool(ctx, p); err != nil {
		return nil, err
	} else if warn != nil {
		result.Warnings = append(result.Warnings, warn)
	}
	p.UpdatedAt = e.now()
	result.Switched = true

	q, err := p.CurrentQuestion()
	if err != nil {
		return nil, err
	}
	result.Question = q

	if err := e.persist(ctx, p); err != nil {
		result.Warnings = append(result.Warnings, err)
	}
	return result, nil
}

// Shuffle redraws the permutation on user request and resets the draw
// pointer. The pool itself is unchanged.
func (e *Engine) Shuffle(ctx context.Context, p *Progress) (Question, []error, error) {
	if p == nil {
		return Question{}, nil, ErrNoSession
	}
	if len(p.Questions) == 0 {
		return Question{}, nil, ErrEmptyPool
	}

	e.mu.Lock()
	p.ShuffledIndices = shuffleIndices(e.rng, len(p.Questions))
	e.mu.Unlock()
	p.CurrentIndex = 0
	p.UpdatedAt = e.now()

	var warnings []error
	if err := e.persist(ctx, p); err != nil {
		warnings = append(warnings, err)
	}
	q, err := p.CurrentQuestion()
	if err != nil {
		return Question{}, warnings, err
	}
	return q, warnings, nil
}

// End closes the session: the summary is computed from the audit trail
// and the stored state is cleared. Clearing failure is non-fatal - the
// summary is still returned.
func (e *Engine) End(ctx context.Context, p *Progress) (*Summary, []error, error) {
	if p == nil {
		return nil, nil, ErrNoSession
	}
	summary := p.Summarize(e.now())

	var warnings []error
	if err := e.store.Clear(ctx); err != nil {
		warnings = append(warnings, &PersistenceWriteError{Err: err})
	}
	return summary, warnings, nil
}

// checkUnlock applies the progression rule after a non-skip answer:
// once the per-level counter reaches the threshold and a higher level
// exists, the next level joins the unlocked set. Returns the newly
// unlocked level, or 0.
func (e *Engine) checkUnlock(p *Progress) int {
	threshold := e.cfg.UnlockThreshold
	if p.Stacked {
		threshold = e.cfg.StackedUnlockThreshold
	}
	if p.QuestionsAnsweredAtLevel < threshold || p.CurrentLevel >= MaxLevel {
		return 0
	}
	next := p.CurrentLevel + 1
	if p.unlock(next) {
		return next
	}
	return 0
}

// advancePointer moves the draw pointer, reshuffling and wrapping to 0
// when the permutation is exhausted.
func (e *Engine) advancePointer(p *Progress) {
	p.CurrentIndex++
	if p.CurrentIndex >= len(p.ShuffledIndices) {
		e.mu.Lock()
		p.ShuffledIndices = shuffleIndices(e.rng, len(p.Questions))
		e.mu.Unlock()
		p.CurrentIndex = 0
	}
}

// reloadPool rebuilds Questions for the current mode/level and draws a
// fresh permutation. The returned warning is the degraded-fetch signal.
func (e *Engine) reloadPool(ctx context.Context, p *Progress) (error, error) {
	pool, warn, err := e.pools.Build(ctx, p)
	if err != nil {
		return warn, err
	}
	p.Questions = pool
	e.mu.Lock()
	p.ShuffledIndices = shuffleIndices(e.rng, len(pool))
	e.mu.Unlock()
	p.CurrentIndex = 0
	return warn, nil
}

// persist saves after a mutation. Failures come back as warnings so the
// in-memory session keeps functioning even when it can no longer be
// durably saved.
func (e *Engine) persist(ctx context.Context, p *Progress) error {
	if err := e.store.Save(ctx, p); err != nil {
		if _, ok := err.(*PersistenceWriteError); ok {
			return err
		}
		return &PersistenceWriteError{Err: err}
	}
	return nil
}
