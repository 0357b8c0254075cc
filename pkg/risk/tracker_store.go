package risk

import (
	"sync"
	"time"
)

// TrackerStore holds one SignalTracker per user with TTL-based eviction.
// In the browser app a tracker lived exactly as long as the submission
// surface it was created for; in a service the equivalent lifecycle is
// create-on-first-use and evict-after-idle.
//
// Safe for concurrent use. Suitable for single-node deployments; each
// tracker is still scoped to one user and mutated only by that user's
// own submissions.
type TrackerStore struct {
	mu       sync.Mutex
	trackers map[string]*trackerEntry
	cfg      TrackerConfig

	maxAge     time.Duration // idle eviction age (default: 1 hour)
	cleanupTTL time.Duration // sweep interval (default: 5 minutes)

	stopCleanup chan struct{}
	cleanupOnce sync.Once
}

type trackerEntry struct {
	tracker  *SignalTracker
	lastSeen time.Time
}

// TrackerStoreOption is a functional option for configuring TrackerStore.
type TrackerStoreOption func(*TrackerStore)

// WithTrackerTTL sets the idle age after which a user's tracker is evicted.
func WithTrackerTTL(d time.Duration) TrackerStoreOption {
	return func(s *TrackerStore) {
		s.maxAge = d
	}
}

// WithCleanupInterval sets how often the eviction sweep runs.
func WithCleanupInterval(d time.Duration) TrackerStoreOption {
	return func(s *TrackerStore) {
		s.cleanupTTL = d
	}
}

// NewTrackerStore creates a store that hands out per-user trackers using
// the given aggregation policy.
func NewTrackerStore(cfg TrackerConfig, opts ...TrackerStoreOption) *TrackerStore {
	s := &TrackerStore{
		trackers:    make(map[string]*trackerEntry),
		cfg:         cfg,
		maxAge:      1 * time.Hour,
		cleanupTTL:  5 * time.Minute,
		stopCleanup: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop()

	return s
}

// Observe records a message for a user and returns the behavioral verdict
// for the updated window. The tracker is created on first use.
func (s *TrackerStore) Observe(userID, text string, level Level) (Verdict, error) {
	if userID == "" {
		return Verdict{}, ErrEmptyUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.trackers[userID]
	if !ok {
		entry = &trackerEntry{tracker: NewSignalTracker(s.cfg)}
		s.trackers[userID] = entry
	}
	entry.lastSeen = time.Now()
	entry.tracker.AddMessage(text, level)
	return entry.tracker.BehavioralRisk(), nil
}

// Verdict returns the current behavioral verdict for a user without
// recording a new message. Users with no tracker get an empty verdict.
func (s *TrackerStore) Verdict(userID string) (Verdict, error) {
	if userID == "" {
		return Verdict{}, ErrEmptyUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.trackers[userID]
	if !ok {
		return Verdict{Recommendation: RecommendNone, WindowSize: s.cfg.WindowSize}, nil
	}
	return entry.tracker.BehavioralRisk(), nil
}

// Forget drops a user's tracker, e.g. when their submission surface closes.
func (s *TrackerStore) Forget(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.trackers, userID)
}

// Len returns the number of active trackers.
func (s *TrackerStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trackers)
}

// Close stops the eviction goroutine.
func (s *TrackerStore) Close() {
	s.cleanupOnce.Do(func() {
		close(s.stopCleanup)
	})
}

// cleanupLoop periodically evicts idle trackers.
func (s *TrackerStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *TrackerStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, entry := range s.trackers {
		if now.Sub(entry.lastSeen) > s.maxAge {
			delete(s.trackers, id)
		}
	}
}
