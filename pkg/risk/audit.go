package risk

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CrisisEvent is the audit record produced when a submission is blocked
// or behavioral escalation fires. Only a truncated snippet of the text is
// retained.
type CrisisEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Context   string    `json:"context"` // surface or flow that produced the event
	Level     Level     `json:"level"`
	Snippet   string    `json:"snippet"` // <= SnippetMaxLen chars
	Matches   []string  `json:"matches"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCrisisEvent builds an event from an assessment, truncating the text
// to the given snippet budget.
func NewCrisisEvent(userID, contextName, text string, level Level, matches []string, snippetMax int) *CrisisEvent {
	if snippetMax <= 0 {
		snippetMax = 100
	}
	return &CrisisEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Context:   contextName,
		Level:     level,
		Snippet:   Truncate(text, snippetMax),
		Matches:   matches,
		CreatedAt: time.Now().UTC(),
	}
}

// Recorder persists crisis events for audit.
type Recorder interface {
	Record(ctx context.Context, event *CrisisEvent) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*CrisisEvent, error)
}

// MemoryRecorder keeps crisis events in memory. Useful for tests and
// deployments without a database.
type MemoryRecorder struct {
	mu     sync.RWMutex
	events []*CrisisEvent
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record appends an event.
func (r *MemoryRecorder) Record(ctx context.Context, event *CrisisEvent) error {
	if event == nil {
		return ErrNilEvent
	}
	if event.UserID == "" {
		return ErrEmptyUserID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// ListByUser returns a user's events, newest first.
func (r *MemoryRecorder) ListByUser(ctx context.Context, userID string, limit int) ([]*CrisisEvent, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*CrisisEvent
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].UserID != userID {
			continue
		}
		out = append(out, r.events[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Len returns the total number of recorded events.
func (r *MemoryRecorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}

var _ Recorder = (*MemoryRecorder)(nil)
