package session

import (
	"context"
	"encoding/json"
	"sync"
)

// Store is the persistence port for session progress. One session is
// active at a time under a fixed key, matching the product's single
// active-session model.
//
// Load returns (nil, nil) both when no session is stored and when the
// stored payload fails to parse: corrupt state fails safe to "no active
// session" rather than crashing restore.
type Store interface {
	Save(ctx context.Context, p *Progress) error
	Load(ctx context.Context) (*Progress, error)
	Clear(ctx context.Context) error
}

// MemoryStore keeps the serialized session in memory. It round-trips
// through JSON like the durable stores so Save/Load semantics are
// identical across backends.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save serializes and stores the progress.
func (s *MemoryStore) Save(ctx context.Context, p *Progress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return &PersistenceWriteError{Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}

// Load deserializes the stored progress, if any.
func (s *MemoryStore) Load(ctx context.Context) (*Progress, error) {
	s.mu.Lock()
	data := s.data
	s.mu.Unlock()

	if data == nil {
		return nil, nil
	}
	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		// Corrupt state: fail safe to fresh.
		return nil, nil
	}
	p.normalize()
	return &p, nil
}

// Clear removes the stored progress.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return nil
}

// Corrupt overwrites the stored payload with unparseable bytes.
// Test helper for the fail-safe restore path.
func (s *MemoryStore) Corrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = []byte("{not json")
}

var _ Store = (*MemoryStore)(nil)
