package session

import (
	"context"
	"sync"
)

// Store persists the session blob. Persistence is opaque to the Manager:
// it hands over an encoded blob and gets it back verbatim.
type Store interface {
	// Save persists the blob, replacing any previous one.
	Save(ctx context.Context, blob []byte) error

	// Load returns the persisted blob, or false when none exists.
	Load(ctx context.Context) ([]byte, bool, error)

	// Clear removes the persisted blob.
	Clear(ctx context.Context) error
}

// MemoryStore keeps the session blob in process. It is the default store
// and the right choice when sessions should not survive restarts.
type MemoryStore struct {
	mu   sync.Mutex
	blob []byte
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = append([]byte(nil), blob...)
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blob == nil {
		return nil, false, nil
	}
	return append([]byte(nil), s.blob...), true, nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = nil
	return nil
}
