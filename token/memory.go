package token

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. It is the reference implementation of
// the contract and is suitable for tests and single-replica deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]*Token
	opts   Options
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		tokens: make(map[string]*Token),
		opts:   ApplyOptions(opts...),
	}
}

// Load returns the token stored under id, or nil if it is unknown or
// expired. Expired entries are dropped on the way out.
func (s *MemoryStore) Load(_ context.Context, id string) (*Token, error) {
	if id == "" {
		return nil, nil
	}

	s.mu.RLock()
	tok, ok := s.tokens[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	if tok.Expired(s.opts.Clock.Now()) {
		s.mu.Lock()
		// Only remove the entry we inspected; Create may have raced in.
		if cur, ok := s.tokens[id]; ok && cur == tok {
			delete(s.tokens, id)
		}
		s.mu.Unlock()
		return nil, nil
	}

	return tok, nil
}

// Create stores a new token under a fresh random id.
func (s *MemoryStore) Create(_ context.Context, payload Payload, expiresAt time.Time) (*Token, error) {
	for attempt := 0; attempt < MaxCreateAttempts; attempt++ {
		id, err := s.opts.IDs.NewID()
		if err != nil {
			return nil, NewStorageError("create", err)
		}

		tok := New(id, payload, expiresAt)

		s.mu.Lock()
		if _, taken := s.tokens[id]; !taken {
			s.tokens[id] = tok
			s.mu.Unlock()
			return tok, nil
		}
		s.mu.Unlock()
	}

	return nil, NewStorageError("create", ErrIDCollision)
}

// Delete removes tok. It is idempotent.
func (s *MemoryStore) Delete(_ context.Context, tok *Token) error {
	if tok == nil {
		return nil
	}
	s.mu.Lock()
	delete(s.tokens, tok.ID())
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored tokens, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
