package memory

import (
	"context"
	"sync"

	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Token // keyed by mint
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		data: make(map[string]*domain.Token),
	}
}

// Insert adds a new token. Returns ErrDuplicateKey if the mint exists,
// which keeps FirstBlockTime first-writer-wins.
func (s *TokenStore) Insert(_ context.Context, t *domain.Token) error {
	if t == nil || t.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.Mint]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *t
	s.data[t.Mint] = &copy
	return nil
}

// GetByMint retrieves a token. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByMint(_ context.Context, mint string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data[mint]
	if !ok {
		return nil, storage.ErrNotFound
	}

	copy := *t
	return &copy, nil
}

var _ storage.TokenStore = (*TokenStore)(nil)
