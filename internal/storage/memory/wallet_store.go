package memory

import (
	"context"
	"sort"
	"sync"

	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/storage"
)

// WalletStore is an in-memory implementation of storage.WalletStore.
type WalletStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Wallet // keyed by address
}

// NewWalletStore creates a new in-memory wallet store.
func NewWalletStore() *WalletStore {
	return &WalletStore{
		data: make(map[string]*domain.Wallet),
	}
}

// Upsert inserts or replaces a wallet record keyed by address.
func (s *WalletStore) Upsert(_ context.Context, w *domain.Wallet) error {
	if w == nil || w.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *w
	s.data[w.Address] = &copy
	return nil
}

// GetByAddress retrieves a wallet. Returns ErrNotFound if not exists.
func (s *WalletStore) GetByAddress(_ context.Context, address string) (*domain.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.data[address]
	if !ok {
		return nil, storage.ErrNotFound
	}

	copy := *w
	return &copy, nil
}

// ListByMinScore retrieves wallets with WhaleScore >= minScore, ordered by
// score DESC then address ASC.
func (s *WalletStore) ListByMinScore(_ context.Context, minScore, limit int) ([]*domain.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Wallet
	for _, w := range s.data {
		if w.WhaleScore >= minScore {
			copy := *w
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].WhaleScore != result[j].WhaleScore {
			return result[i].WhaleScore > result[j].WhaleScore
		}
		return result[i].Address < result[j].Address
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetMany retrieves wallets for the given addresses, skipping unknown ones.
func (s *WalletStore) GetMany(_ context.Context, addresses []string) ([]*domain.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Wallet, 0, len(addresses))
	for _, addr := range addresses {
		if w, ok := s.data[addr]; ok {
			copy := *w
			result = append(result, &copy)
		}
	}
	return result, nil
}

var _ storage.WalletStore = (*WalletStore)(nil)
