package memory

import (
	"context"
	"sort"
	"sync"

	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/storage"
)

// InteractionStore is an in-memory implementation of storage.InteractionStore.
type InteractionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Interaction // keyed by synthetic id
}

// NewInteractionStore creates a new in-memory interaction store.
func NewInteractionStore() *InteractionStore {
	return &InteractionStore{
		data: make(map[string]*domain.Interaction),
	}
}

// Insert appends a new interaction. Returns ErrDuplicateKey if the id exists.
func (s *InteractionStore) Insert(_ context.Context, i *domain.Interaction) error {
	if i == nil || i.ID == "" || i.WalletAddress == "" || i.TokenMint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[i.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *i
	s.data[i.ID] = &copy
	return nil
}

// GetByWallet retrieves interactions for a wallet, block time DESC.
func (s *InteractionStore) GetByWallet(_ context.Context, wallet string, limit int) ([]*domain.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Interaction
	for _, i := range s.data {
		if i.WalletAddress == wallet {
			copy := *i
			result = append(result, &copy)
		}
	}

	sortDescending(result)

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetEarlyByWallet retrieves early-entry interactions for a wallet, block time DESC.
func (s *InteractionStore) GetEarlyByWallet(_ context.Context, wallet string) ([]*domain.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Interaction
	for _, i := range s.data {
		if i.WalletAddress == wallet && i.IsEarlyEntry {
			copy := *i
			result = append(result, &copy)
		}
	}

	sortDescending(result)
	return result, nil
}

// GetByToken retrieves interactions for a token, block time ASC.
func (s *InteractionStore) GetByToken(_ context.Context, mint string) ([]*domain.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Interaction
	for _, i := range s.data {
		if i.TokenMint == mint {
			copy := *i
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].BlockTime != result[j].BlockTime {
			return result[i].BlockTime < result[j].BlockTime
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// DistinctWalletsByToken retrieves distinct wallet addresses that have
// interacted with the token.
func (s *InteractionStore) DistinctWalletsByToken(_ context.Context, mint string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, i := range s.data {
		if i.TokenMint == mint {
			seen[i.WalletAddress] = struct{}{}
		}
	}

	result := make([]string, 0, len(seen))
	for w := range seen {
		result = append(result, w)
	}
	sort.Strings(result)
	return result, nil
}

// sortDescending orders interactions by (block time DESC, id DESC) for a
// deterministic result when block times collide.
func sortDescending(interactions []*domain.Interaction) {
	sort.Slice(interactions, func(i, j int) bool {
		if interactions[i].BlockTime != interactions[j].BlockTime {
			return interactions[i].BlockTime > interactions[j].BlockTime
		}
		return interactions[i].ID > interactions[j].ID
	})
}

var _ storage.InteractionStore = (*InteractionStore)(nil)
