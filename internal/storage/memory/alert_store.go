package memory

import (
	"context"
	"sort"
	"sync"

	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/storage"
)

// defaultRecentCap bounds the fast-access view when no limit is given.
const defaultRecentCap = 100

// AlertStore is an in-memory implementation of storage.AlertStore.
type AlertStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Alert // keyed by synthetic id
	seq  []string                 // insertion order for stable recency ties
}

// NewAlertStore creates a new in-memory alert store.
func NewAlertStore() *AlertStore {
	return &AlertStore{
		data: make(map[string]*domain.Alert),
	}
}

// Insert appends a new alert. Returns ErrDuplicateKey if the id exists.
func (s *AlertStore) Insert(_ context.Context, a *domain.Alert) error {
	if a == nil || a.ID == "" || !domain.ValidAlertKind(a.Kind) {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *a
	s.data[a.ID] = &copy
	s.seq = append(s.seq, a.ID)
	return nil
}

// GetRecent retrieves the most recent alerts, creation time DESC. A
// non-positive limit falls back to a bounded default.
func (s *AlertStore) GetRecent(_ context.Context, limit int) ([]*domain.Alert, error) {
	if limit <= 0 {
		limit = defaultRecentCap
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	order := make(map[string]int, len(s.seq))
	for idx, id := range s.seq {
		order[id] = idx
	}

	result := make([]*domain.Alert, 0, len(s.data))
	for _, a := range s.data {
		copy := *a
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt > result[j].CreatedAt
		}
		return order[result[i].ID] > order[result[j].ID]
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ storage.AlertStore = (*AlertStore)(nil)
