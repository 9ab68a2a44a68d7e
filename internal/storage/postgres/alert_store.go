package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/storage"
)

// AlertStore implements storage.AlertStore using PostgreSQL. Metadata is
// persisted as JSONB and decoded back into its kind-specific variant.
type AlertStore struct {
	pool *Pool
}

// NewAlertStore creates a new AlertStore.
func NewAlertStore(pool *Pool) *AlertStore {
	return &AlertStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AlertStore = (*AlertStore)(nil)

// Insert appends a new alert. Returns ErrDuplicateKey if the id exists.
func (s *AlertStore) Insert(ctx context.Context, a *domain.Alert) error {
	if a == nil || a.ID == "" || !domain.ValidAlertKind(a.Kind) {
		return storage.ErrInvalidInput
	}

	var metadata []byte
	if a.Metadata != nil {
		var err error
		metadata, err = json.Marshal(a.Metadata)
		if err != nil {
			return fmt.Errorf("encode alert metadata: %w", err)
		}
	}

	query := `
		INSERT INTO alerts (
			id, kind, wallet_address, token_mint, message, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		a.ID,
		string(a.Kind),
		a.WalletAddress,
		a.TokenMint,
		a.Message,
		metadata,
		a.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// GetRecent retrieves the most recent alerts, creation time DESC.
func (s *AlertStore) GetRecent(ctx context.Context, limit int) ([]*domain.Alert, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, kind, wallet_address, token_mint, message, metadata, created_at
		FROM alerts
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*domain.Alert
	for rows.Next() {
		var (
			a        domain.Alert
			kind     string
			metadata []byte
		)

		err := rows.Scan(&a.ID, &kind, &a.WalletAddress, &a.TokenMint, &a.Message, &metadata, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}

		a.Kind = domain.AlertKind(kind)
		a.Metadata, err = domain.DecodeMetadata(a.Kind, metadata)
		if err != nil {
			return nil, err
		}

		alerts = append(alerts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert rows: %w", err)
	}

	return alerts, nil
}
