package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/storage"
)

// WalletStore implements storage.WalletStore using PostgreSQL.
type WalletStore struct {
	pool *Pool
}

// NewWalletStore creates a new WalletStore.
func NewWalletStore(pool *Pool) *WalletStore {
	return &WalletStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WalletStore = (*WalletStore)(nil)

// Upsert inserts or replaces a wallet record keyed by address.
func (s *WalletStore) Upsert(ctx context.Context, w *domain.Wallet) error {
	if w == nil || w.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO wallets (
			address, total_volume, interaction_count, average_entry_size,
			winrate_proxy, whale_score, is_insider, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (address) DO UPDATE SET
			total_volume = EXCLUDED.total_volume,
			interaction_count = EXCLUDED.interaction_count,
			average_entry_size = EXCLUDED.average_entry_size,
			winrate_proxy = EXCLUDED.winrate_proxy,
			whale_score = EXCLUDED.whale_score,
			is_insider = EXCLUDED.is_insider,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		w.Address,
		w.TotalVolume,
		w.InteractionCount,
		w.AverageEntrySize,
		w.WinrateProxy,
		w.WhaleScore,
		w.IsInsider,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert wallet: %w", err)
	}
	return nil
}

// GetByAddress retrieves a wallet. Returns ErrNotFound if not exists.
func (s *WalletStore) GetByAddress(ctx context.Context, address string) (*domain.Wallet, error) {
	query := `
		SELECT address, total_volume, interaction_count, average_entry_size,
		       winrate_proxy, whale_score, is_insider, created_at, updated_at
		FROM wallets
		WHERE address = $1
	`

	row := s.pool.QueryRow(ctx, query, address)

	var w domain.Wallet
	err := row.Scan(
		&w.Address,
		&w.TotalVolume,
		&w.InteractionCount,
		&w.AverageEntrySize,
		&w.WinrateProxy,
		&w.WhaleScore,
		&w.IsInsider,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get wallet by address: %w", err)
	}
	return &w, nil
}

// ListByMinScore retrieves wallets with whale_score >= minScore, ordered by
// score DESC then address ASC.
func (s *WalletStore) ListByMinScore(ctx context.Context, minScore, limit int) ([]*domain.Wallet, error) {
	query := `
		SELECT address, total_volume, interaction_count, average_entry_size,
		       winrate_proxy, whale_score, is_insider, created_at, updated_at
		FROM wallets
		WHERE whale_score >= $1
		ORDER BY whale_score DESC, address ASC
	`
	args := []interface{}{minScore}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list wallets by min score: %w", err)
	}
	defer rows.Close()

	return scanWallets(rows)
}

// GetMany retrieves wallets for the given addresses, skipping unknown ones.
func (s *WalletStore) GetMany(ctx context.Context, addresses []string) ([]*domain.Wallet, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	query := `
		SELECT address, total_volume, interaction_count, average_entry_size,
		       winrate_proxy, whale_score, is_insider, created_at, updated_at
		FROM wallets
		WHERE address = ANY($1)
		ORDER BY address ASC
	`

	rows, err := s.pool.Query(ctx, query, addresses)
	if err != nil {
		return nil, fmt.Errorf("get wallets: %w", err)
	}
	defer rows.Close()

	return scanWallets(rows)
}

// scanWallets scans multiple rows into a slice of Wallet.
func scanWallets(rows pgx.Rows) ([]*domain.Wallet, error) {
	var wallets []*domain.Wallet

	for rows.Next() {
		var w domain.Wallet

		err := rows.Scan(
			&w.Address,
			&w.TotalVolume,
			&w.InteractionCount,
			&w.AverageEntrySize,
			&w.WinrateProxy,
			&w.WhaleScore,
			&w.IsInsider,
			&w.CreatedAt,
			&w.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}

		wallets = append(wallets, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}

	return wallets, nil
}
