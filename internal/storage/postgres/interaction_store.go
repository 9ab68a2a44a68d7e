package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/storage"
)

// InteractionStore implements storage.InteractionStore using PostgreSQL.
type InteractionStore struct {
	pool *Pool
}

// NewInteractionStore creates a new InteractionStore.
func NewInteractionStore(pool *Pool) *InteractionStore {
	return &InteractionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.InteractionStore = (*InteractionStore)(nil)

// Insert appends a new interaction. Returns ErrDuplicateKey if the id exists.
func (s *InteractionStore) Insert(ctx context.Context, i *domain.Interaction) error {
	if i == nil || i.ID == "" || i.WalletAddress == "" || i.TokenMint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO interactions (
			id, wallet_address, token_mint, block_time, amount, is_early_entry, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		i.ID,
		i.WalletAddress,
		i.TokenMint,
		i.BlockTime,
		i.Amount,
		i.IsEarlyEntry,
		i.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// GetByWallet retrieves interactions for a wallet, block time DESC.
func (s *InteractionStore) GetByWallet(ctx context.Context, wallet string, limit int) ([]*domain.Interaction, error) {
	query := `
		SELECT id, wallet_address, token_mint, block_time, amount, is_early_entry, created_at
		FROM interactions
		WHERE wallet_address = $1
		ORDER BY block_time DESC, id DESC
	`
	args := []interface{}{wallet}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get interactions by wallet: %w", err)
	}
	defer rows.Close()

	return scanInteractions(rows)
}

// GetEarlyByWallet retrieves early-entry interactions for a wallet, block time DESC.
func (s *InteractionStore) GetEarlyByWallet(ctx context.Context, wallet string) ([]*domain.Interaction, error) {
	query := `
		SELECT id, wallet_address, token_mint, block_time, amount, is_early_entry, created_at
		FROM interactions
		WHERE wallet_address = $1 AND is_early_entry = TRUE
		ORDER BY block_time DESC, id DESC
	`

	rows, err := s.pool.Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("get early interactions by wallet: %w", err)
	}
	defer rows.Close()

	return scanInteractions(rows)
}

// GetByToken retrieves interactions for a token, block time ASC.
func (s *InteractionStore) GetByToken(ctx context.Context, mint string) ([]*domain.Interaction, error) {
	query := `
		SELECT id, wallet_address, token_mint, block_time, amount, is_early_entry, created_at
		FROM interactions
		WHERE token_mint = $1
		ORDER BY block_time ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get interactions by token: %w", err)
	}
	defer rows.Close()

	return scanInteractions(rows)
}

// DistinctWalletsByToken retrieves distinct wallet addresses for the token.
func (s *InteractionStore) DistinctWalletsByToken(ctx context.Context, mint string) ([]string, error) {
	query := `
		SELECT DISTINCT wallet_address
		FROM interactions
		WHERE token_mint = $1
		ORDER BY wallet_address ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get distinct wallets by token: %w", err)
	}
	defer rows.Close()

	var wallets []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scan wallet address row: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet address rows: %w", err)
	}
	return wallets, nil
}

// scanInteractions scans multiple rows into a slice of Interaction.
func scanInteractions(rows pgx.Rows) ([]*domain.Interaction, error) {
	var interactions []*domain.Interaction

	for rows.Next() {
		var i domain.Interaction

		err := rows.Scan(
			&i.ID,
			&i.WalletAddress,
			&i.TokenMint,
			&i.BlockTime,
			&i.Amount,
			&i.IsEarlyEntry,
			&i.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan interaction row: %w", err)
		}

		interactions = append(interactions, &i)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interaction rows: %w", err)
	}

	return interactions, nil
}
