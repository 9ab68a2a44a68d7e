package postgres

import (
	"context"
	"fmt"

	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Insert adds a new token. Returns ErrDuplicateKey if the mint exists,
// keeping first_block_time first-writer-wins.
func (s *TokenStore) Insert(ctx context.Context, t *domain.Token) error {
	if t == nil || t.Mint == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO tokens (mint, creator_wallet, first_block_time, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query,
		t.Mint,
		t.CreatorWallet,
		t.FirstBlockTime,
		t.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetByMint retrieves a token. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByMint(ctx context.Context, mint string) (*domain.Token, error) {
	query := `
		SELECT mint, creator_wallet, first_block_time, created_at
		FROM tokens
		WHERE mint = $1
	`

	row := s.pool.QueryRow(ctx, query, mint)

	var t domain.Token
	err := row.Scan(&t.Mint, &t.CreatorWallet, &t.FirstBlockTime, &t.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by mint: %w", err)
	}
	return &t, nil
}
