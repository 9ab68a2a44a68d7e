package storage

import (
	"context"

	"solana-whale-watch/internal/domain"
)

// WalletStore provides access to wallets storage.
type WalletStore interface {
	// Upsert inserts or replaces a wallet record keyed by address.
	Upsert(ctx context.Context, w *domain.Wallet) error

	// GetByAddress retrieves a wallet. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.Wallet, error)

	// ListByMinScore retrieves wallets with WhaleScore >= minScore,
	// ordered by score DESC then address ASC, limited to limit rows.
	ListByMinScore(ctx context.Context, minScore, limit int) ([]*domain.Wallet, error)

	// GetMany retrieves wallets for the given addresses. Unknown
	// addresses are silently skipped.
	GetMany(ctx context.Context, addresses []string) ([]*domain.Wallet, error)
}

// TokenStore provides access to tokens storage.
type TokenStore interface {
	// Insert adds a new token. Returns ErrDuplicateKey if the mint
	// already exists: FirstBlockTime is first-writer-wins and is never
	// overwritten.
	Insert(ctx context.Context, t *domain.Token) error

	// GetByMint retrieves a token. Returns ErrNotFound if not exists.
	GetByMint(ctx context.Context, mint string) (*domain.Token, error)
}

// InteractionStore provides access to interactions storage.
// Interactions are append-only; there is no update operation.
type InteractionStore interface {
	// Insert appends a new interaction. Returns ErrDuplicateKey if the
	// synthetic id already exists.
	Insert(ctx context.Context, i *domain.Interaction) error

	// GetByWallet retrieves interactions for a wallet, ordered by
	// block time DESC. limit <= 0 means no limit.
	GetByWallet(ctx context.Context, wallet string, limit int) ([]*domain.Interaction, error)

	// GetEarlyByWallet retrieves interactions for a wallet flagged as
	// early entries, ordered by block time DESC.
	GetEarlyByWallet(ctx context.Context, wallet string) ([]*domain.Interaction, error)

	// GetByToken retrieves interactions for a token, ordered by block
	// time ASC.
	GetByToken(ctx context.Context, mint string) ([]*domain.Interaction, error)

	// DistinctWalletsByToken retrieves the distinct wallet addresses
	// that have ever interacted with the token.
	DistinctWalletsByToken(ctx context.Context, mint string) ([]string, error)
}

// InteractionArchive mirrors interactions into an analytics backend.
// Archiving is best-effort: failures are logged by the caller, never
// propagated into event processing.
type InteractionArchive interface {
	// Archive appends a batch of interactions to the analytics backend.
	Archive(ctx context.Context, interactions []*domain.Interaction) error

	// WalletAggregates computes per-wallet aggregate stats over the
	// archived history.
	WalletAggregates(ctx context.Context) ([]*domain.WalletStats, error)
}

// AlertStore provides access to alerts storage. Alerts are append-only.
type AlertStore interface {
	// Insert appends a new alert. Returns ErrDuplicateKey if the
	// synthetic id already exists.
	Insert(ctx context.Context, a *domain.Alert) error

	// GetRecent retrieves the most recent alerts, ordered by creation
	// time DESC, limited to limit rows.
	GetRecent(ctx context.Context, limit int) ([]*domain.Alert, error)
}
