package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/storage"
	"solana-whale-watch/internal/storage/postgres"
)

func TestWalletStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewWalletStore(pool)
	ctx := context.Background()

	w := &domain.Wallet{
		Address:          "WalletAddr001",
		TotalVolume:      120.5,
		InteractionCount: 8,
		AverageEntrySize: 15.0625,
		WinrateProxy:     0.75,
		WhaleScore:       64,
		IsInsider:        true,
		CreatedAt:        1700000000000,
		UpdatedAt:        1700000001000,
	}

	require.NoError(t, store.Upsert(ctx, w))

	got, err := store.GetByAddress(ctx, "WalletAddr001")
	require.NoError(t, err)
	assert.Equal(t, w.TotalVolume, got.TotalVolume)
	assert.Equal(t, w.InteractionCount, got.InteractionCount)
	assert.Equal(t, w.WhaleScore, got.WhaleScore)
	assert.True(t, got.IsInsider)

	// Upsert replaces derived fields, keeps the key.
	w.WhaleScore = 91
	w.UpdatedAt = 1700000002000
	require.NoError(t, store.Upsert(ctx, w))

	got, err = store.GetByAddress(ctx, "WalletAddr001")
	require.NoError(t, err)
	assert.Equal(t, 91, got.WhaleScore)
	assert.Equal(t, int64(1700000002000), got.UpdatedAt)
}

func TestWalletStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewWalletStore(pool)

	_, err := store.GetByAddress(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestWalletStore_ListByMinScore(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewWalletStore(pool)
	ctx := context.Background()

	for _, w := range []*domain.Wallet{
		{Address: "a", WhaleScore: 85, CreatedAt: 1, UpdatedAt: 1},
		{Address: "b", WhaleScore: 70, CreatedAt: 1, UpdatedAt: 1},
		{Address: "c", WhaleScore: 85, CreatedAt: 1, UpdatedAt: 1},
		{Address: "d", WhaleScore: 20, CreatedAt: 1, UpdatedAt: 1},
	} {
		require.NoError(t, store.Upsert(ctx, w))
	}

	got, err := store.ListByMinScore(ctx, 70, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Address)
	assert.Equal(t, "c", got[1].Address)
	assert.Equal(t, "b", got[2].Address)

	limited, err := store.ListByMinScore(ctx, 0, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestWalletStore_GetMany(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewWalletStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &domain.Wallet{Address: "a", CreatedAt: 1, UpdatedAt: 1}))
	require.NoError(t, store.Upsert(ctx, &domain.Wallet{Address: "b", CreatedAt: 1, UpdatedAt: 1}))

	got, err := store.GetMany(ctx, []string{"a", "missing", "b"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
