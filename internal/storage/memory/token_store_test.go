package memory

import (
	"context"
	"errors"
	"testing"

	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/storage"
)

func TestTokenStore_InsertAndGet(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	tok := &domain.Token{
		Mint:           "mint123",
		CreatorWallet:  "creator1",
		FirstBlockTime: 1704067200000,
		CreatedAt:      1704067201000,
	}

	if err := store.Insert(ctx, tok); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByMint(ctx, "mint123")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if got.FirstBlockTime != tok.FirstBlockTime {
		t.Errorf("FirstBlockTime mismatch: got %d, want %d", got.FirstBlockTime, tok.FirstBlockTime)
	}
}

func TestTokenStore_FirstWriterWins(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	first := &domain.Token{Mint: "mint123", FirstBlockTime: 1000}
	if err := store.Insert(ctx, first); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}

	// A second writer with a different block time must be rejected.
	second := &domain.Token{Mint: "mint123", FirstBlockTime: 2000}
	if err := store.Insert(ctx, second); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	got, err := store.GetByMint(ctx, "mint123")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if got.FirstBlockTime != 1000 {
		t.Errorf("FirstBlockTime overwritten: got %d, want 1000", got.FirstBlockTime)
	}
}

func TestTokenStore_NotFound(t *testing.T) {
	store := NewTokenStore()

	_, err := store.GetByMint(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
