package memory

import (
	"context"
	"errors"
	"testing"

	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/storage"
)

func seedInteractions(t *testing.T, store *InteractionStore) {
	t.Helper()
	ctx := context.Background()

	for _, i := range []*domain.Interaction{
		{ID: "i1", WalletAddress: "w1", TokenMint: "m1", BlockTime: 1000, Amount: 5, IsEarlyEntry: true},
		{ID: "i2", WalletAddress: "w1", TokenMint: "m2", BlockTime: 3000, Amount: 7},
		{ID: "i3", WalletAddress: "w1", TokenMint: "m1", BlockTime: 2000, Amount: 6, IsEarlyEntry: true},
		{ID: "i4", WalletAddress: "w2", TokenMint: "m1", BlockTime: 1500, Amount: 12},
	} {
		if err := store.Insert(ctx, i); err != nil {
			t.Fatalf("Insert %s failed: %v", i.ID, err)
		}
	}
}

func TestInteractionStore_GetByWallet_Descending(t *testing.T) {
	store := NewInteractionStore()
	seedInteractions(t, store)

	got, err := store.GetByWallet(context.Background(), "w1", 0)
	if err != nil {
		t.Fatalf("GetByWallet failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 interactions, got %d", len(got))
	}
	want := []string{"i2", "i3", "i1"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, got[i].ID, id)
		}
	}

	limited, err := store.GetByWallet(context.Background(), "w1", 2)
	if err != nil {
		t.Fatalf("GetByWallet with limit failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 interactions with limit, got %d", len(limited))
	}
}

func TestInteractionStore_GetEarlyByWallet(t *testing.T) {
	store := NewInteractionStore()
	seedInteractions(t, store)

	got, err := store.GetEarlyByWallet(context.Background(), "w1")
	if err != nil {
		t.Fatalf("GetEarlyByWallet failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 early interactions, got %d", len(got))
	}
	for _, i := range got {
		if !i.IsEarlyEntry {
			t.Errorf("interaction %s not flagged early", i.ID)
		}
	}
}

func TestInteractionStore_GetByToken_Ascending(t *testing.T) {
	store := NewInteractionStore()
	seedInteractions(t, store)

	got, err := store.GetByToken(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	want := []string{"i1", "i4", "i3"}
	if len(got) != len(want) {
		t.Fatalf("expected %d interactions, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestInteractionStore_DistinctWalletsByToken(t *testing.T) {
	store := NewInteractionStore()
	seedInteractions(t, store)

	got, err := store.DistinctWalletsByToken(context.Background(), "m1")
	if err != nil {
		t.Fatalf("DistinctWalletsByToken failed: %v", err)
	}
	if len(got) != 2 || got[0] != "w1" || got[1] != "w2" {
		t.Errorf("unexpected distinct wallets: %v", got)
	}
}

func TestInteractionStore_AppendOnly(t *testing.T) {
	store := NewInteractionStore()
	ctx := context.Background()

	i := &domain.Interaction{ID: "i1", WalletAddress: "w1", TokenMint: "m1", BlockTime: 1000, Amount: 5}
	if err := store.Insert(ctx, i); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Re-inserting the same id must be rejected, never replace.
	i.Amount = 50
	if err := store.Insert(ctx, i); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	got, _ := store.GetByWallet(ctx, "w1", 0)
	if got[0].Amount != 5 {
		t.Errorf("interaction mutated: got amount %v, want 5", got[0].Amount)
	}
}
