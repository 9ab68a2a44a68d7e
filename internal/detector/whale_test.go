package detector

import (
	"context"
	"reflect"
	"testing"

	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/storage/memory"
)

func TestScore_ZeroInteractions(t *testing.T) {
	score := DefaultWeights().Score(domain.WalletStats{Address: "w1"})
	if score != 0 {
		t.Fatalf("expected 0 for empty history, got %d", score)
	}
}

func TestScore_AllCeilingsHit(t *testing.T) {
	stats := domain.WalletStats{
		Address:          "w1",
		InteractionCount: 50,
		TotalVolume:      500,
		AverageEntrySize: 50,
		EarlyEntryCount:  50,
		WinrateProxy:     1,
	}
	score := DefaultWeights().Score(stats)
	if score != 100 {
		t.Fatalf("expected exactly 100, got %d", score)
	}
}

func TestScore_AdversarialClampedTo100(t *testing.T) {
	stats := domain.WalletStats{
		Address:          "w1",
		InteractionCount: 1000000,
		TotalVolume:      1e9,
		AverageEntrySize: 1e6,
		EarlyEntryCount:  1000000,
		WinrateProxy:     1,
	}
	score := DefaultWeights().Score(stats)
	if score != 100 {
		t.Fatalf("expected clamp to 100, got %d", score)
	}
}

func TestScore_AlwaysInRange(t *testing.T) {
	cases := []domain.WalletStats{
		{InteractionCount: 1, TotalVolume: 0.001, AverageEntrySize: 0.001, WinrateProxy: 0.3},
		{InteractionCount: 5, TotalVolume: 50, AverageEntrySize: 10, EarlyEntryCount: 3, WinrateProxy: 0.9},
		{InteractionCount: 49, TotalVolume: 499, AverageEntrySize: 49, EarlyEntryCount: 9, WinrateProxy: 0.5},
	}
	w := DefaultWeights()
	for i, stats := range cases {
		score := w.Score(stats)
		if score < 0 || score > 100 {
			t.Fatalf("case %d: score %d out of [0,100]", i, score)
		}
	}
}

func TestComputeStats(t *testing.T) {
	interactions := []*domain.Interaction{
		{ID: "i1", WalletAddress: "w1", Amount: 10, IsEarlyEntry: true},
		{ID: "i2", WalletAddress: "w1", Amount: 20, IsEarlyEntry: false},
		{ID: "i3", WalletAddress: "w1", Amount: 30, IsEarlyEntry: true},
	}

	stats := ComputeStats("w1", interactions)
	if stats.TotalVolume != 60 {
		t.Fatalf("TotalVolume = %f, want 60", stats.TotalVolume)
	}
	if stats.InteractionCount != 3 {
		t.Fatalf("InteractionCount = %d, want 3", stats.InteractionCount)
	}
	if stats.AverageEntrySize != stats.TotalVolume/float64(stats.InteractionCount) {
		t.Fatalf("AverageEntrySize = %f inconsistent with volume/count", stats.AverageEntrySize)
	}
	if stats.EarlyEntryCount != 2 {
		t.Fatalf("EarlyEntryCount = %d, want 2", stats.EarlyEntryCount)
	}
	if stats.WinrateProxy != 1 {
		// 2/3 * 1.5 = 1.0
		t.Fatalf("WinrateProxy = %f, want 1", stats.WinrateProxy)
	}
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats("w1", nil)
	if stats.TotalVolume != 0 || stats.InteractionCount != 0 || stats.AverageEntrySize != 0 {
		t.Fatalf("empty history must yield zero aggregates, got %+v", stats)
	}
	if stats.WinrateProxy != 0.3 {
		t.Fatalf("WinrateProxy baseline = %f, want 0.3", stats.WinrateProxy)
	}
}

func TestRecalculate(t *testing.T) {
	ctx := context.Background()
	wallets := memory.NewWalletStore()
	interactions := memory.NewInteractionStore()

	if err := wallets.Upsert(ctx, &domain.Wallet{Address: "w1", CreatedAt: 1000}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	history := []*domain.Interaction{
		{ID: "i1", WalletAddress: "w1", TokenMint: "m1", BlockTime: 1000, Amount: 10, IsEarlyEntry: true},
		{ID: "i2", WalletAddress: "w1", TokenMint: "m2", BlockTime: 2000, Amount: 30, IsEarlyEntry: false},
	}
	for _, in := range history {
		if err := interactions.Insert(ctx, in); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	scorer := NewScorer(DefaultWeights(), wallets, interactions)
	scorer.now = func() int64 { return 5000 }

	got, err := scorer.Recalculate(ctx, "w1")
	if err != nil {
		t.Fatalf("Recalculate failed: %v", err)
	}
	if got.TotalVolume != 40 || got.InteractionCount != 2 || got.AverageEntrySize != 20 {
		t.Fatalf("unexpected derived fields: %+v", got)
	}
	if got.WhaleScore < 0 || got.WhaleScore > 100 {
		t.Fatalf("score %d out of range", got.WhaleScore)
	}
	if got.UpdatedAt != 5000 {
		t.Fatalf("UpdatedAt = %d, want 5000", got.UpdatedAt)
	}

	stored, err := wallets.GetByAddress(ctx, "w1")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if !reflect.DeepEqual(stored, got) {
		t.Fatalf("stored record differs from returned record:\nstored  %+v\nreturned %+v", stored, got)
	}
}

func TestRecalculate_Idempotent(t *testing.T) {
	ctx := context.Background()
	wallets := memory.NewWalletStore()
	interactions := memory.NewInteractionStore()

	if err := wallets.Upsert(ctx, &domain.Wallet{Address: "w1"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := interactions.Insert(ctx, &domain.Interaction{ID: "i1", WalletAddress: "w1", TokenMint: "m1", Amount: 7, IsEarlyEntry: true}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	scorer := NewScorer(DefaultWeights(), wallets, interactions)
	scorer.now = func() int64 { return 5000 }

	if _, err := scorer.Recalculate(ctx, "w1"); err != nil {
		t.Fatalf("first Recalculate failed: %v", err)
	}
	first, err := wallets.GetByAddress(ctx, "w1")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}

	if _, err := scorer.Recalculate(ctx, "w1"); err != nil {
		t.Fatalf("second Recalculate failed: %v", err)
	}
	second, err := wallets.GetByAddress(ctx, "w1")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated recalculate changed stored state:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestRecalculate_UnknownWallet(t *testing.T) {
	scorer := NewScorer(DefaultWeights(), memory.NewWalletStore(), memory.NewInteractionStore())
	if _, err := scorer.Recalculate(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown wallet")
	}
}
