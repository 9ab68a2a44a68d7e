package detector

import (
	"context"
	"reflect"
	"testing"

	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/storage/memory"
)

func testParams() InsiderParams {
	return InsiderParams{
		EarlyEntryWindowSeconds: 60,
		MinBuySizeSol:           5,
		MinInsiderRepetitions:   3,
	}
}

func TestIsEarlyEntry_WindowBoundary(t *testing.T) {
	d := NewInsiderDetector(testParams(), nil, nil)

	creation := int64(1_000_000)
	if !d.IsEarlyEntry(creation+10_000, creation) {
		t.Fatal("10s offset should be early with a 60s window")
	}
	if !d.IsEarlyEntry(creation+60_000, creation) {
		t.Fatal("offset exactly at the window should be early")
	}
	if d.IsEarlyEntry(creation+60_001, creation) {
		t.Fatal("offset past the window should not be early")
	}
}

func TestEvaluate_RepeatedEarlyBuyer(t *testing.T) {
	// Wallet with three 6 SOL early entries across three tokens: the
	// repetition gate is satisfied and confidence should be well above 50.
	d := NewInsiderDetector(testParams(), nil, nil)

	wallet := &domain.Wallet{
		Address:          "w1",
		TotalVolume:      18,
		InteractionCount: 3,
		AverageEntrySize: 6,
		WinrateProxy:     1,
	}
	creation := int64(1_000_000)
	newBuy := &domain.Interaction{
		WalletAddress: "w1",
		TokenMint:     "m3",
		BlockTime:     creation + 10_000,
		Amount:        6,
		IsEarlyEntry:  true,
	}

	v := d.Evaluate(wallet, 3, newBuy, creation)
	if !v.IsInsider {
		t.Fatalf("expected insider verdict, got %+v", v)
	}
	if v.Confidence < 50 {
		t.Fatalf("confidence %d below 50", v.Confidence)
	}
	if len(v.Reasons) == 0 {
		t.Fatal("expected at least one reason")
	}
}

func TestEvaluate_RepetitionGate(t *testing.T) {
	// Huge size and volume alone must never flag a wallet: the early
	// repetition minimum is enforced independently of the point total.
	d := NewInsiderDetector(testParams(), nil, nil)

	wallet := &domain.Wallet{
		Address:          "w1",
		TotalVolume:      10_000,
		InteractionCount: 20,
		AverageEntrySize: 500,
		WinrateProxy:     0.9,
	}
	creation := int64(1_000_000)
	newBuy := &domain.Interaction{BlockTime: creation + 1000, Amount: 500}

	v := d.Evaluate(wallet, 2, newBuy, creation)
	if v.IsInsider {
		t.Fatalf("gate violated: flagged with only 2 early entries (confidence %d)", v.Confidence)
	}
	if v.Confidence < 50 {
		t.Fatalf("expected high confidence despite gate, got %d", v.Confidence)
	}
}

func TestEvaluate_ConfidenceClamped(t *testing.T) {
	d := NewInsiderDetector(testParams(), nil, nil)

	wallet := &domain.Wallet{
		TotalVolume:      1000,
		InteractionCount: 10,
		AverageEntrySize: 100,
		WinrateProxy:     1,
	}
	creation := int64(1_000_000)
	newBuy := &domain.Interaction{BlockTime: creation, Amount: 100}

	v := d.Evaluate(wallet, 10, newBuy, creation)
	if v.Confidence != 100 {
		t.Fatalf("confidence = %d, want clamp to 100", v.Confidence)
	}
}

func TestEvaluate_QuietWallet(t *testing.T) {
	d := NewInsiderDetector(testParams(), nil, nil)

	wallet := &domain.Wallet{
		TotalVolume:      2,
		InteractionCount: 2,
		AverageEntrySize: 1,
		WinrateProxy:     0.3,
	}
	v := d.Evaluate(wallet, 0, nil, 0)
	if v.IsInsider || v.Confidence != 0 {
		t.Fatalf("expected zero verdict, got %+v", v)
	}
	if len(v.Reasons) != 0 {
		t.Fatalf("expected no reasons, got %v", v.Reasons)
	}
}

func TestApplyVerdict(t *testing.T) {
	ctx := context.Background()
	wallets := memory.NewWalletStore()
	interactions := memory.NewInteractionStore()

	wallet := &domain.Wallet{
		Address:          "w1",
		TotalVolume:      18,
		InteractionCount: 3,
		AverageEntrySize: 6,
		WinrateProxy:     1,
	}
	if err := wallets.Upsert(ctx, wallet); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	for i, id := range []string{"i1", "i2", "i3"} {
		in := &domain.Interaction{
			ID:            id,
			WalletAddress: "w1",
			TokenMint:     "m1",
			BlockTime:     int64(1000 * (i + 1)),
			Amount:        6,
			IsEarlyEntry:  true,
		}
		if err := interactions.Insert(ctx, in); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	d := NewInsiderDetector(testParams(), wallets, interactions)
	got, err := d.ApplyVerdict(ctx, "w1")
	if err != nil {
		t.Fatalf("ApplyVerdict failed: %v", err)
	}
	if !got.IsInsider {
		t.Fatal("expected IsInsider to be persisted as true")
	}

	// Repeated application with unchanged interactions leaves the stored
	// record unchanged.
	first, err := wallets.GetByAddress(ctx, "w1")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if _, err := d.ApplyVerdict(ctx, "w1"); err != nil {
		t.Fatalf("second ApplyVerdict failed: %v", err)
	}
	second, err := wallets.GetByAddress(ctx, "w1")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeat ApplyVerdict changed stored state:\nfirst  %+v\nsecond %+v", first, second)
	}
}
