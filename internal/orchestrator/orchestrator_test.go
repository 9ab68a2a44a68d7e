package orchestrator

import (
	"context"
	"fmt"
	"testing"

	"solana-whale-watch/internal/alert"
	"solana-whale-watch/internal/detector"
	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/ingestion"
	"solana-whale-watch/internal/ingestion/stub"
	"solana-whale-watch/internal/storage/memory"
)

type recordingSink struct {
	delivered []*domain.Alert
}

func (s *recordingSink) Deliver(_ context.Context, a *domain.Alert) error {
	s.delivered = append(s.delivered, a)
	return nil
}

func (s *recordingSink) byKind(kind domain.AlertKind) []*domain.Alert {
	var out []*domain.Alert
	for _, a := range s.delivered {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

type testEnv struct {
	orch     *Orchestrator
	wallets  *memory.WalletStore
	tokens   *memory.TokenStore
	alerts   *memory.AlertStore
	resolver *stub.CreationTimeResolver
	sink     *recordingSink
}

func newTestEnv(t *testing.T, creationTimes map[string]int64) *testEnv {
	t.Helper()

	wallets := memory.NewWalletStore()
	tokens := memory.NewTokenStore()
	interactions := memory.NewInteractionStore()
	alerts := memory.NewAlertStore()
	resolver := stub.NewCreationTimeResolver(creationTimes)
	sink := &recordingSink{}

	params := detector.InsiderParams{
		EarlyEntryWindowSeconds: 60,
		MinBuySizeSol:           5,
		MinInsiderRepetitions:   3,
	}

	orch := New(Options{
		Wallets:             wallets,
		Tokens:              tokens,
		Interactions:        interactions,
		Alerts:              alerts,
		Scorer:              detector.NewScorer(detector.DefaultWeights(), wallets, interactions),
		Insider:             detector.NewInsiderDetector(params, wallets, interactions),
		Resolver:            resolver,
		Sink:                sink,
		Dedup:               ingestion.NewDeduplicator(),
		WhaleScoreThreshold: 70,
	})

	// Deterministic clock and ids for reproducible assertions.
	var tick int64
	orch.now = func() int64 { tick++; return 1_000_000 + tick }
	var seq int
	orch.newID = func() string { seq++; return fmt.Sprintf("id-%04d", seq) }

	return &testEnv{orch: orch, wallets: wallets, tokens: tokens, alerts: alerts, resolver: resolver, sink: sink}
}

func buyEvent(sig, wallet, mint string, amount float64, blockTime int64) *domain.Event {
	return &domain.Event{
		Kind:          domain.EventBuy,
		Signature:     sig,
		WalletAddress: wallet,
		TokenMint:     mint,
		Amount:        amount,
		BlockTime:     blockTime,
	}
}

// warmUpWhale feeds n early 50 SOL buys across distinct tokens so the
// wallet's score crosses the whale threshold.
func warmUpWhale(t *testing.T, env *testEnv, wallet string, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		mint := fmt.Sprintf("warm-%s-%d", wallet, i)
		created := int64(10_000_000 + i*1_000_000)
		env.resolver.Times[mint] = created
		env.orch.HandleEvent(ctx, buyEvent(
			fmt.Sprintf("warm-%s-%d", wallet, i), wallet, mint, 50, created+5_000))
	}
}

func TestScenario_InsiderAfterRepeatedEarlyBuys(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, map[string]int64{
		"t1": 1_000_000,
		"t2": 2_000_000,
		"t3": 3_000_000,
	})

	// Three 6 SOL buys, each 10s after its token's creation.
	for i, mint := range []string{"t1", "t2", "t3"} {
		created := env.resolver.Times[mint]
		env.orch.HandleEvent(ctx, buyEvent(fmt.Sprintf("s%d", i), "w1", mint, 6, created+10_000))
	}

	wallet, err := env.wallets.GetByAddress(ctx, "w1")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if !wallet.IsInsider {
		t.Fatal("wallet should be flagged insider after 3 early buys")
	}

	insiderAlerts := env.sink.byKind(domain.AlertInsiderDetected)
	if len(insiderAlerts) != 1 {
		t.Fatalf("expected exactly 1 insider alert, got %d", len(insiderAlerts))
	}
	meta, ok := insiderAlerts[0].Metadata.(domain.InsiderMetadata)
	if !ok {
		t.Fatalf("unexpected metadata type %T", insiderAlerts[0].Metadata)
	}
	if meta.Confidence < 50 {
		t.Fatalf("confidence %d below 50", meta.Confidence)
	}
	if len(meta.Reasons) == 0 {
		t.Fatal("insider alert must carry reasons")
	}
}

func TestScenario_MultipleWhales(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, map[string]int64{"tgt": 50_000_000})

	warmUpWhale(t, env, "wa", 9)
	warmUpWhale(t, env, "wb", 9)

	// Both whales enter the same token.
	env.orch.HandleEvent(ctx, buyEvent("x1", "wa", "tgt", 50, 50_005_000))
	before := len(env.sink.byKind(domain.AlertMultipleWhales))
	if before != 0 {
		t.Fatalf("one whale on the token must not alert, got %d", before)
	}

	env.orch.HandleEvent(ctx, buyEvent("x2", "wb", "tgt", 50, 50_006_000))

	multi := env.sink.byKind(domain.AlertMultipleWhales)
	if len(multi) != 1 {
		t.Fatalf("expected exactly 1 multiple_whales alert, got %d", len(multi))
	}
	meta := multi[0].Metadata.(domain.MultipleWhalesMetadata)
	if len(meta.Wallets) != 2 {
		t.Fatalf("expected both wallets listed, got %+v", meta.Wallets)
	}
	for _, w := range meta.Wallets {
		if w.Score < 70 {
			t.Fatalf("listed wallet %s below threshold: %d", w.Wallet, w.Score)
		}
	}
}

func TestMultipleWhales_RefiresOnEveryBuy(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, map[string]int64{"tgt": 50_000_000})

	warmUpWhale(t, env, "wa", 9)
	warmUpWhale(t, env, "wb", 9)
	warmUpWhale(t, env, "wc", 9)

	env.orch.HandleEvent(ctx, buyEvent("x1", "wa", "tgt", 50, 50_005_000))
	env.orch.HandleEvent(ctx, buyEvent("x2", "wb", "tgt", 50, 50_006_000))
	env.orch.HandleEvent(ctx, buyEvent("x3", "wc", "tgt", 50, 50_007_000))

	multi := env.sink.byKind(domain.AlertMultipleWhales)
	if len(multi) != 2 {
		t.Fatalf("standing condition must re-alert per buy: want 2 alerts, got %d", len(multi))
	}
	last := multi[len(multi)-1].Metadata.(domain.MultipleWhalesMetadata)
	if len(last.Wallets) != 3 {
		t.Fatalf("third qualifying wallet must be listed, got %+v", last.Wallets)
	}
}

func TestWhaleEntry_AlertCarriesEventAmount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	warmUpWhale(t, env, "wa", 10)

	env.resolver.Times["tgt"] = 90_000_000
	env.orch.HandleEvent(ctx, buyEvent("x1", "wa", "tgt", 7.5, 90_005_000))

	whaleAlerts := env.sink.byKind(domain.AlertWhaleEntry)
	if len(whaleAlerts) == 0 {
		t.Fatal("expected whale_entry alerts")
	}
	last := whaleAlerts[len(whaleAlerts)-1].Metadata.(domain.WhaleEntryMetadata)
	if last.Amount != 7.5 {
		t.Fatalf("alert amount = %f, want the triggering buy's 7.5", last.Amount)
	}
	if last.Wallet != "wa" || last.Score < 70 {
		t.Fatalf("unexpected whale metadata: %+v", last)
	}
}

func TestAlertOrder_WhaleBeforeInsider(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	// After 9 early 50 SOL buys the wallet is both above the whale
	// threshold and a flagged insider, so the next buy emits both.
	warmUpWhale(t, env, "wa", 9)

	env.resolver.Times["tgt"] = 90_000_000
	mark := len(env.sink.delivered)
	env.orch.HandleEvent(ctx, buyEvent("x1", "wa", "tgt", 50, 90_005_000))

	emitted := env.sink.delivered[mark:]
	if len(emitted) != 2 {
		t.Fatalf("expected whale_entry and insider_detected, got %d alerts", len(emitted))
	}
	if emitted[0].Kind != domain.AlertWhaleEntry || emitted[1].Kind != domain.AlertInsiderDetected {
		t.Fatalf("alert order wrong: %s, %s", emitted[0].Kind, emitted[1].Kind)
	}
}

func TestDuplicateEventDropped(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, map[string]int64{"t1": 1_000_000})

	e := buyEvent("dup", "w1", "t1", 6, 1_010_000)
	env.orch.HandleEvent(ctx, e)
	env.orch.HandleEvent(ctx, e)

	wallet, err := env.wallets.GetByAddress(ctx, "w1")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if wallet.InteractionCount != 1 {
		t.Fatalf("redelivered event must not double-count: got %d interactions", wallet.InteractionCount)
	}
}

func TestCreateAndDevBuyInOneTransaction(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	// A launch transaction yields token_created and the creator's own
	// buy under one signature; the buy is a distinct event, not a
	// redelivery, and must survive admission.
	env.orch.HandleEvent(ctx, &domain.Event{
		Kind: domain.EventTokenCreated, Signature: "launch", Index: 0,
		TokenMint: "t1", BlockTime: 5_000_000,
	})
	env.orch.HandleEvent(ctx, &domain.Event{
		Kind: domain.EventBuy, Signature: "launch", Index: 1,
		WalletAddress: "dev", TokenMint: "t1", Amount: 6, BlockTime: 5_000_000,
	})

	wallet, err := env.wallets.GetByAddress(ctx, "dev")
	if err != nil {
		t.Fatalf("dev buy was dropped, wallet never created: %v", err)
	}
	if wallet.InteractionCount != 1 || wallet.TotalVolume != 6 {
		t.Fatalf("dev buy not scored: %+v", wallet)
	}
	if wallet.WinrateProxy != 1 {
		// Buy at the creation instant classifies as early.
		t.Fatalf("dev buy should be early, winrate proxy = %f", wallet.WinrateProxy)
	}
}

func TestRedeliveryAfterRestartNotDoubleCounted(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, map[string]int64{"t1": 1_000_000})

	e := buyEvent("sig", "w1", "t1", 6, 1_010_000)
	env.orch.HandleEvent(ctx, e)

	// A fresh deduplicator window forgets the signature, simulating a
	// process restart; the deterministic interaction id still blocks the
	// replay.
	env.orch.dedup = ingestion.NewDeduplicator()
	env.orch.HandleEvent(ctx, e)

	wallet, err := env.wallets.GetByAddress(ctx, "w1")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if wallet.InteractionCount != 1 {
		t.Fatalf("replayed event double-counted: %d interactions", wallet.InteractionCount)
	}
}

func TestMalformedEventDropped(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	env.orch.HandleEvent(ctx, &domain.Event{Kind: domain.EventBuy, Signature: "s1", TokenMint: "t1"})
	env.orch.HandleEvent(ctx, &domain.Event{Kind: domain.EventBuy, WalletAddress: "w1", TokenMint: "t1", Amount: 1})

	if len(env.sink.delivered) != 0 {
		t.Fatal("malformed events must not produce alerts")
	}
	if _, err := env.tokens.GetByMint(ctx, "t1"); err == nil {
		t.Fatal("malformed events must not create state")
	}
}

func TestSellUpdatesNoScoringState(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, map[string]int64{"t1": 1_000_000})

	env.orch.HandleEvent(ctx, buyEvent("b1", "w1", "t1", 6, 1_010_000))
	sell := &domain.Event{
		Kind: domain.EventSell, Signature: "s1", WalletAddress: "w1",
		TokenMint: "t1", Amount: 6, BlockTime: 1_020_000,
	}
	env.orch.HandleEvent(ctx, sell)

	wallet, err := env.wallets.GetByAddress(ctx, "w1")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if wallet.InteractionCount != 1 || wallet.TotalVolume != 6 {
		t.Fatalf("sell must not change scoring state: %+v", wallet)
	}
}

func TestCreationTimeCachedPerMint(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, map[string]int64{"t1": 1_000_000})

	env.orch.HandleEvent(ctx, buyEvent("b1", "w1", "t1", 6, 1_010_000))
	env.orch.HandleEvent(ctx, buyEvent("b2", "w2", "t1", 6, 1_020_000))

	if env.resolver.Calls["t1"] != 1 {
		t.Fatalf("resolver must be consulted once per mint, got %d calls", env.resolver.Calls["t1"])
	}
}

func TestResolverFailure_FallsBackToEventTime(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil) // resolver knows no mints

	// With the event's own timestamp as anchor the offset is zero, so
	// the interaction classifies as early.
	env.orch.HandleEvent(ctx, buyEvent("b1", "w1", "t1", 6, 77_000_000))

	wallet, err := env.wallets.GetByAddress(ctx, "w1")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if wallet.InteractionCount != 1 {
		t.Fatal("fallback anchor must not block processing")
	}

	token, err := env.tokens.GetByMint(ctx, "t1")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if token.FirstBlockTime != 77_000_000 {
		t.Fatalf("token anchor = %d, want the event's own timestamp", token.FirstBlockTime)
	}
}

func TestTokenCreatedEstablishesAnchor(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	env.orch.HandleEvent(ctx, &domain.Event{
		Kind: domain.EventTokenCreated, Signature: "c1",
		TokenMint: "t1", BlockTime: 5_000_000,
	})
	// A later buy inside the window counts as early without any
	// resolver involvement.
	env.orch.HandleEvent(ctx, buyEvent("b1", "w1", "t1", 6, 5_030_000))

	if env.resolver.Calls["t1"] != 0 {
		t.Fatal("creation event already established the anchor")
	}
	wallet, err := env.wallets.GetByAddress(ctx, "w1")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if wallet.WinrateProxy != 1 {
		// 1 early of 1 total: min(1*1.5, 1)
		t.Fatalf("buy should classify as early, winrate proxy = %f", wallet.WinrateProxy)
	}
}

func TestRun_DrainsStubSource(t *testing.T) {
	env := newTestEnv(t, map[string]int64{"t1": 1_000_000})

	source := stub.NewEventSource([]*domain.Event{
		buyEvent("b1", "w1", "t1", 6, 1_010_000),
		buyEvent("b2", "w2", "t1", 6, 1_020_000),
	})

	if err := env.orch.Run(context.Background(), source); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, w := range []string{"w1", "w2"} {
		wallet, err := env.wallets.GetByAddress(context.Background(), w)
		if err != nil {
			t.Fatalf("wallet %s missing after Run: %v", w, err)
		}
		if wallet.InteractionCount != 1 {
			t.Fatalf("wallet %s interactions = %d, want 1", w, wallet.InteractionCount)
		}
	}
}

var _ alert.Sink = (*recordingSink)(nil)
