// Package orchestrator drives the detection pipeline: it admits events,
// maintains wallet/token/interaction state, runs the detectors and emits
// alerts. It is the only component that writes to storage.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"solana-whale-watch/internal/alert"
	"solana-whale-watch/internal/detector"
	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/idhash"
	"solana-whale-watch/internal/ingestion"
	"solana-whale-watch/internal/logging"
	"solana-whale-watch/internal/observability"
	"solana-whale-watch/internal/solana"
	"solana-whale-watch/internal/storage"
)

// sourceID identifies the single monitored program stream for
// deduplication purposes.
const sourceID = "program-logs"

// errAlreadyProcessed marks a buy whose interaction id already exists in
// storage: the event was fully applied in a previous delivery.
var errAlreadyProcessed = errors.New("interaction already processed")

// Options for creating an Orchestrator.
type Options struct {
	Wallets      storage.WalletStore
	Tokens       storage.TokenStore
	Interactions storage.InteractionStore
	Alerts       storage.AlertStore
	// Archive mirrors interactions into analytics storage. Optional;
	// archiving failures never affect event processing.
	Archive storage.InteractionArchive

	Scorer   *detector.Scorer
	Insider  *detector.InsiderDetector
	Resolver solana.CreationTimeResolver
	Sink     alert.Sink
	Dedup    *ingestion.Deduplicator

	// WhaleScoreThreshold gates whale_entry and multiple_whales alerts.
	WhaleScoreThreshold int
}

// Orchestrator implements the per-event detection state machine.
type Orchestrator struct {
	wallets      storage.WalletStore
	tokens       storage.TokenStore
	interactions storage.InteractionStore
	alerts       storage.AlertStore
	archive      storage.InteractionArchive

	scorer   *detector.Scorer
	insider  *detector.InsiderDetector
	resolver solana.CreationTimeResolver
	sink     alert.Sink
	dedup    *ingestion.Deduplicator

	whaleScoreThreshold int

	// creationTimes caches resolved creation anchors for the process
	// lifetime. Owned here, reset on restart, never persisted.
	creationMu    sync.Mutex
	creationTimes map[string]int64

	// walletLocks serializes the state-mutation critical section per
	// wallet so recalculate-from-full-history cannot race itself.
	walletLocks keyedMutex

	now   func() int64
	newID func() string
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		wallets:             opts.Wallets,
		tokens:              opts.Tokens,
		interactions:        opts.Interactions,
		alerts:              opts.Alerts,
		archive:             opts.Archive,
		scorer:              opts.Scorer,
		insider:             opts.Insider,
		resolver:            opts.Resolver,
		sink:                opts.Sink,
		dedup:               opts.Dedup,
		whaleScoreThreshold: opts.WhaleScoreThreshold,
		creationTimes:       make(map[string]int64),
		now:                 func() int64 { return time.Now().UnixMilli() },
		newID:               uuid.NewString,
	}
}

// Run consumes events from the source until ctx is cancelled or the
// source closes its channel. Per-event failures are contained and
// logged; the in-flight event always drains before Run returns.
func (o *Orchestrator) Run(ctx context.Context, source ingestion.EventSource) error {
	events, err := source.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to event source: %w", err)
	}

	log := logging.Named("orchestrator")
	log.Info("event pipeline started")

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signaled, pipeline stopped")
			return nil
		case event, ok := <-events:
			if !ok {
				log.Info("event source closed")
				return nil
			}
			// The in-flight event finishes even if ctx is cancelled
			// mid-processing, so no partial wallet mutation is left.
			o.HandleEvent(context.WithoutCancel(ctx), event)
		}
	}
}

// HandleEvent admits, validates and processes one event. All failures
// are contained: a malformed or failing event never halts the stream.
func (o *Orchestrator) HandleEvent(ctx context.Context, event *domain.Event) {
	log := logging.Named("orchestrator")

	if err := event.Validate(); err != nil {
		log.Warnw("dropping malformed event", "error", err)
		observability.RecordEventDropped("malformed")
		return
	}

	if !o.dedup.Admit(sourceID, event.ID()) {
		observability.RecordEventDropped("duplicate")
		return
	}
	observability.RecordEventAdmitted(string(event.Kind))

	start := time.Now()
	if err := o.processEvent(ctx, event); err != nil {
		log.Errorw("event processing failed",
			"signature", event.Signature,
			"kind", event.Kind,
			"token", event.TokenMint,
			"error", err)
		observability.RecordProcessingError("process")
		return
	}
	observability.RecordEventLatency(time.Since(start).Seconds())
}

// processEvent runs the per-event state machine.
func (o *Orchestrator) processEvent(ctx context.Context, event *domain.Event) error {
	creationTime := o.resolveCreationTime(ctx, event)

	if err := o.ensureToken(ctx, event, creationTime); err != nil {
		return fmt.Errorf("ensure token %s: %w", event.TokenMint, err)
	}

	// Sells update no scoring state; exit-timing analysis is out of
	// scope. Creation events only establish the token record.
	if event.Kind != domain.EventBuy {
		return nil
	}

	verdict, wallet, interaction, err := o.applyBuy(ctx, event, creationTime)
	if errors.Is(err, errAlreadyProcessed) {
		logging.Named("orchestrator").Debugw("interaction already recorded, skipping",
			"signature", event.Signature, "wallet", event.WalletAddress)
		return nil
	}
	if err != nil {
		return err
	}

	o.archiveInteraction(ctx, interaction)

	// Alert order is fixed: whale_entry, then insider_detected. Both may
	// fire for the same event and are never deduplicated against each
	// other.
	if wallet.WhaleScore >= o.whaleScoreThreshold {
		o.emitAlert(ctx, &domain.Alert{
			Kind:          domain.AlertWhaleEntry,
			WalletAddress: wallet.Address,
			TokenMint:     event.TokenMint,
			Message: fmt.Sprintf("whale %s bought %.2f SOL of %s (score %d)",
				wallet.Address, event.Amount, event.TokenMint, wallet.WhaleScore),
			Metadata: domain.WhaleEntryMetadata{
				Wallet: wallet.Address,
				Score:  wallet.WhaleScore,
				Amount: event.Amount,
			},
		})
	}

	if verdict.IsInsider {
		verdict.Reasons = o.appendConsistencyReason(ctx, wallet.Address, verdict.Reasons)
		o.emitAlert(ctx, &domain.Alert{
			Kind:          domain.AlertInsiderDetected,
			WalletAddress: wallet.Address,
			TokenMint:     event.TokenMint,
			Message: fmt.Sprintf("insider pattern on %s (confidence %d)",
				wallet.Address, verdict.Confidence),
			Metadata: domain.InsiderMetadata{
				Confidence: verdict.Confidence,
				Reasons:    verdict.Reasons,
			},
		})
	}

	// The correlation re-runs on every buy, not only on transitions, so
	// a standing multi-whale condition re-alerts on each new buy. Each
	// alert reflects the state at its event.
	if err := o.checkMultipleWhales(ctx, event.TokenMint); err != nil {
		return fmt.Errorf("multiple whales check for %s: %w", event.TokenMint, err)
	}

	return nil
}

// resolveCreationTime returns the creation anchor for the event's token.
// The resolver is consulted once per mint per process lifetime; on
// failure the event's own timestamp becomes the anchor. That degrades
// early-entry accuracy for the token but never blocks processing.
func (o *Orchestrator) resolveCreationTime(ctx context.Context, event *domain.Event) int64 {
	o.creationMu.Lock()
	cached, ok := o.creationTimes[event.TokenMint]
	o.creationMu.Unlock()
	if ok {
		return cached
	}

	// token_created events carry the creation time themselves.
	creationTime := event.BlockTime
	if event.Kind != domain.EventTokenCreated {
		resolved, err := o.resolver.Resolve(ctx, event.TokenMint)
		if err != nil {
			logging.Named("orchestrator").Warnw("creation time resolution failed, using event timestamp",
				"token", event.TokenMint, "error", err)
			observability.RecordCreationFallback()
		} else {
			creationTime = resolved
		}
	}

	o.creationMu.Lock()
	// First resolution wins if two events raced here.
	if existing, ok := o.creationTimes[event.TokenMint]; ok {
		creationTime = existing
	} else {
		o.creationTimes[event.TokenMint] = creationTime
	}
	tracked := len(o.creationTimes)
	o.creationMu.Unlock()

	observability.SetTokensTracked(tracked)
	return creationTime
}

// ensureToken creates the token record on first sight. FirstBlockTime is
// first-writer-wins: a duplicate insert is not an error.
func (o *Orchestrator) ensureToken(ctx context.Context, event *domain.Event, creationTime int64) error {
	token := &domain.Token{
		Mint:           event.TokenMint,
		FirstBlockTime: creationTime,
		CreatedAt:      o.now(),
	}
	if event.Kind == domain.EventTokenCreated {
		token.CreatorWallet = event.WalletAddress
	}

	err := o.tokens.Insert(ctx, token)
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return err
	}
	return nil
}

// applyBuy performs the wallet-state mutation for a buy: ensure the
// wallet exists, append the interaction, evaluate the insider verdict,
// recalculate the wallet and persist a changed verdict. The whole
// section is serialized per wallet; the creation-time resolution already
// happened outside this critical section.
func (o *Orchestrator) applyBuy(ctx context.Context, event *domain.Event, creationTime int64) (detector.Verdict, *domain.Wallet, *domain.Interaction, error) {
	unlock := o.walletLocks.lock(event.WalletAddress)
	defer unlock()

	wallet, err := o.ensureWallet(ctx, event.WalletAddress)
	if err != nil {
		return detector.Verdict{}, nil, nil, fmt.Errorf("ensure wallet %s: %w", event.WalletAddress, err)
	}

	// The id is derived from event identity, so a redelivery that slipped
	// past the window dedup (e.g. after a restart) conflicts here instead
	// of double-counting.
	interaction := &domain.Interaction{
		ID:            idhash.InteractionID(event.Signature, event.Index, event.WalletAddress, event.TokenMint),
		WalletAddress: event.WalletAddress,
		TokenMint:     event.TokenMint,
		BlockTime:     event.BlockTime,
		Amount:        event.Amount,
		IsEarlyEntry:  o.insider.IsEarlyEntry(event.BlockTime, creationTime),
		CreatedAt:     o.now(),
	}
	if err := o.interactions.Insert(ctx, interaction); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return detector.Verdict{}, nil, nil, errAlreadyProcessed
		}
		return detector.Verdict{}, nil, nil, fmt.Errorf("append interaction: %w", err)
	}

	early, err := o.interactions.GetEarlyByWallet(ctx, event.WalletAddress)
	if err != nil {
		return detector.Verdict{}, nil, nil, fmt.Errorf("load early entries: %w", err)
	}

	verdict := o.insider.Evaluate(wallet, int64(len(early)), interaction, creationTime)

	wallet, err = o.scorer.Recalculate(ctx, event.WalletAddress)
	if err != nil {
		return detector.Verdict{}, nil, nil, fmt.Errorf("recalculate wallet: %w", err)
	}

	if verdict.IsInsider {
		wasInsider := wallet.IsInsider
		wallet, err = o.insider.ApplyVerdict(ctx, event.WalletAddress)
		if err != nil {
			return detector.Verdict{}, nil, nil, fmt.Errorf("apply insider verdict: %w", err)
		}
		if !wasInsider && wallet.IsInsider {
			observability.RecordInsiderFlagged()
		}
	}

	return verdict, wallet, interaction, nil
}

// appendConsistencyReason adds an informational note when the wallet's
// buy sizes are highly uniform. It never changes the verdict itself.
func (o *Orchestrator) appendConsistencyReason(ctx context.Context, address string, reasons []string) []string {
	history, err := o.interactions.GetByWallet(ctx, address, 0)
	if err != nil {
		return reasons
	}
	if score := detector.ConsistencyScore(history); score >= 80 {
		reasons = append(reasons, fmt.Sprintf("buy-size consistency %.0f/100", score))
	}
	return reasons
}

// ensureWallet returns the wallet record, creating a zero-valued one on
// first sight.
func (o *Orchestrator) ensureWallet(ctx context.Context, address string) (*domain.Wallet, error) {
	wallet, err := o.wallets.GetByAddress(ctx, address)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	wallet = &domain.Wallet{
		Address:   address,
		CreatedAt: o.now(),
		UpdatedAt: o.now(),
	}
	if err := o.wallets.Upsert(ctx, wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

// checkMultipleWhales re-derives the qualifying-wallet set for the token
// and alerts when at least two distinct wallets meet the threshold.
func (o *Orchestrator) checkMultipleWhales(ctx context.Context, mint string) error {
	addresses, err := o.interactions.DistinctWalletsByToken(ctx, mint)
	if err != nil {
		return fmt.Errorf("distinct wallets: %w", err)
	}
	if len(addresses) < 2 {
		return nil
	}

	wallets, err := o.wallets.GetMany(ctx, addresses)
	if err != nil {
		return fmt.Errorf("load wallets: %w", err)
	}

	var qualifying []domain.QualifyingWallet
	for _, w := range wallets {
		if w.WhaleScore >= o.whaleScoreThreshold {
			qualifying = append(qualifying, domain.QualifyingWallet{
				Wallet: w.Address,
				Score:  w.WhaleScore,
			})
		}
	}
	if len(qualifying) < 2 {
		return nil
	}

	sort.Slice(qualifying, func(i, j int) bool { return qualifying[i].Wallet < qualifying[j].Wallet })

	o.emitAlert(ctx, &domain.Alert{
		Kind:      domain.AlertMultipleWhales,
		TokenMint: mint,
		Message:   fmt.Sprintf("%d whales on token %s", len(qualifying), mint),
		Metadata:  domain.MultipleWhalesMetadata{Wallets: qualifying},
	})
	return nil
}

// emitAlert persists the alert and hands it to the sink. Sink delivery
// is fire-and-forget; a persistence failure is logged but does not abort
// the event, since the alert decision itself already happened.
func (o *Orchestrator) emitAlert(ctx context.Context, a *domain.Alert) {
	a.ID = o.newID()
	a.CreatedAt = o.now()

	if err := o.alerts.Insert(ctx, a); err != nil {
		logging.Named("orchestrator").Errorw("alert persistence failed",
			"kind", a.Kind, "error", err)
		observability.RecordProcessingError("alert-store")
	}
	observability.RecordAlert(string(a.Kind))
	_ = o.sink.Deliver(ctx, a)
}

// archiveInteraction mirrors the interaction into analytics storage,
// best-effort.
func (o *Orchestrator) archiveInteraction(ctx context.Context, in *domain.Interaction) {
	if o.archive == nil {
		return
	}
	if err := o.archive.Archive(ctx, []*domain.Interaction{in}); err != nil {
		logging.Named("orchestrator").Warnw("interaction archive failed",
			"interaction", in.ID, "error", err)
		observability.RecordProcessingError("archive")
	}
}

// keyedMutex provides one mutex per string key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lock acquires the mutex for key and returns its unlock func.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
