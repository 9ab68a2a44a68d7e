package detector

import (
	"context"
	"fmt"

	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/storage"
)

// Verdict is the result of one insider evaluation. Reasons carries one
// human-readable line per triggered clause for audit and alerting.
type Verdict struct {
	IsInsider  bool
	Confidence int // 0..100
	Reasons    []string
}

// InsiderParams are the thresholds of the insider heuristic.
type InsiderParams struct {
	EarlyEntryWindowSeconds int64
	MinBuySizeSol           float64
	MinInsiderRepetitions   int64
}

// InsiderDetector flags wallets that repeatedly enter tokens within the
// early window with significant size. Evaluate is pure; ApplyVerdict is
// the persistence step.
type InsiderDetector struct {
	params       InsiderParams
	wallets      storage.WalletStore
	interactions storage.InteractionStore
}

func NewInsiderDetector(params InsiderParams, wallets storage.WalletStore, interactions storage.InteractionStore) *InsiderDetector {
	return &InsiderDetector{
		params:       params,
		wallets:      wallets,
		interactions: interactions,
	}
}

// IsEarlyEntry reports whether an interaction at blockTime (epoch ms)
// falls within the early window of a token created at tokenCreationTime
// (epoch ms). The classification is made once at ingestion and stored.
func (d *InsiderDetector) IsEarlyEntry(blockTime, tokenCreationTime int64) bool {
	return blockTime-tokenCreationTime <= d.params.EarlyEntryWindowSeconds*1000
}

// Evaluate runs the additive point system over the wallet's state.
// newInteraction may be nil when re-evaluating outside event processing;
// tokenCreationTime is only consulted when newInteraction is set.
//
// The repetition gate is enforced independently of the point total: a
// wallet is never flagged insider on size or volume alone.
func (d *InsiderDetector) Evaluate(wallet *domain.Wallet, earlyCount int64, newInteraction *domain.Interaction, tokenCreationTime int64) Verdict {
	var v Verdict

	if earlyCount >= d.params.MinInsiderRepetitions {
		v.Confidence += 40
		v.Reasons = append(v.Reasons, fmt.Sprintf("%d early entries (min %d)", earlyCount, d.params.MinInsiderRepetitions))
	}
	if wallet.AverageEntrySize >= d.params.MinBuySizeSol {
		v.Confidence += 30
		v.Reasons = append(v.Reasons, fmt.Sprintf("average entry %.2f SOL >= %.2f", wallet.AverageEntrySize, d.params.MinBuySizeSol))
	}
	if wallet.TotalVolume >= 10*d.params.MinBuySizeSol {
		v.Confidence += 10
		v.Reasons = append(v.Reasons, fmt.Sprintf("total volume %.2f SOL", wallet.TotalVolume))
	}
	if newInteraction != nil {
		if d.IsEarlyEntry(newInteraction.BlockTime, tokenCreationTime) {
			v.Confidence += 20
			offset := (newInteraction.BlockTime - tokenCreationTime) / 1000
			v.Reasons = append(v.Reasons, fmt.Sprintf("bought %ds after token creation", offset))
		}
		if newInteraction.Amount >= d.params.MinBuySizeSol {
			v.Confidence += 10
			v.Reasons = append(v.Reasons, fmt.Sprintf("buy size %.2f SOL >= %.2f", newInteraction.Amount, d.params.MinBuySizeSol))
		}
	}
	if wallet.WinrateProxy > 0.6 {
		v.Confidence += 10
		v.Reasons = append(v.Reasons, fmt.Sprintf("winrate proxy %.2f", wallet.WinrateProxy))
	}

	if v.Confidence > 100 {
		v.Confidence = 100
	}
	v.IsInsider = v.Confidence >= 50 && earlyCount >= d.params.MinInsiderRepetitions
	return v
}

// ApplyVerdict re-evaluates the wallet from its stored history and
// persists IsInsider. Safe to call repeatedly: with unchanged underlying
// interactions the stored state does not change.
func (d *InsiderDetector) ApplyVerdict(ctx context.Context, address string) (*domain.Wallet, error) {
	wallet, err := d.wallets.GetByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("get wallet %s: %w", address, err)
	}

	early, err := d.interactions.GetEarlyByWallet(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("load early entries for %s: %w", address, err)
	}

	verdict := d.Evaluate(wallet, int64(len(early)), nil, 0)
	if wallet.IsInsider == verdict.IsInsider {
		return wallet, nil
	}

	wallet.IsInsider = verdict.IsInsider
	if err := d.wallets.Upsert(ctx, wallet); err != nil {
		return nil, fmt.Errorf("persist wallet %s: %w", address, err)
	}
	return wallet, nil
}
