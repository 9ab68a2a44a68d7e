// Package detector implements the scoring and classification heuristics:
// whale scoring, insider pattern detection, buy-size consistency and
// behavioral wallet clustering. The compute functions are pure; the only
// types that touch storage are Scorer.Recalculate and
// InsiderDetector.ApplyVerdict.
package detector

import (
	"context"
	"fmt"
	"math"
	"time"

	"solana-whale-watch/internal/domain"
	"solana-whale-watch/internal/storage"
)

// Weights are the per-component ceilings of the whale score. The four
// defaults sum to 100.
type Weights struct {
	EarlyEntry float64
	BuySize    float64
	Repetition float64
	Profit     float64
}

// DefaultWeights returns the standard 40/30/20/10 split.
func DefaultWeights() Weights {
	return Weights{
		EarlyEntry: 40,
		BuySize:    30,
		Repetition: 20,
		Profit:     10,
	}
}

// Normalization reference points. Values at or beyond these saturate
// their component.
const (
	maxAvgEntrySize    = 50.0 // SOL, saturates the avg-size half of buy-size
	maxTotalVolume     = 500.0
	maxInteractionCnt  = 50.0
	earlyCountPerPoint = 2.0 // each early entry is worth 2 points, capped
)

// Score computes the whale score for the given aggregate stats. Always in
// [0,100]; a wallet with zero interactions scores 0 without evaluating
// any component.
func (w Weights) Score(stats domain.WalletStats) int {
	if stats.InteractionCount == 0 {
		return 0
	}

	// Early-entry component rewards both proportion and absolute
	// repetition, each half capped separately.
	earlyRatio := float64(stats.EarlyEntryCount) / float64(stats.InteractionCount)
	ratioScore := math.Min(earlyRatio*w.EarlyEntry/2, w.EarlyEntry/2)
	countScore := math.Min(float64(stats.EarlyEntryCount)*earlyCountPerPoint, w.EarlyEntry/2)

	avgScore := math.Min(stats.AverageEntrySize/maxAvgEntrySize*(w.BuySize*2/3), w.BuySize*2/3)
	volScore := math.Min(stats.TotalVolume/maxTotalVolume*(w.BuySize/3), w.BuySize/3)

	repScore := math.Min(float64(stats.InteractionCount)/maxInteractionCnt*w.Repetition, w.Repetition)

	profitScore := stats.WinrateProxy * w.Profit

	total := math.Round(ratioScore + countScore + avgScore + volScore + repScore + profitScore)
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}
	return int(total)
}

// ComputeStats derives the aggregate wallet view from the full interaction
// history. The derived fields are never incremented in place anywhere
// else; this is the source of truth.
func ComputeStats(address string, interactions []*domain.Interaction) domain.WalletStats {
	stats := domain.WalletStats{Address: address}
	for _, in := range interactions {
		stats.TotalVolume += in.Amount
		stats.InteractionCount++
		if in.IsEarlyEntry {
			stats.EarlyEntryCount++
		}
	}
	if stats.InteractionCount > 0 {
		stats.AverageEntrySize = stats.TotalVolume / float64(stats.InteractionCount)
	}
	stats.WinrateProxy = domain.WinrateProxy(stats.EarlyEntryCount, stats.InteractionCount)
	return stats
}

// Scorer binds the pure scoring math to storage. Recalculate is the single
// path by which derived wallet fields change.
type Scorer struct {
	weights      Weights
	wallets      storage.WalletStore
	interactions storage.InteractionStore
	now          func() int64
}

func NewScorer(weights Weights, wallets storage.WalletStore, interactions storage.InteractionStore) *Scorer {
	return &Scorer{
		weights:      weights,
		wallets:      wallets,
		interactions: interactions,
		now:          func() int64 { return time.Now().UnixMilli() },
	}
}

// Score exposes the pure computation with the scorer's weights.
func (s *Scorer) Score(stats domain.WalletStats) int {
	return s.weights.Score(stats)
}

// Recalculate recomputes every derived field of the wallet from its full
// interaction history and persists them as one record write, returning the
// refreshed record. Calling it again with no new interactions leaves the
// stored record unchanged apart from UpdatedAt's wall-clock source.
func (s *Scorer) Recalculate(ctx context.Context, address string) (*domain.Wallet, error) {
	wallet, err := s.wallets.GetByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("get wallet %s: %w", address, err)
	}

	history, err := s.interactions.GetByWallet(ctx, address, 0)
	if err != nil {
		return nil, fmt.Errorf("load interactions for %s: %w", address, err)
	}

	stats := ComputeStats(address, history)
	wallet.TotalVolume = stats.TotalVolume
	wallet.InteractionCount = stats.InteractionCount
	wallet.AverageEntrySize = stats.AverageEntrySize
	wallet.WinrateProxy = stats.WinrateProxy
	wallet.WhaleScore = s.weights.Score(stats)
	wallet.UpdatedAt = s.now()

	if err := s.wallets.Upsert(ctx, wallet); err != nil {
		return nil, fmt.Errorf("persist wallet %s: %w", address, err)
	}
	return wallet, nil
}
