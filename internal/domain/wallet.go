package domain

// Wallet holds the tracked behavioral state for a single wallet address.
// Corresponds to the wallets table in PostgreSQL.
//
// TotalVolume, InteractionCount, AverageEntrySize, WinrateProxy and
// WhaleScore are derived from the full interaction history and must only
// ever be written by the scorer's Recalculate path, never incrementally.
type Wallet struct {
	Address          string  // PRIMARY KEY, base58 pubkey
	TotalVolume      float64 // sum of interaction amounts in SOL
	InteractionCount int64
	AverageEntrySize float64
	WinrateProxy     float64 // heuristic in [0,1], see detector.WinrateProxy
	WhaleScore       int     // 0..100
	IsInsider        bool
	CreatedAt        int64 // Unix timestamp in milliseconds
	UpdatedAt        int64 // Unix timestamp in milliseconds
}

// WalletStats is the aggregate view a scorer works from. It is computed
// from the full interaction history of one wallet.
type WalletStats struct {
	Address          string
	TotalVolume      float64
	InteractionCount int64
	AverageEntrySize float64
	EarlyEntryCount  int64
	WinrateProxy     float64
}

// WinrateProxy is a heuristic stand-in for realized-profit tracking, in
// [0,1]. It is NOT a measure of actual trading outcome: a wallet with no
// early entries gets a fixed 0.3 baseline, otherwise the early-entry ratio
// scaled by 1.5 and capped at 1.
func WinrateProxy(earlyCount, totalCount int64) float64 {
	if earlyCount == 0 {
		return 0.3
	}
	proxy := float64(earlyCount) / float64(totalCount) * 1.5
	if proxy > 1 {
		return 1
	}
	return proxy
}
