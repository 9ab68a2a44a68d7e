package detector

import (
	"math"
	"sort"

	"solana-whale-watch/internal/domain"
)

// Clusterer groups wallets whose behavioral stats look alike. Wallets in
// the same cluster trade with similar volume, entry size and early-entry
// ratio, which is a weak signal of a shared operator.
type Clusterer struct {
	// SimilarityThreshold in [0,1]; pairs at or above it land in the
	// same cluster.
	SimilarityThreshold float64
}

// Cluster greedily assigns each unassigned wallet to a new cluster seeded
// by itself, pulling in every remaining wallet similar enough to the
// seed. Input order does not matter: wallets are sorted by address first
// so the grouping is deterministic.
func (c *Clusterer) Cluster(stats []*domain.WalletStats) [][]string {
	sorted := make([]*domain.WalletStats, len(stats))
	copy(sorted, stats)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Address < sorted[j].Address })

	assigned := make(map[string]bool, len(sorted))
	var clusters [][]string

	for i, seed := range sorted {
		if assigned[seed.Address] {
			continue
		}
		cluster := []string{seed.Address}
		assigned[seed.Address] = true

		for _, other := range sorted[i+1:] {
			if assigned[other.Address] {
				continue
			}
			if similarity(seed, other) >= c.SimilarityThreshold {
				cluster = append(cluster, other.Address)
				assigned[other.Address] = true
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

// similarity is the mean of three normalized closeness measures over
// volume, average entry size and winrate proxy. The +1 in the volume and
// size denominators keeps two zero-volume wallets maximally similar
// instead of dividing by zero.
func similarity(a, b *domain.WalletStats) float64 {
	volumeSim := 1 - math.Abs(a.TotalVolume-b.TotalVolume)/(a.TotalVolume+b.TotalVolume+1)
	sizeSim := 1 - math.Abs(a.AverageEntrySize-b.AverageEntrySize)/(a.AverageEntrySize+b.AverageEntrySize+1)
	ratioSim := 1 - math.Abs(a.WinrateProxy-b.WinrateProxy)
	return (volumeSim + sizeSim + ratioSim) / 3
}
