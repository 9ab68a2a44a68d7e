package detector

import (
	"math"

	"solana-whale-watch/internal/domain"
)

// minConsistencySample is the fewest interactions a consistency score can
// be computed from; below it the score is 0.
const minConsistencySample = 3

// ConsistencyScore measures how uniform a wallet's buy sizes are, in
// [0,100]. It is 100 minus the coefficient of variation of the amounts,
// scaled: identical buy sizes score 100, highly scattered sizes approach
// 0. Bots and coordinated insiders tend to buy in near-identical sizes.
func ConsistencyScore(interactions []*domain.Interaction) float64 {
	if len(interactions) < minConsistencySample {
		return 0
	}

	var sum float64
	for _, in := range interactions {
		sum += in.Amount
	}
	mean := sum / float64(len(interactions))

	var variance float64
	for _, in := range interactions {
		d := in.Amount - mean
		variance += d * d
	}
	variance /= float64(len(interactions))

	cv := 0.0
	if mean > 0 {
		cv = math.Sqrt(variance) / mean
	}
	return (1 - math.Min(cv, 1)) * 100
}
