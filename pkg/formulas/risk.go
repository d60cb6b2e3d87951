package formulas

import (
	"math"
	"sort"
)

func sortFloats(data []float64) {
	sort.Float64s(data)
}

// HistVaR computes historical Value at Risk at the given tail probability
// (alpha = 0.05 for VaR-95). The tail observation is picked at index
// ceil(alpha*n)-1 of the sorted returns and sign-flipped so that a loss is
// reported as a positive number.
func HistVaR(returns []float64, alpha float64) float64 {
	if len(returns) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sortFloats(sorted)

	idx := tailIndex(len(sorted), alpha)
	return -sorted[idx]
}

// HistCVaR computes historical Conditional Value at Risk at the given tail
// probability: VaR plus the average shortfall of observations beyond it,
// sign-flipped like HistVaR.
func HistCVaR(returns []float64, alpha float64) float64 {
	if len(returns) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sortFloats(sorted)

	idx := tailIndex(len(sorted), alpha)
	sumExcess := 0.0
	for i := 0; i <= idx; i++ {
		sumExcess += sorted[i] - sorted[idx]
	}

	return -sorted[idx] - sumExcess/(alpha*float64(len(sorted)))
}

func tailIndex(n int, alpha float64) int {
	idx := int(math.Ceil(alpha*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// MaxDrawdownCumulative computes the largest peak-to-trough drop of the
// cumulative sum of the given returns. Always >= 0.
func MaxDrawdownCumulative(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	cum := 0.0
	peak := math.Inf(-1)
	maxDD := 0.0

	for _, r := range returns {
		cum += r
		if cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > maxDD {
			maxDD = dd
		}
	}

	return maxDD
}
