package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistVaR(t *testing.T) {
	// 20 observations, alpha=0.05 -> tail index ceil(1)-1 = 0 (the worst one)
	returns := make([]float64, 20)
	for i := range returns {
		returns[i] = 0.01
	}
	returns[7] = -0.10

	assert.InDelta(t, 0.10, HistVaR(returns, 0.05), 1e-12)
}

func TestHistCVaR_EqualsVaRWhenTailIsSingleton(t *testing.T) {
	returns := make([]float64, 20)
	for i := range returns {
		returns[i] = 0.01
	}
	returns[3] = -0.08

	v := HistVaR(returns, 0.05)
	cv := HistCVaR(returns, 0.05)
	assert.InDelta(t, v, cv, 1e-12)
}

func TestHistCVaR_AveragesTail(t *testing.T) {
	// 40 observations, tail index ceil(2)-1 = 1: VaR is the second worst,
	// CVaR also absorbs the shortfall of the worst.
	returns := make([]float64, 40)
	for i := range returns {
		returns[i] = 0.02
	}
	returns[0] = -0.10
	returns[1] = -0.06

	assert.InDelta(t, 0.06, HistVaR(returns, 0.05), 1e-12)
	// CVaR = 0.06 + (0.10-0.06)/(0.05*40) = 0.06 + 0.02
	assert.InDelta(t, 0.08, HistCVaR(returns, 0.05), 1e-12)
}

func TestHistVaR_SignFlip(t *testing.T) {
	// When the tail contains losses the reported numbers are positive.
	returns := []float64{-0.05, -0.02, 0.01, 0.03, 0.02, -0.01, 0.04, 0.0,
		0.02, -0.03, 0.01, 0.05, -0.04, 0.02, 0.03, 0.01, -0.02, 0.0, 0.01, 0.02}

	assert.Greater(t, HistVaR(returns, 0.05), 0.0)
	assert.Greater(t, HistCVaR(returns, 0.05), 0.0)
	assert.GreaterOrEqual(t, HistCVaR(returns, 0.05), HistVaR(returns, 0.05))
}

func TestMaxDrawdownCumulative(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
		want    float64
	}{
		{"monotonic gains", []float64{0.01, 0.02, 0.03}, 0},
		{"single drop", []float64{0.05, -0.03, 0.01}, 0.03},
		{"drop across periods", []float64{0.05, -0.02, -0.04, 0.10}, 0.06},
		// The first cumulative value sets the peak, so a loss before any
		// gain is not a drawdown.
		{"leading loss", []float64{-0.05, 0.02}, 0},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxDrawdownCumulative(tt.returns)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}
