package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sriharshamadamanchi/fundrisk/pkg/formulas"
)

func TestAssetRiskMeasures(t *testing.T) {
	f := returnsFrame(t,
		[]float64{100, 101, 99, 103, 100, 104, 101, 105, 102, 106},
		[]float64{50, 49, 51, 52, 50, 53, 52, 54, 55, 53},
	)

	measures := AssetRiskMeasures(f)
	require.Len(t, measures, 2)

	for _, symbol := range []string{"AAA", "BBB"} {
		m := measures[symbol]
		require.Contains(t, measures, symbol)

		assert.Greater(t, m["Volatility"], 0.0)
		assert.Greater(t, m["MAD"], 0.0)
		assert.GreaterOrEqual(t, m["Max_Drawdown"], 0.0)
		// Tail losses: expected shortfall is at least as deep as the
		// threshold it conditions on.
		assert.GreaterOrEqual(t, m["CVaR_95"], m["VaR_95"])
	}
}

func TestAssetRiskMeasuresSignConvention(t *testing.T) {
	// A strictly losing series has positive VaR and CVaR magnitudes.
	f := returnsFrame(t,
		[]float64{100, 98, 96, 93, 91, 88, 86, 83, 81, 78},
		[]float64{50, 49, 48, 47, 46, 45, 44, 43, 42, 41},
	)

	for _, m := range AssetRiskMeasures(f) {
		assert.Greater(t, m["VaR_95"], 0.0)
		assert.Greater(t, m["CVaR_95"], 0.0)
	}
}

func TestPortfolioRiskMeasures(t *testing.T) {
	f := returnsFrame(t,
		[]float64{100, 101, 99, 103, 100, 104, 101, 105, 102, 106},
		[]float64{50, 49, 51, 52, 50, 53, 52, 54, 55, 53},
	)

	measures, err := PortfolioRiskMeasures(f, map[string]float64{"AAA": 0.5, "BBB": 0.5})
	require.NoError(t, err)

	stdDev, ok := measures["Std_Dev"].(float64)
	require.True(t, ok)
	assert.Greater(t, stdDev, 0.0)

	cvar := measures["CVaR_95"].(float64)
	vaR := measures["VaR_95"].(float64)
	assert.GreaterOrEqual(t, cvar, vaR)
}

// Portfolio standard deviation via the covariance quadratic form must
// agree with the sample standard deviation of the weighted return series.
func TestPortfolioStdDevMatchesWeightedSeries(t *testing.T) {
	f := returnsFrame(t,
		[]float64{100, 101, 99, 103, 100, 104, 101, 105, 102, 106},
		[]float64{50, 49, 51, 52, 50, 53, 52, 54, 55, 53},
	)
	weights := map[string]float64{"AAA": 0.3, "BBB": 0.7}

	measures, err := PortfolioRiskMeasures(f, weights)
	require.NoError(t, err)

	series, err := f.WeightedSeries(weights)
	require.NoError(t, err)

	assert.InDelta(t, formulas.StdDev(series), measures["Std_Dev"].(float64), 1e-12)
}

func TestPortfolioRiskMeasuresMissingWeight(t *testing.T) {
	f := returnsFrame(t,
		[]float64{100, 101, 99, 103, 100},
		[]float64{50, 49, 51, 52, 50},
	)

	_, err := PortfolioRiskMeasures(f, map[string]float64{"AAA": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing weight")
}

func TestPortfolioRiskMeasuresEmptyInputs(t *testing.T) {
	measures, err := PortfolioRiskMeasures(Pivot(nil), map[string]float64{})
	require.NoError(t, err)
	assert.Nil(t, measures["Std_Dev"])
	assert.Nil(t, measures["VaR_95"])
	assert.Nil(t, measures["CVaR_95"])
}

func TestValueSeries(t *testing.T) {
	prices := Pivot(points(
		pt("AAA", "2024-01-01", 100),
		pt("BBB", "2024-01-01", 50),
		pt("AAA", "2024-01-02", 101),
		pt("BBB", "2024-01-02", 49),
		pt("AAA", "2024-01-03", 102),
		pt("BBB", "2024-01-03", 48),
	))

	series := ValueSeries(prices, map[string]float64{"AAA": 1, "BBB": 1})
	require.Len(t, series, 3)
	assert.Equal(t, ValuePoint{X: "2024-01-01", Y: 150}, series[0])
	assert.Equal(t, ValuePoint{X: "2024-01-02", Y: 150}, series[1])
	assert.Equal(t, ValuePoint{X: "2024-01-03", Y: 150}, series[2])
}

func TestValueSeriesSkipsMissingPrices(t *testing.T) {
	prices := Pivot(points(
		pt("AAA", "2024-01-01", 100),
		pt("AAA", "2024-01-02", 101),
		pt("BBB", "2024-01-02", 50),
	))

	series := ValueSeries(prices, map[string]float64{"AAA": 2, "BBB": 1})
	require.Len(t, series, 2)
	assert.Equal(t, 200.0, series[0].Y)
	assert.Equal(t, 252.0, series[1].Y)
}
