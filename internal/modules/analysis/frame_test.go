package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sriharshamadamanchi/fundrisk/internal/modules/history"
)

func points(rows ...history.PricePoint) []history.PricePoint { return rows }

func pt(symbol, date string, close float64) history.PricePoint {
	return history.PricePoint{PortfolioID: 1, Symbol: symbol, Date: date, AdjustedClose: close}
}

func TestPivotShapesAndSorts(t *testing.T) {
	f := Pivot(points(
		pt("MSFT", "2024-01-03", 50),
		pt("AAPL", "2024-01-02", 101),
		pt("AAPL", "2024-01-01", 100),
		pt("MSFT", "2024-01-01", 48),
	))

	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, f.Dates)
	assert.Equal(t, []string{"AAPL", "MSFT"}, f.Symbols)

	aapl := f.Column("AAPL")
	assert.Equal(t, 100.0, aapl[0])
	assert.Equal(t, 101.0, aapl[1])
	assert.True(t, math.IsNaN(aapl[2]))
}

func TestDropIncompleteRows(t *testing.T) {
	f := Pivot(points(
		pt("AAPL", "2024-01-01", 100),
		pt("AAPL", "2024-01-02", 101),
		pt("MSFT", "2024-01-02", 50),
	)).DropIncompleteRows()

	assert.Equal(t, []string{"2024-01-02"}, f.Dates)
	assert.Equal(t, 1, f.Rows())
}

func TestForwardFill(t *testing.T) {
	f := Pivot(points(
		pt("AAPL", "2024-01-01", 100),
		pt("AAPL", "2024-01-03", 102),
		pt("MSFT", "2024-01-02", 50),
		pt("MSFT", "2024-01-03", 51),
	)).ForwardFill()

	aapl := f.Column("AAPL")
	assert.Equal(t, []float64{100, 100, 102}, aapl)

	msft := f.Column("MSFT")
	assert.True(t, math.IsNaN(msft[0]), "no earlier value to carry forward")
	assert.Equal(t, 50.0, msft[1])
	assert.Equal(t, 51.0, msft[2])
}

func TestPctChange(t *testing.T) {
	f := Pivot(points(
		pt("AAPL", "2024-01-01", 100),
		pt("AAPL", "2024-01-02", 110),
		pt("AAPL", "2024-01-03", 99),
	)).PctChange()

	require.Equal(t, 2, f.Rows())
	col := f.Column("AAPL")
	assert.InDelta(t, 0.10, col[0], 1e-12)
	assert.InDelta(t, -0.10, col[1], 1e-12)
}

func TestPctChangeSingleRowIsEmpty(t *testing.T) {
	f := Pivot(points(pt("AAPL", "2024-01-01", 100))).PctChange()
	assert.True(t, f.IsEmpty())
}

func TestSelectPreservesRequestedOrder(t *testing.T) {
	f := Pivot(points(
		pt("AAPL", "2024-01-01", 100),
		pt("MSFT", "2024-01-01", 50),
		pt("GOOG", "2024-01-01", 140),
	)).Select([]string{"MSFT", "AAPL", "TSLA"})

	assert.Equal(t, []string{"MSFT", "AAPL"}, f.Symbols)
	assert.Equal(t, []float64{50}, f.Column("MSFT"))
}

func TestWeightedSeries(t *testing.T) {
	f := Pivot(points(
		pt("AAPL", "2024-01-01", 100),
		pt("MSFT", "2024-01-01", 50),
		pt("AAPL", "2024-01-02", 102),
		pt("MSFT", "2024-01-02", 51),
	))

	series, err := f.WeightedSeries(map[string]float64{"AAPL": 0.5, "MSFT": 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 75.0, series[0], 1e-12)
	assert.InDelta(t, 76.5, series[1], 1e-12)
}

func TestWeightedSeriesMissingWeight(t *testing.T) {
	f := Pivot(points(
		pt("AAPL", "2024-01-01", 100),
		pt("MSFT", "2024-01-01", 50),
	))

	_, err := f.WeightedSeries(map[string]float64{"AAPL": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MSFT")
}
