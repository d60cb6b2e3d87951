package analysis

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/sriharshamadamanchi/fundrisk/pkg/formulas"
)

// AssetRiskMeasures computes per-symbol risk statistics from a returns
// matrix. VaR and CVaR are reported as positive loss magnitudes.
func AssetRiskMeasures(returns *Frame) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(returns.Symbols))
	for _, symbol := range returns.Symbols {
		series := returns.Column(symbol)

		var95 := formulas.Percentile(series, 5)
		tail := make([]float64, 0, len(series))
		for _, r := range series {
			if r <= var95 {
				tail = append(tail, r)
			}
		}
		cvar95 := formulas.Mean(tail)

		out[symbol] = map[string]float64{
			"MAD":          formulas.MeanAbsDev(series),
			"Volatility":   formulas.PopStdDev(series),
			"VaR_95":       -var95,
			"CVaR_95":      -cvar95,
			"Max_Drawdown": formulas.MaxDrawdownCumulative(series),
		}
	}
	return out
}

// PortfolioRiskMeasures computes whole-portfolio risk from a returns
// matrix and a weight per column. Standard deviation comes from the
// sample covariance matrix; VaR and CVaR from the weighted historical
// return series.
func PortfolioRiskMeasures(returns *Frame, weights map[string]float64) (map[string]interface{}, error) {
	if returns.IsEmpty() || len(weights) == 0 {
		return map[string]interface{}{
			"Std_Dev": nil,
			"VaR_95":  nil,
			"CVaR_95": nil,
		}, nil
	}

	series, err := returns.WeightedSeries(weights)
	if err != nil {
		return nil, err
	}

	n := len(returns.Symbols)
	w := make([]float64, n)
	for j, s := range returns.Symbols {
		w[j] = weights[s]
	}

	x := mat.NewDense(returns.Rows(), n, returns.matrix())
	sigma := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(sigma, x, nil)

	variance := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			variance += w[i] * sigma.At(i, j) * w[j]
		}
	}
	if variance < 0 {
		variance = 0
	}

	return map[string]interface{}{
		"Std_Dev": math.Sqrt(variance),
		"VaR_95":  formulas.HistVaR(series, 0.05),
		"CVaR_95": formulas.HistCVaR(series, 0.05),
	}, nil
}
