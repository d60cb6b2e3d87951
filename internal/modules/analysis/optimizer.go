package analysis

import (
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/sriharshamadamanchi/fundrisk/pkg/formulas"
)

// Weights maps symbol to portfolio fraction. Fractions sum to 1.
type Weights map[string]float64

// Allocation carries the three model portfolios computed from one
// returns matrix.
type Allocation struct {
	MeanVariance Weights
	CVaR         Weights
	RiskParity   Weights
}

// Optimizer searches the long-only simplex for model portfolios.
type Optimizer struct {
	log zerolog.Logger
}

func NewOptimizer(log zerolog.Logger) *Optimizer {
	return &Optimizer{log: log.With().Str("component", "optimizer").Logger()}
}

// Allocate computes a max-Sharpe mean-variance portfolio, a max-Sharpe
// CVaR portfolio and an equal-risk-contribution portfolio from a returns
// matrix. ok is false when any of the three searches fails to produce
// finite weights.
func (o *Optimizer) Allocate(returns *Frame) (*Allocation, bool) {
	n := len(returns.Symbols)
	if returns.IsEmpty() {
		return nil, false
	}
	if n == 1 {
		single := Weights{returns.Symbols[0]: 1}
		return &Allocation{MeanVariance: single, CVaR: single, RiskParity: single}, true
	}

	rows := returns.Rows()
	data := returns.matrix()
	x := mat.NewDense(rows, n, data)

	mu := make([]float64, n)
	for j := 0; j < n; j++ {
		mu[j] = stat.Mean(mat.Col(nil, j, x), nil)
	}

	sigma := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(sigma, x, nil)

	mv := o.search(n, func(w []float64) float64 {
		return -sharpe(mu, w, stdDev(sigma, w))
	})
	cvar := o.search(n, func(w []float64) float64 {
		series := weightedReturns(x, w)
		return -sharpe(mu, w, formulas.HistCVaR(series, 0.05))
	})
	erc := o.search(n, func(w []float64) float64 {
		return riskContributionSpread(sigma, w)
	})

	if mv == nil || cvar == nil || erc == nil {
		return nil, false
	}

	return &Allocation{
		MeanVariance: zipWeights(returns.Symbols, mv),
		CVaR:         zipWeights(returns.Symbols, cvar),
		RiskParity:   zipWeights(returns.Symbols, erc),
	}, true
}

// search minimizes objective over the simplex via a softmax
// reparameterization, so the solver itself runs unconstrained.
func (o *Optimizer) search(n int, objective func(w []float64) float64) []float64 {
	problem := optimize.Problem{
		Func: func(z []float64) float64 {
			v := objective(softmax(z))
			if math.IsNaN(v) {
				return math.Inf(1)
			}
			return v
		},
	}

	z0 := make([]float64, n)
	result, err := optimize.Minimize(problem, z0, nil, &optimize.NelderMead{})
	if err != nil {
		o.log.Warn().Err(err).Msg("Weight search failed")
		return nil
	}

	w := softmax(result.X)
	for _, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
	}
	return w
}

func softmax(z []float64) []float64 {
	maxZ := math.Inf(-1)
	for _, v := range z {
		if v > maxZ {
			maxZ = v
		}
	}

	w := make([]float64, len(z))
	sum := 0.0
	for i, v := range z {
		w[i] = math.Exp(v - maxZ)
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

func sharpe(mu, w []float64, risk float64) float64 {
	if risk < 1e-12 {
		risk = 1e-12
	}
	ret := 0.0
	for i, m := range mu {
		ret += m * w[i]
	}
	return ret / risk
}

// stdDev computes sqrt(wᵀΣw).
func stdDev(sigma *mat.SymDense, w []float64) float64 {
	n := len(w)
	variance := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			variance += w[i] * sigma.At(i, j) * w[j]
		}
	}
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// riskContributionSpread penalizes unequal risk contributions
// RC_i = w_i·(Σw)_i.
func riskContributionSpread(sigma *mat.SymDense, w []float64) float64 {
	n := len(w)
	rc := make([]float64, n)
	mean := 0.0
	for i := 0; i < n; i++ {
		marginal := 0.0
		for j := 0; j < n; j++ {
			marginal += sigma.At(i, j) * w[j]
		}
		rc[i] = w[i] * marginal
		mean += rc[i]
	}
	mean /= float64(n)

	spread := 0.0
	for _, v := range rc {
		d := v - mean
		spread += d * d
	}
	return spread
}

func weightedReturns(x *mat.Dense, w []float64) []float64 {
	rows, cols := x.Dims()
	series := make([]float64, rows)
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			sum += x.At(i, j) * w[j]
		}
		series[i] = sum
	}
	return series
}

func zipWeights(symbols []string, w []float64) Weights {
	out := make(Weights, len(symbols))
	for i, s := range symbols {
		out[s] = w[i]
	}
	return out
}

// Squeeze collapses a single-asset weight map to its bare fraction, and
// leaves multi-asset maps as-is, matching the serialized shape clients
// expect.
func (w Weights) Squeeze() interface{} {
	if len(w) == 1 {
		for _, v := range w {
			return v
		}
	}
	return map[string]float64(w)
}
