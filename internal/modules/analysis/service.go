package analysis

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/sriharshamadamanchi/fundrisk/internal/modules/history"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/portfolio"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/stocks"
)

// LivePricer resolves a current market price, or nil when unavailable.
type LivePricer interface {
	LivePrice(ctx context.Context, symbol string) *float64
}

// Service runs the analysis pipelines and shapes their JSON payloads.
// Both entry points degrade to a message payload instead of failing when
// the portfolio's data cannot support the computation.
type Service struct {
	stocks  *stocks.Repository
	history *history.Repository
	quotes  LivePricer
	opt     *Optimizer
	now     func() time.Time
	log     zerolog.Logger
}

func NewService(stockRepo *stocks.Repository, historyRepo *history.Repository, quotes LivePricer, opt *Optimizer, log zerolog.Logger) *Service {
	return &Service{
		stocks:  stockRepo,
		history: historyRepo,
		quotes:  quotes,
		opt:     opt,
		now:     time.Now,
		log:     log.With().Str("component", "analysis").Logger(),
	}
}

type stockValuation struct {
	data     []map[string]interface{}
	total    float64
	symbols  []string
	quantity map[string]float64
}

// valueStocks prices each position, manual price first, live quote as
// fallback. Positions with no resolvable price are left out entirely.
func (s *Service) valueStocks(ctx context.Context, list []stocks.Stock) stockValuation {
	v := stockValuation{
		data:     make([]map[string]interface{}, 0, len(list)),
		quantity: make(map[string]float64, len(list)),
	}

	for _, st := range list {
		var manual *float64
		if st.Price != nil && !st.Price.IsZero() {
			f := st.Price.InexactFloat64()
			manual = &f
		}

		live := s.quotes.LivePrice(ctx, st.Symbol)

		price := manual
		if price == nil {
			price = live
		}
		if price == nil {
			continue
		}

		stockTotal := *price * float64(st.Quantity)
		v.total += stockTotal
		v.symbols = append(v.symbols, st.Symbol)
		v.quantity[st.Symbol] = float64(st.Quantity)

		if live != nil && *live == 0 {
			live = nil
		}

		v.data = append(v.data, map[string]interface{}{
			"name":         st.Name,
			"symbol":       st.Symbol,
			"quantity":     st.Quantity,
			"manual_price": manual,
			"live_price":   live,
			"total_value":  stockTotal,
		})
	}

	return v
}

// Analyze runs the full pipeline: valuation, allocation models, per-asset
// risk statistics and the historical value series.
func (s *Service) Analyze(ctx context.Context, p *portfolio.Portfolio) (int, map[string]interface{}) {
	list, err := s.stocks.GetByPortfolio(p.ID)
	if err != nil {
		s.log.Error().Err(err).Int64("portfolio_id", p.ID).Msg("Failed to load stocks")
		return http.StatusInternalServerError, map[string]interface{}{"detail": "Failed to load portfolio stocks."}
	}

	valuation := s.valueStocks(ctx, list)

	points, err := s.history.GetByPortfolio(p.ID)
	if err != nil {
		s.log.Error().Err(err).Int64("portfolio_id", p.ID).Msg("Failed to load historical prices")
		return http.StatusInternalServerError, map[string]interface{}{"detail": "Failed to load historical data."}
	}

	if len(points) == 0 {
		return http.StatusOK, map[string]interface{}{
			"message":            "No historical data available for this portfolio.",
			"stock_data":         valuation.data,
			"total_value":        valuation.total,
			"historical_data":    map[string]interface{}{},
			"risk_measures":      map[string]interface{}{},
			"portfolio_analysis": map[string]interface{}{},
			"portfolio_value":    []ValuePoint{},
			"timestamp":          s.now().Unix(),
		}
	}

	pivoted := Pivot(points)
	if pivoted.IsEmpty() {
		return http.StatusOK, map[string]interface{}{"message": "Historical data exists but is empty."}
	}

	complete := pivoted.DropIncompleteRows()

	var filtered []string
	for _, symbol := range valuation.symbols {
		if complete.HasSymbol(symbol) {
			filtered = append(filtered, symbol)
		}
	}
	if len(filtered) == 0 {
		return http.StatusOK, map[string]interface{}{"message": "None of the stocks have valid historical data."}
	}

	historicalData := rawSeriesBySymbol(points, filtered)

	returns := complete.Select(filtered).PctChange().DropRowsWithNaN()
	if returns.IsEmpty() {
		return http.StatusOK, map[string]interface{}{"message": "Not enough historical data to compute returns."}
	}

	allocation, ok := s.opt.Allocate(returns)
	riskMeasures := AssetRiskMeasures(returns)

	if !ok {
		return http.StatusOK, map[string]interface{}{"message": "Portfolio optimization failed due to insufficient data."}
	}

	values := ValueSeries(complete.Select(filtered), valuation.quantity)

	return http.StatusOK, map[string]interface{}{
		"portfolio": map[string]interface{}{
			"id":   p.ID,
			"name": p.Name,
		},
		"stock_data":      valuation.data,
		"total_value":     valuation.total,
		"historical_data": historicalData,
		"portfolio_analysis": map[string]interface{}{
			"mean_variance": allocation.MeanVariance.Squeeze(),
			"cvar":          allocation.CVaR.Squeeze(),
			"erc":           allocation.RiskParity.Squeeze(),
		},
		"risk_measures":   riskMeasures,
		"portfolio_value": values,
		"timestamp":       s.now().Unix(),
	}
}

// Risk runs the lighter portfolio-level pipeline: forward-filled prices,
// equal weights across valid symbols, whole-portfolio risk statistics.
func (s *Service) Risk(ctx context.Context, p *portfolio.Portfolio) (int, map[string]interface{}) {
	list, err := s.stocks.GetByPortfolio(p.ID)
	if err != nil {
		s.log.Error().Err(err).Int64("portfolio_id", p.ID).Msg("Failed to load stocks")
		return http.StatusInternalServerError, map[string]interface{}{"detail": "Failed to load portfolio stocks."}
	}

	points, err := s.history.GetByPortfolio(p.ID)
	if err != nil {
		s.log.Error().Err(err).Int64("portfolio_id", p.ID).Msg("Failed to load historical prices")
		return http.StatusInternalServerError, map[string]interface{}{"detail": "Failed to load historical data."}
	}

	if len(points) == 0 {
		return http.StatusNotFound, map[string]interface{}{"detail": "No historical data available to calculate portfolio risk."}
	}

	priceData := Pivot(points).ForwardFill()

	var valid []stocks.Stock
	for _, st := range list {
		if priceData.HasSymbol(st.Symbol) {
			valid = append(valid, st)
		}
	}
	if len(valid) == 0 {
		return http.StatusNotFound, map[string]interface{}{"detail": "No valid stocks with historical data for risk calculation."}
	}

	returns := priceData.PctChange().DropRowsWithNaN()
	if returns.IsEmpty() {
		return http.StatusBadRequest, map[string]interface{}{"detail": "Not enough historical data to compute returns."}
	}

	weights := make(map[string]float64, len(valid))
	for _, st := range valid {
		weights[st.Symbol] = 1 / float64(len(priceData.Symbols))
	}

	riskMeasures, err := PortfolioRiskMeasures(returns, weights)
	if err != nil {
		return http.StatusInternalServerError, map[string]interface{}{"detail": "Risk calculation error: " + err.Error()}
	}

	quantities := make(map[string]float64, len(valid))
	for _, st := range valid {
		quantities[st.Symbol] = float64(st.Quantity)
	}

	return http.StatusOK, map[string]interface{}{
		"portfolio_id":    p.ID,
		"risk_measures":   riskMeasures,
		"portfolio_value": ValueSeries(priceData, quantities),
	}
}

// rawSeriesBySymbol groups the stored rows per symbol, preserving the
// stored date order.
func rawSeriesBySymbol(points []history.PricePoint, symbols []string) map[string]map[string]interface{} {
	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[s] = true
	}

	dates := make(map[string][]string)
	prices := make(map[string][]float64)
	for _, p := range points {
		if !wanted[p.Symbol] {
			continue
		}
		dates[p.Symbol] = append(dates[p.Symbol], p.Date)
		prices[p.Symbol] = append(prices[p.Symbol], p.AdjustedClose)
	}

	out := make(map[string]map[string]interface{}, len(symbols))
	for _, s := range symbols {
		d := dates[s]
		if d == nil {
			d = []string{}
		}
		pr := prices[s]
		if pr == nil {
			pr = []float64{}
		}
		out[s] = map[string]interface{}{
			"dates":  d,
			"prices": pr,
		}
	}
	return out
}
