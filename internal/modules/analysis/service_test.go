package analysis

import (
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sriharshamadamanchi/fundrisk/internal/database"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/history"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/portfolio"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/stocks"
)

type stubPricer struct{ prices map[string]float64 }

func (s stubPricer) LivePrice(_ context.Context, symbol string) *float64 {
	p, ok := s.prices[symbol]
	if !ok {
		return nil
	}
	return &p
}

type fixture struct {
	svc         *Service
	db          *database.DB
	historyRepo *history.Repository
	portfolio   *portfolio.Portfolio
}

func setup(t *testing.T, prices map[string]float64) *fixture {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	for _, stmt := range []string{
		`INSERT INTO users (username, password_hash) VALUES ('u', 'x')`,
		`INSERT INTO institutes (name) VALUES ('inst')`,
		`INSERT INTO fund_managers (user_id, institute_id) VALUES (1, 1)`,
		`INSERT INTO portfolios (name, fund_manager_id) VALUES ('growth', 1)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	stockRepo := stocks.NewRepository(db.Conn(), zerolog.Nop())
	historyRepo := history.NewRepository(db.Conn(), zerolog.Nop())

	svc := NewService(stockRepo, historyRepo, stubPricer{prices: prices}, NewOptimizer(zerolog.Nop()), zerolog.Nop())

	return &fixture{
		svc:         svc,
		db:          db,
		historyRepo: historyRepo,
		portfolio:   &portfolio.Portfolio{ID: 1, Name: "growth"},
	}
}

func (f *fixture) addStock(t *testing.T, symbol, name string, qty int64, price string) {
	t.Helper()
	var err error
	if price == "" {
		_, err = f.db.Exec(
			`INSERT INTO stocks (portfolio_id, symbol, name, quantity) VALUES (1, ?, ?, ?)`,
			symbol, name, qty)
	} else {
		_, err = f.db.Exec(
			`INSERT INTO stocks (portfolio_id, symbol, name, quantity, price) VALUES (1, ?, ?, ?, ?)`,
			symbol, name, qty, price)
	}
	require.NoError(t, err)
}

func (f *fixture) addHistory(t *testing.T, symbol string, series map[string]float64) {
	t.Helper()
	var pts []history.PricePoint
	for date, close := range series {
		pts = append(pts, history.PricePoint{
			PortfolioID: 1, Symbol: symbol, Date: date, AdjustedClose: close,
		})
	}
	require.NoError(t, f.historyRepo.UpsertBatch(pts))
}

func TestAnalyzeNoHistory(t *testing.T) {
	f := setup(t, nil)
	f.addStock(t, "AAPL", "Apple Inc", 10, "100")

	status, payload := f.svc.Analyze(context.Background(), f.portfolio)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "No historical data available for this portfolio.", payload["message"])
	assert.Equal(t, 1000.0, payload["total_value"])

	stockData := payload["stock_data"].([]map[string]interface{})
	require.Len(t, stockData, 1)
	assert.Equal(t, "AAPL", stockData[0]["symbol"])
	assert.Equal(t, 1000.0, stockData[0]["total_value"])
	assert.Nil(t, stockData[0]["live_price"].(*float64))
}

func TestAnalyzeNoOverlap(t *testing.T) {
	f := setup(t, nil)
	f.addStock(t, "AAPL", "Apple Inc", 10, "100")
	f.addHistory(t, "MSFT", map[string]float64{"2024-01-01": 50, "2024-01-02": 51})

	status, payload := f.svc.Analyze(context.Background(), f.portfolio)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "None of the stocks have valid historical data.", payload["message"])
}

func TestAnalyzeNotEnoughHistory(t *testing.T) {
	f := setup(t, nil)
	f.addStock(t, "AAPL", "Apple Inc", 10, "100")
	f.addHistory(t, "AAPL", map[string]float64{"2024-01-01": 100})

	status, payload := f.svc.Analyze(context.Background(), f.portfolio)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Not enough historical data to compute returns.", payload["message"])
}

func TestAnalyzeFullPipeline(t *testing.T) {
	f := setup(t, map[string]float64{"MSFT": 48})
	f.addStock(t, "AAPL", "Apple Inc", 1, "100")
	f.addStock(t, "MSFT", "Microsoft", 1, "")
	f.addHistory(t, "AAPL", map[string]float64{
		"2024-01-01": 100, "2024-01-02": 101, "2024-01-03": 102,
		"2024-01-04": 100, "2024-01-05": 103,
	})
	f.addHistory(t, "MSFT", map[string]float64{
		"2024-01-01": 50, "2024-01-02": 49, "2024-01-03": 48,
		"2024-01-04": 50, "2024-01-05": 47,
	})

	status, payload := f.svc.Analyze(context.Background(), f.portfolio)

	require.Equal(t, http.StatusOK, status)
	require.NotContains(t, payload, "message")

	p := payload["portfolio"].(map[string]interface{})
	assert.Equal(t, int64(1), p["id"])
	assert.Equal(t, "growth", p["name"])

	// manual 100 for AAPL, live 48 for MSFT
	assert.Equal(t, 148.0, payload["total_value"])

	hist := payload["historical_data"].(map[string]map[string]interface{})
	require.Contains(t, hist, "AAPL")
	require.Contains(t, hist, "MSFT")
	assert.Len(t, hist["AAPL"]["dates"].([]string), 5)

	analysis := payload["portfolio_analysis"].(map[string]interface{})
	for _, key := range []string{"mean_variance", "cvar", "erc"} {
		weights, ok := analysis[key].(map[string]float64)
		require.True(t, ok, key)
		sum := 0.0
		for _, w := range weights {
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-9, key)
	}

	risk := payload["risk_measures"].(map[string]map[string]float64)
	require.Contains(t, risk, "AAPL")
	assert.Greater(t, risk["AAPL"]["Volatility"], 0.0)

	values := payload["portfolio_value"].([]ValuePoint)
	require.Len(t, values, 5)
	assert.Equal(t, ValuePoint{X: "2024-01-01", Y: 150}, values[0])

	assert.NotZero(t, payload["timestamp"])
}

func TestAnalyzeFlatValueSeries(t *testing.T) {
	f := setup(t, nil)
	f.addStock(t, "AAA", "Alpha", 1, "100")
	f.addStock(t, "BBB", "Beta", 1, "50")
	f.addHistory(t, "AAA", map[string]float64{
		"2024-01-01": 100, "2024-01-02": 101, "2024-01-03": 102,
	})
	f.addHistory(t, "BBB", map[string]float64{
		"2024-01-01": 50, "2024-01-02": 49, "2024-01-03": 48,
	})

	status, payload := f.svc.Analyze(context.Background(), f.portfolio)

	require.Equal(t, http.StatusOK, status)
	require.NotContains(t, payload, "message")

	values := payload["portfolio_value"].([]ValuePoint)
	require.Len(t, values, 3)
	for _, v := range values {
		assert.InDelta(t, 150.0, v.Y, 1e-9)
	}
}

func TestAnalyzeSingleAssetSqueezesWeights(t *testing.T) {
	f := setup(t, nil)
	f.addStock(t, "AAPL", "Apple Inc", 2, "100")
	f.addHistory(t, "AAPL", map[string]float64{
		"2024-01-01": 100, "2024-01-02": 101, "2024-01-03": 103,
	})

	status, payload := f.svc.Analyze(context.Background(), f.portfolio)

	require.Equal(t, http.StatusOK, status)
	analysis := payload["portfolio_analysis"].(map[string]interface{})
	assert.Equal(t, 1.0, analysis["mean_variance"])
	assert.Equal(t, 1.0, analysis["cvar"])
	assert.Equal(t, 1.0, analysis["erc"])
}

func TestAnalyzeExcludesUnpricedStocks(t *testing.T) {
	f := setup(t, nil) // no live prices either
	f.addStock(t, "AAPL", "Apple Inc", 10, "")

	status, payload := f.svc.Analyze(context.Background(), f.portfolio)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.0, payload["total_value"])
	assert.Empty(t, payload["stock_data"])
}

func TestRiskNoHistory(t *testing.T) {
	f := setup(t, nil)
	f.addStock(t, "AAPL", "Apple Inc", 10, "100")

	status, payload := f.svc.Risk(context.Background(), f.portfolio)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "No historical data available to calculate portfolio risk.", payload["detail"])
}

func TestRiskNoOverlap(t *testing.T) {
	f := setup(t, nil)
	f.addStock(t, "AAPL", "Apple Inc", 10, "100")
	f.addHistory(t, "MSFT", map[string]float64{"2024-01-01": 50, "2024-01-02": 51})

	status, payload := f.svc.Risk(context.Background(), f.portfolio)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "No valid stocks with historical data for risk calculation.", payload["detail"])
}

func TestRiskNotEnoughHistory(t *testing.T) {
	f := setup(t, nil)
	f.addStock(t, "AAPL", "Apple Inc", 10, "100")
	f.addHistory(t, "AAPL", map[string]float64{"2024-01-01": 100})

	status, payload := f.svc.Risk(context.Background(), f.portfolio)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Not enough historical data to compute returns.", payload["detail"])
}

func TestRiskFullPipeline(t *testing.T) {
	f := setup(t, nil)
	f.addStock(t, "AAPL", "Apple Inc", 1, "100")
	f.addStock(t, "MSFT", "Microsoft", 1, "48")
	f.addHistory(t, "AAPL", map[string]float64{
		"2024-01-01": 100, "2024-01-02": 101, "2024-01-03": 102,
		"2024-01-04": 100, "2024-01-05": 103,
	})
	f.addHistory(t, "MSFT", map[string]float64{
		"2024-01-01": 50, "2024-01-02": 49, "2024-01-03": 48,
		"2024-01-04": 50, "2024-01-05": 47,
	})

	status, payload := f.svc.Risk(context.Background(), f.portfolio)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), payload["portfolio_id"])

	risk := payload["risk_measures"].(map[string]interface{})
	assert.Greater(t, risk["Std_Dev"].(float64), 0.0)
	assert.GreaterOrEqual(t, risk["CVaR_95"].(float64), risk["VaR_95"].(float64))

	values := payload["portfolio_value"].([]ValuePoint)
	require.Len(t, values, 5)
	assert.Equal(t, 150.0, values[0].Y)
}

// A frame column with no held stock behind it has no weight, which the
// risk computation reports instead of silently ignoring the column.
func TestRiskDanglingColumnErrors(t *testing.T) {
	f := setup(t, nil)
	f.addStock(t, "AAPL", "Apple Inc", 1, "100")
	f.addHistory(t, "AAPL", map[string]float64{
		"2024-01-01": 100, "2024-01-02": 101, "2024-01-03": 102,
	})
	f.addHistory(t, "GONE", map[string]float64{
		"2024-01-01": 10, "2024-01-02": 11, "2024-01-03": 12,
	})

	status, payload := f.svc.Risk(context.Background(), f.portfolio)

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, payload["detail"], "Risk calculation error: ")
	assert.Contains(t, payload["detail"], "GONE")
}
