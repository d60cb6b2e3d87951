package stocks

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sriharshamadamanchi/fundrisk/internal/modules/quotes"
)

// Backfiller ensures the historical price store holds a symbol's series.
type Backfiller interface {
	Ensure(ctx context.Context, portfolioID int64, symbol string) bool
}

// Service owns the position write path: adding a lot either merges into an
// existing position or creates a new one and triggers a history backfill.
type Service struct {
	repo     *Repository
	quotes   *quotes.Service
	backfill Backfiller
	log      zerolog.Logger
}

// NewService creates a new stock service
func NewService(repo *Repository, quoteSvc *quotes.Service, backfill Backfiller, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		quotes:   quoteSvc,
		backfill: backfill,
		log:      log.With().Str("component", "stocks").Logger(),
	}
}

// AddLot adds a lot of a symbol to a portfolio. Returns the resulting
// position and whether it merged into an existing one.
func (s *Service) AddLot(ctx context.Context, portfolioID int64, symbol, name string, quantity int64, price *decimal.Decimal) (*Stock, bool, error) {
	existing, err := s.repo.FindBySymbol(portfolioID, symbol)
	if err != nil {
		return nil, false, err
	}

	if existing != nil {
		existing.Quantity, existing.Price = MergeLot(existing.Quantity, existing.Price, quantity, price)
		if name != "" {
			existing.Name = name
		}
		if err := s.repo.Update(existing); err != nil {
			return nil, false, err
		}

		s.log.Info().
			Str("symbol", symbol).
			Int64("portfolio_id", portfolioID).
			Int64("quantity", existing.Quantity).
			Msg("Merged lot into existing position")

		return existing, true, nil
	}

	stock := &Stock{
		PortfolioID: portfolioID,
		Symbol:      symbol,
		Name:        name,
		Quantity:    quantity,
		Price:       price,
	}
	if err := s.repo.Create(stock); err != nil {
		return nil, false, err
	}

	// Reload to pick up the database-assigned timestamp.
	created, err := s.repo.FindBySymbol(portfolioID, symbol)
	if err == nil && created != nil {
		stock = created
	}

	// First sight of this symbol: make sure its history lands in the
	// store. Failures are logged inside and never block position creation.
	if !s.backfill.Ensure(ctx, portfolioID, symbol) {
		s.log.Warn().Str("symbol", symbol).Msg("Historical backfill unavailable for new position")
	}

	return stock, false, nil
}

// View decorates a stock with its live price and current total value,
// using the manual price when set.
func (s *Service) View(ctx context.Context, stock Stock) StockView {
	live := s.quotes.LivePrice(ctx, stock.Symbol)

	unit := 0.0
	switch {
	case stock.Price != nil:
		unit = stock.Price.InexactFloat64()
	case live != nil:
		unit = *live
	}

	return StockView{
		Stock:      stock,
		TotalValue: unit * float64(stock.Quantity),
		LivePrice:  live,
	}
}

// Views decorates a list of stocks.
func (s *Service) Views(ctx context.Context, list []Stock) []StockView {
	views := make([]StockView, 0, len(list))
	for _, stock := range list {
		views = append(views, s.View(ctx, stock))
	}
	return views
}

// UnitPrice resolves the effective unit price of a position: the manual
// price when set, else the live quote, else nil.
func (s *Service) UnitPrice(ctx context.Context, stock Stock) *float64 {
	if stock.Price != nil {
		p := stock.Price.InexactFloat64()
		return &p
	}
	return s.quotes.LivePrice(ctx, stock.Symbol)
}

func validateLot(quantity int64) error {
	if quantity < 0 {
		return fmt.Errorf("quantity must be non-negative")
	}
	return nil
}
