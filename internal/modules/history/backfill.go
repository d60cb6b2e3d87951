package history

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sriharshamadamanchi/fundrisk/internal/cache"
	"github.com/sriharshamadamanchi/fundrisk/internal/clients/alphavantage"
)

const backfillCacheKeyPrefix = "hist_data:fetched:"

// SeriesFetcher fetches a symbol's full daily adjusted-close history.
type SeriesFetcher interface {
	DailyAdjusted(ctx context.Context, symbol string) ([]alphavantage.DailyBar, error)
}

// BackfillService ensures the historical price store holds a full daily
// history for a symbol. A freshness cache entry short-circuits repeat calls,
// so backfilling is idempotent and cheap inside the TTL window.
type BackfillService struct {
	repo    *Repository
	fetcher SeriesFetcher
	cache   cache.Cache
	ttl     time.Duration
	log     zerolog.Logger
}

// NewBackfillService creates a new backfill service
func NewBackfillService(repo *Repository, fetcher SeriesFetcher, c cache.Cache, ttl time.Duration, log zerolog.Logger) *BackfillService {
	return &BackfillService{
		repo:    repo,
		fetcher: fetcher,
		cache:   c,
		ttl:     ttl,
		log:     log.With().Str("component", "backfill").Logger(),
	}
}

// Ensure backfills history for (portfolio, symbol). Returns true when the
// store is believed to hold the series, false when the upstream fetch
// failed. Never returns an error: failures are logged and degrade to false.
func (s *BackfillService) Ensure(ctx context.Context, portfolioID int64, symbol string) bool {
	cacheKey := backfillCacheKeyPrefix + symbol
	if _, fresh := s.cache.Get(ctx, cacheKey); fresh {
		return true
	}

	bars, err := s.fetcher.DailyAdjusted(ctx, symbol)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Historical fetch failed")
		return false
	}

	points := make([]PricePoint, 0, len(bars))
	for _, bar := range bars {
		points = append(points, PricePoint{
			PortfolioID:   portfolioID,
			Symbol:        symbol,
			Date:          bar.Date,
			AdjustedClose: bar.AdjustedClose,
		})
	}

	if err := s.repo.UpsertBatch(points); err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to store historical prices")
		return false
	}

	s.cache.Set(ctx, cacheKey, "1", s.ttl)

	s.log.Info().
		Str("symbol", symbol).
		Int64("portfolio_id", portfolioID).
		Int("points", len(points)).
		Msg("Backfilled historical prices")

	return true
}

// HeldSymbol pairs a symbol with its owning portfolio, for refresh sweeps.
type HeldSymbol struct {
	PortfolioID int64
	Symbol      string
}

// HeldSymbolLister enumerates every (portfolio, symbol) currently held.
type HeldSymbolLister interface {
	ListHeldSymbols() ([]HeldSymbol, error)
}

// RefreshJob sweeps all held symbols through the backfill service so stored
// history keeps up with new trading days. Scheduled nightly.
type RefreshJob struct {
	lister   HeldSymbolLister
	backfill *BackfillService
	log      zerolog.Logger
}

// NewRefreshJob creates the nightly history refresh job
func NewRefreshJob(lister HeldSymbolLister, backfill *BackfillService, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		lister:   lister,
		backfill: backfill,
		log:      log.With().Str("job", "history_refresh").Logger(),
	}
}

// Name implements scheduler.Job
func (j *RefreshJob) Name() string { return "history_refresh" }

// Run implements scheduler.Job
func (j *RefreshJob) Run() error {
	held, err := j.lister.ListHeldSymbols()
	if err != nil {
		return fmt.Errorf("failed to list held symbols: %w", err)
	}

	refreshed := 0
	for _, hs := range held {
		if j.backfill.Ensure(context.Background(), hs.PortfolioID, hs.Symbol) {
			refreshed++
		}
	}

	j.log.Info().
		Int("held", len(held)).
		Int("refreshed", refreshed).
		Msg("History refresh sweep complete")

	return nil
}
