package quotes

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/sriharshamadamanchi/fundrisk/internal/cache"
)

const quoteCacheKeyPrefix = "live_price:"

// PriceFetcher fetches the latest traded price for a symbol.
type PriceFetcher interface {
	GlobalQuote(ctx context.Context, symbol string) (float64, error)
}

// Service answers "current price of symbol S" through a TTL cache over the
// quote API. Failures never propagate: an unavailable price is nil.
type Service struct {
	fetcher PriceFetcher
	cache   cache.Cache
	ttl     time.Duration
	log     zerolog.Logger
}

// NewService creates a new quote service
func NewService(fetcher PriceFetcher, c cache.Cache, ttl time.Duration, log zerolog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		cache:   c,
		ttl:     ttl,
		log:     log.With().Str("component", "quotes").Logger(),
	}
}

// LivePrice returns the cached or freshly fetched live price for a symbol,
// or nil when no price is available.
func (s *Service) LivePrice(ctx context.Context, symbol string) *float64 {
	cacheKey := quoteCacheKeyPrefix + symbol

	if cached, ok := s.cache.Get(ctx, cacheKey); ok {
		if price, err := strconv.ParseFloat(cached, 64); err == nil {
			return &price
		}
	}

	price, err := s.fetcher.GlobalQuote(ctx, symbol)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("Live price unavailable")
		return nil
	}

	s.cache.Set(ctx, cacheKey, strconv.FormatFloat(price, 'f', -1, 64), s.ttl)
	return &price
}
