package history

// PricePoint is one adjusted-close observation. History is denormalized per
// portfolio: the same symbol's series is stored once per owning portfolio.
type PricePoint struct {
	PortfolioID   int64   `json:"portfolio_id"`
	Symbol        string  `json:"symbol"`
	Date          string  `json:"date"` // YYYY-MM-DD
	AdjustedClose float64 `json:"adjusted_close"`
}
