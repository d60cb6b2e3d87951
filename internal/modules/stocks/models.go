package stocks

import "github.com/shopspring/decimal"

// Stock is a position in one portfolio. At most one row exists per
// (portfolio, symbol); repeated buys merge through MergeLot.
type Stock struct {
	ID          int64            `json:"id"`
	PortfolioID int64            `json:"portfolio"`
	Symbol      string           `json:"symbol"`
	Name        string           `json:"name"`
	Quantity    int64            `json:"quantity"`
	Price       *decimal.Decimal `json:"price"` // manual unit price, optional
	CreatedAt   string           `json:"created_at"`
}

// StockView is a Stock enriched with computed valuation fields for API
// responses.
type StockView struct {
	Stock
	TotalValue float64  `json:"total_value"`
	LivePrice  *float64 `json:"live_price"`
}

// MergeLot combines an existing position with an incoming lot of the same
// symbol. Quantities are summed; when the incoming lot carries a price the
// result price is the quantity-weighted average (a missing existing price
// counts as zero), otherwise the existing price is kept untouched.
func MergeLot(existingQty int64, existingPrice *decimal.Decimal, lotQty int64, lotPrice *decimal.Decimal) (int64, *decimal.Decimal) {
	totalQty := existingQty + lotQty

	if lotPrice == nil || totalQty == 0 {
		return totalQty, existingPrice
	}

	existing := decimal.Zero
	if existingPrice != nil {
		existing = *existingPrice
	}

	weighted := existing.Mul(decimal.NewFromInt(existingQty)).
		Add(lotPrice.Mul(decimal.NewFromInt(lotQty))).
		Div(decimal.NewFromInt(totalQty))

	return totalQty, &weighted
}
