package portfolio

// Portfolio is a named collection of stock positions owned by one fund
// manager.
type Portfolio struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	FundManagerID int64  `json:"fund_manager"`
	CreatedAt     string `json:"created_at"`
}
