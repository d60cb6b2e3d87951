package alphavantage

// DailyBar is one day of adjusted-close history.
type DailyBar struct {
	Date          string  `json:"date"` // YYYY-MM-DD
	AdjustedClose float64 `json:"adjusted_close"`
}

type globalQuoteResponse struct {
	GlobalQuote struct {
		Price string `json:"05. price"`
	} `json:"Global Quote"`
}

type dailyAdjustedResponse struct {
	TimeSeries map[string]struct {
		AdjustedClose string `json:"5. adjusted close"`
	} `json:"Time Series (Daily)"`
}
