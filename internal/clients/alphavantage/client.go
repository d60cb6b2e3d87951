package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnavailable signals that the API answered but carried no usable price
// data (bad symbol, rate limit note, empty payload).
var ErrUnavailable = fmt.Errorf("alphavantage: no price data available")

// Client is an Alpha Vantage API client
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// New creates a new Alpha Vantage client
func New(baseURL, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log.With().Str("client", "alphavantage").Logger(),
	}
}

// GlobalQuote fetches the latest traded price for a symbol.
func (c *Client) GlobalQuote(ctx context.Context, symbol string) (float64, error) {
	body, err := c.get(ctx, url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {symbol},
	})
	if err != nil {
		return 0, err
	}

	var payload globalQuoteResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("failed to decode quote response: %w", err)
	}

	if payload.GlobalQuote.Price == "" {
		return 0, ErrUnavailable
	}

	price, err := strconv.ParseFloat(payload.GlobalQuote.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", payload.GlobalQuote.Price, err)
	}

	return price, nil
}

// DailyAdjusted fetches the full daily adjusted-close history for a symbol,
// ordered by date ascending.
func (c *Client) DailyAdjusted(ctx context.Context, symbol string) ([]DailyBar, error) {
	body, err := c.get(ctx, url.Values{
		"function":   {"TIME_SERIES_DAILY_ADJUSTED"},
		"symbol":     {symbol},
		"outputsize": {"full"},
	})
	if err != nil {
		return nil, err
	}

	var payload dailyAdjustedResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode daily series: %w", err)
	}

	if len(payload.TimeSeries) == 0 {
		return nil, ErrUnavailable
	}

	bars := make([]DailyBar, 0, len(payload.TimeSeries))
	for date, values := range payload.TimeSeries {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			c.log.Warn().Str("symbol", symbol).Str("date", date).Msg("Skipping malformed date")
			continue
		}

		close, err := strconv.ParseFloat(values.AdjustedClose, 64)
		if err != nil {
			c.log.Warn().Str("symbol", symbol).Str("date", date).Msg("Skipping malformed close")
			continue
		}

		bars = append(bars, DailyBar{Date: date, AdjustedClose: close})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })

	return bars, nil
}

func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/query?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}
