package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))

		w.Write([]byte(`{"Global Quote": {"01. symbol": "AAPL", "05. price": "189.5000"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", zerolog.Nop())

	price, err := c.GlobalQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 189.5, price, 1e-9)
}

func TestGlobalQuote_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Rate-limited responses carry a note instead of a quote.
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage!"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", zerolog.Nop())

	_, err := c.GlobalQuote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDailyAdjusted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TIME_SERIES_DAILY_ADJUSTED", r.URL.Query().Get("function"))
		assert.Equal(t, "full", r.URL.Query().Get("outputsize"))

		w.Write([]byte(`{
			"Time Series (Daily)": {
				"2024-01-03": {"5. adjusted close": "102.0"},
				"2024-01-02": {"5. adjusted close": "101.0"},
				"not-a-date": {"5. adjusted close": "99.0"}
			}
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", zerolog.Nop())

	bars, err := c.DailyAdjusted(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, bars, 2)

	// Ascending by date, malformed entries skipped.
	assert.Equal(t, "2024-01-02", bars[0].Date)
	assert.InDelta(t, 101.0, bars[0].AdjustedClose, 1e-9)
	assert.Equal(t, "2024-01-03", bars[1].Date)
}
