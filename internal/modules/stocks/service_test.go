package stocks

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sriharshamadamanchi/fundrisk/internal/cache"
	"github.com/sriharshamadamanchi/fundrisk/internal/database"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/quotes"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestMergeLot(t *testing.T) {
	tests := []struct {
		name          string
		existingQty   int64
		existingPrice *decimal.Decimal
		lotQty        int64
		lotPrice      *decimal.Decimal
		wantQty       int64
		wantPrice     *decimal.Decimal
	}{
		{
			name:        "weighted average price",
			existingQty: 10, existingPrice: dec("100"),
			lotQty: 10, lotPrice: dec("120"),
			wantQty: 20, wantPrice: dec("110"),
		},
		{
			name:        "no incoming price keeps existing",
			existingQty: 10, existingPrice: dec("100"),
			lotQty: 5, lotPrice: nil,
			wantQty: 15, wantPrice: dec("100"),
		},
		{
			name:        "missing existing price counts as zero",
			existingQty: 10, existingPrice: nil,
			lotQty: 10, lotPrice: dec("120"),
			wantQty: 20, wantPrice: dec("60"),
		},
		{
			name:        "uneven quantities",
			existingQty: 30, existingPrice: dec("10"),
			lotQty: 10, lotPrice: dec("20"),
			wantQty: 40, wantPrice: dec("12.5"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qty, price := MergeLot(tt.existingQty, tt.existingPrice, tt.lotQty, tt.lotPrice)
			assert.Equal(t, tt.wantQty, qty)

			if tt.wantPrice == nil {
				assert.Nil(t, price)
			} else {
				require.NotNil(t, price)
				assert.True(t, tt.wantPrice.Equal(*price),
					"want %s, got %s", tt.wantPrice, price)
			}
		})
	}
}

type stubQuoter struct{ price float64 }

func (s stubQuoter) GlobalQuote(context.Context, string) (float64, error) { return s.price, nil }

type stubBackfiller struct{ calls []string }

func (s *stubBackfiller) Ensure(_ context.Context, _ int64, symbol string) bool {
	s.calls = append(s.calls, symbol)
	return true
}

func setupService(t *testing.T) (*Service, *Repository, *stubBackfiller) {
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

	repo := NewRepository(db.Conn(), zerolog.Nop())
	quoteSvc := quotes.NewService(stubQuoter{price: 50}, cache.NewMemory(), time.Hour, zerolog.Nop())
	backfill := &stubBackfiller{}

	return NewService(repo, quoteSvc, backfill, zerolog.Nop()), repo, backfill
}

func TestAddLot_CreatesAndBackfills(t *testing.T) {
	svc, repo, backfill := setupService(t)

	stock, merged, err := svc.AddLot(context.Background(), 1, "AAPL", "Apple Inc", 10, dec("100"))
	require.NoError(t, err)
	assert.False(t, merged)
	assert.Equal(t, []string{"AAPL"}, backfill.calls)

	stored, err := repo.FindBySymbol(1, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, int64(10), stored.Quantity)
	assert.True(t, stored.Price.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, stock.ID, stored.ID)
}

func TestAddLot_MergesExistingPosition(t *testing.T) {
	svc, repo, backfill := setupService(t)

	_, _, err := svc.AddLot(context.Background(), 1, "AAPL", "Apple Inc", 10, dec("100"))
	require.NoError(t, err)

	stock, merged, err := svc.AddLot(context.Background(), 1, "AAPL", "Apple Inc", 10, dec("120"))
	require.NoError(t, err)
	assert.True(t, merged)
	assert.Equal(t, int64(20), stock.Quantity)
	assert.True(t, stock.Price.Equal(decimal.RequireFromString("110")))

	// Merge does not re-trigger a backfill.
	assert.Equal(t, []string{"AAPL"}, backfill.calls)

	// Still a single row for the symbol.
	all, err := repo.GetByPortfolio(1)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestView_PrefersManualPrice(t *testing.T) {
	svc, _, _ := setupService(t)

	manual := svc.View(context.Background(), Stock{Symbol: "AAPL", Quantity: 2, Price: dec("100")})
	assert.InDelta(t, 200.0, manual.TotalValue, 1e-9)

	// Without a manual price the live quote (50) is used.
	live := svc.View(context.Background(), Stock{Symbol: "MSFT", Quantity: 2})
	assert.InDelta(t, 100.0, live.TotalValue, 1e-9)
	require.NotNil(t, live.LivePrice)
}

func TestListHeldSymbols(t *testing.T) {
	svc, repo, _ := setupService(t)

	_, _, err := svc.AddLot(context.Background(), 1, "AAPL", "Apple", 1, nil)
	require.NoError(t, err)
	_, _, err = svc.AddLot(context.Background(), 1, "MSFT", "Microsoft", 1, nil)
	require.NoError(t, err)

	held, err := repo.ListHeldSymbols()
	require.NoError(t, err)
	require.Len(t, held, 2)
	assert.Equal(t, "AAPL", held[0].Symbol)
	assert.Equal(t, "MSFT", held[1].Symbol)
}
