package stocks

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sriharshamadamanchi/fundrisk/internal/modules/history"
)

// Repository handles stock position database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new stock repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "stocks").Logger(),
	}
}

const stockColumns = `id, portfolio_id, symbol, name, quantity, price, created_at`

// ListForUser returns the stocks across every portfolio owned by the user,
// optionally narrowed to one portfolio. Newest first, as the API lists them.
func (r *Repository) ListForUser(userID int64, portfolioID *int64) ([]Stock, error) {
	query := `
		SELECT s.id, s.portfolio_id, s.symbol, s.name, s.quantity, s.price, s.created_at
		FROM stocks s
		JOIN portfolios p ON p.id = s.portfolio_id
		JOIN fund_managers fm ON fm.id = p.fund_manager_id
		WHERE fm.user_id = ?
	`
	args := []interface{}{userID}

	if portfolioID != nil {
		query += ` AND s.portfolio_id = ?`
		args = append(args, *portfolioID)
	}
	query += ` ORDER BY s.created_at DESC, s.id DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	stocks := []Stock{}
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stocks: %w", err)
	}

	return stocks, nil
}

// GetByPortfolio returns every position in one portfolio
func (r *Repository) GetByPortfolio(portfolioID int64) ([]Stock, error) {
	rows, err := r.db.Query(`
		SELECT `+stockColumns+` FROM stocks
		WHERE portfolio_id = ?
		ORDER BY created_at DESC, id DESC
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	stocks := []Stock{}
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stocks: %w", err)
	}

	return stocks, nil
}

// FindBySymbol returns the position for (portfolio, symbol), or nil
func (r *Repository) FindBySymbol(portfolioID int64, symbol string) (*Stock, error) {
	row := r.db.QueryRow(`
		SELECT `+stockColumns+` FROM stocks
		WHERE portfolio_id = ? AND symbol = ?
	`, portfolioID, symbol)

	s, err := scanStockRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// GetOwned returns a stock only when its portfolio belongs to the user
func (r *Repository) GetOwned(stockID, userID int64) (*Stock, error) {
	row := r.db.QueryRow(`
		SELECT s.id, s.portfolio_id, s.symbol, s.name, s.quantity, s.price, s.created_at
		FROM stocks s
		JOIN portfolios p ON p.id = s.portfolio_id
		JOIN fund_managers fm ON fm.id = p.fund_manager_id
		WHERE s.id = ? AND fm.user_id = ?
	`, stockID, userID)

	s, err := scanStockRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// Create inserts a new position
func (r *Repository) Create(s *Stock) error {
	result, err := r.db.Exec(`
		INSERT INTO stocks (portfolio_id, symbol, name, quantity, price)
		VALUES (?, ?, ?, ?, ?)
	`, s.PortfolioID, s.Symbol, s.Name, s.Quantity, priceArg(s.Price))
	if err != nil {
		return fmt.Errorf("failed to insert stock: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read stock id: %w", err)
	}
	s.ID = id

	return nil
}

// Update persists quantity, price and name of an existing position
func (r *Repository) Update(s *Stock) error {
	_, err := r.db.Exec(`
		UPDATE stocks SET name = ?, quantity = ?, price = ?
		WHERE id = ?
	`, s.Name, s.Quantity, priceArg(s.Price), s.ID)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}

	return nil
}

// Delete removes a position when its portfolio belongs to the user.
// Returns false when no owned row matched.
func (r *Repository) Delete(stockID, userID int64) (bool, error) {
	result, err := r.db.Exec(`
		DELETE FROM stocks
		WHERE id = ? AND portfolio_id IN (
			SELECT p.id FROM portfolios p
			JOIN fund_managers fm ON fm.id = p.fund_manager_id
			WHERE fm.user_id = ?
		)
	`, stockID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	return affected > 0, nil
}

// ListHeldSymbols enumerates every (portfolio, symbol) pair with a position,
// for the nightly history refresh sweep.
func (r *Repository) ListHeldSymbols() ([]history.HeldSymbol, error) {
	rows, err := r.db.Query(`SELECT portfolio_id, symbol FROM stocks ORDER BY portfolio_id, symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query held symbols: %w", err)
	}
	defer rows.Close()

	var held []history.HeldSymbol
	for rows.Next() {
		var hs history.HeldSymbol
		if err := rows.Scan(&hs.PortfolioID, &hs.Symbol); err != nil {
			return nil, fmt.Errorf("failed to scan held symbol: %w", err)
		}
		held = append(held, hs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating held symbols: %w", err)
	}

	return held, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStock(rows *sql.Rows) (Stock, error) {
	return scanInto(rows)
}

func scanStockRow(row *sql.Row) (Stock, error) {
	return scanInto(row)
}

func scanInto(scanner rowScanner) (Stock, error) {
	var s Stock
	var price sql.NullString

	err := scanner.Scan(&s.ID, &s.PortfolioID, &s.Symbol, &s.Name, &s.Quantity, &price, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s, err
		}
		return s, fmt.Errorf("failed to scan stock: %w", err)
	}

	if price.Valid {
		d, err := decimal.NewFromString(price.String)
		if err != nil {
			return s, fmt.Errorf("invalid stored price %q: %w", price.String, err)
		}
		s.Price = &d
	}

	return s, nil
}

func priceArg(price *decimal.Decimal) interface{} {
	if price == nil {
		return nil
	}
	return price.String()
}
