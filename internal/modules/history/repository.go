package history

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// Repository handles historical price database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new historical price repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// GetByPortfolio returns every price point for a portfolio, ordered by date
// ascending.
func (r *Repository) GetByPortfolio(portfolioID int64) ([]PricePoint, error) {
	rows, err := r.db.Query(`
		SELECT portfolio_id, symbol, date, adjusted_close
		FROM historical_prices
		WHERE portfolio_id = ?
		ORDER BY date ASC, symbol ASC
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query historical prices: %w", err)
	}
	defer rows.Close()

	var points []PricePoint
	for rows.Next() {
		var p PricePoint
		if err := rows.Scan(&p.PortfolioID, &p.Symbol, &p.Date, &p.AdjustedClose); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price points: %w", err)
	}

	return points, nil
}

// UpsertBatch writes price points in one transaction, replacing values for
// existing (portfolio, symbol, date) keys. Safe to call repeatedly.
func (r *Repository) UpsertBatch(points []PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO historical_prices (portfolio_id, symbol, date, adjusted_close)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (portfolio_id, symbol, date)
		DO UPDATE SET adjusted_close = excluded.adjusted_close
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.Exec(p.PortfolioID, p.Symbol, p.Date, p.AdjustedClose); err != nil {
			return fmt.Errorf("failed to upsert price point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}

	return nil
}

// CountForSymbol returns the number of stored points for one symbol in a
// portfolio. Used by tests and the refresh job.
func (r *Repository) CountForSymbol(portfolioID int64, symbol string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM historical_prices
		WHERE portfolio_id = ? AND symbol = ?
	`, portfolioID, symbol).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count price points: %w", err)
	}
	return count, nil
}
