package portfolio

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Repository handles portfolio database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new portfolio repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

// GetAllForManager returns the portfolios owned by one fund manager
func (r *Repository) GetAllForManager(managerID int64) ([]Portfolio, error) {
	rows, err := r.db.Query(`
		SELECT id, name, description, fund_manager_id, created_at
		FROM portfolios
		WHERE fund_manager_id = ?
		ORDER BY id
	`, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	portfolios := []Portfolio{}
	for rows.Next() {
		var p Portfolio
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.FundManagerID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}

	return portfolios, nil
}

// GetOwned returns a portfolio only when it belongs to the given user's fund
// manager. A portfolio owned by someone else is indistinguishable from one
// that does not exist: both return nil.
func (r *Repository) GetOwned(portfolioID, userID int64) (*Portfolio, error) {
	row := r.db.QueryRow(`
		SELECT p.id, p.name, p.description, p.fund_manager_id, p.created_at
		FROM portfolios p
		JOIN fund_managers fm ON fm.id = p.fund_manager_id
		WHERE p.id = ? AND fm.user_id = ?
	`, portfolioID, userID)

	var p Portfolio
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.FundManagerID, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan portfolio: %w", err)
	}

	return &p, nil
}

// Create inserts a new portfolio for a fund manager
func (r *Repository) Create(name, description string, managerID int64) (*Portfolio, error) {
	result, err := r.db.Exec(`
		INSERT INTO portfolios (name, description, fund_manager_id)
		VALUES (?, ?, ?)
	`, name, description, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert portfolio: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolio id: %w", err)
	}

	row := r.db.QueryRow(`
		SELECT id, name, description, fund_manager_id, created_at
		FROM portfolios WHERE id = ?
	`, id)

	var p Portfolio
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.FundManagerID, &p.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan portfolio: %w", err)
	}

	return &p, nil
}

// Update modifies name and description of an owned portfolio.
// Returns false when the portfolio is not owned by the user.
func (r *Repository) Update(portfolioID, userID int64, name, description string) (bool, error) {
	result, err := r.db.Exec(`
		UPDATE portfolios
		SET name = ?, description = ?
		WHERE id = ? AND fund_manager_id IN (
			SELECT id FROM fund_managers WHERE user_id = ?
		)
	`, name, description, portfolioID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to update portfolio: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}

	return affected > 0, nil
}

// Delete removes an owned portfolio.
// Returns false when the portfolio is not owned by the user.
func (r *Repository) Delete(portfolioID, userID int64) (bool, error) {
	result, err := r.db.Exec(`
		DELETE FROM portfolios
		WHERE id = ? AND fund_manager_id IN (
			SELECT id FROM fund_managers WHERE user_id = ?
		)
	`, portfolioID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete portfolio: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	return affected > 0, nil
}
