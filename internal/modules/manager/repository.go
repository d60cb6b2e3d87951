package manager

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Repository handles fund manager database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new fund manager repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "fund_manager").Logger(),
	}
}

// GetAll returns all fund managers
func (r *Repository) GetAll() ([]FundManager, error) {
	rows, err := r.db.Query(`SELECT id, user_id, institute_id FROM fund_managers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund managers: %w", err)
	}
	defer rows.Close()

	managers := []FundManager{}
	for rows.Next() {
		var m FundManager
		if err := rows.Scan(&m.ID, &m.UserID, &m.InstituteID); err != nil {
			return nil, fmt.Errorf("failed to scan fund manager: %w", err)
		}
		managers = append(managers, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fund managers: %w", err)
	}

	return managers, nil
}

// GetByID returns one fund manager, or nil when it does not exist
func (r *Repository) GetByID(id int64) (*FundManager, error) {
	return r.scanOne(r.db.QueryRow(
		`SELECT id, user_id, institute_id FROM fund_managers WHERE id = ?`, id))
}

// GetByUser returns the fund manager bound to a user, or nil when the user
// has none.
func (r *Repository) GetByUser(userID int64) (*FundManager, error) {
	return r.scanOne(r.db.QueryRow(
		`SELECT id, user_id, institute_id FROM fund_managers WHERE user_id = ?`, userID))
}

// Create inserts a new fund manager
func (r *Repository) Create(userID, instituteID int64) (*FundManager, error) {
	result, err := r.db.Exec(
		`INSERT INTO fund_managers (user_id, institute_id) VALUES (?, ?)`, userID, instituteID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert fund manager: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read fund manager id: %w", err)
	}

	return &FundManager{ID: id, UserID: userID, InstituteID: instituteID}, nil
}

// Delete removes a fund manager. Returns false when it does not exist.
func (r *Repository) Delete(id int64) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM fund_managers WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete fund manager: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	return affected > 0, nil
}

func (r *Repository) scanOne(row *sql.Row) (*FundManager, error) {
	var m FundManager
	err := row.Scan(&m.ID, &m.UserID, &m.InstituteID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan fund manager: %w", err)
	}
	return &m, nil
}
