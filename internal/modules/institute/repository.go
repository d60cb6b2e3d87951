package institute

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Repository handles institute database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new institute repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "institute").Logger(),
	}
}

// GetAll returns all institutes
func (r *Repository) GetAll() ([]Institute, error) {
	rows, err := r.db.Query(`SELECT id, name, created_at FROM institutes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query institutes: %w", err)
	}
	defer rows.Close()

	institutes := []Institute{}
	for rows.Next() {
		var inst Institute
		if err := rows.Scan(&inst.ID, &inst.Name, &inst.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan institute: %w", err)
		}
		institutes = append(institutes, inst)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating institutes: %w", err)
	}

	return institutes, nil
}

// GetByID returns one institute, or nil when it does not exist
func (r *Repository) GetByID(id int64) (*Institute, error) {
	var inst Institute
	err := r.db.QueryRow(`SELECT id, name, created_at FROM institutes WHERE id = ?`, id).
		Scan(&inst.ID, &inst.Name, &inst.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan institute: %w", err)
	}

	return &inst, nil
}

// Create inserts a new institute
func (r *Repository) Create(name string) (*Institute, error) {
	result, err := r.db.Exec(`INSERT INTO institutes (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert institute: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read institute id: %w", err)
	}

	return r.GetByID(id)
}

// Update renames an institute. Returns false when it does not exist.
func (r *Repository) Update(id int64, name string) (bool, error) {
	result, err := r.db.Exec(`UPDATE institutes SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return false, fmt.Errorf("failed to update institute: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}

	return affected > 0, nil
}

// Delete removes an institute. Returns false when it does not exist.
func (r *Repository) Delete(id int64) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM institutes WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete institute: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	return affected > 0, nil
}
