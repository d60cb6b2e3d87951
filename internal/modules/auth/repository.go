package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository handles user and token database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new auth repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "auth").Logger(),
	}
}

// GetUserByIdentifier finds a user by username or email.
// Returns nil when no user matches.
func (r *Repository) GetUserByIdentifier(identifier string) (*User, error) {
	row := r.db.QueryRow(`
		SELECT id, username, email, password_hash, is_admin, created_at
		FROM users
		WHERE username = ? OR email = ?
	`, identifier, identifier)

	return scanUser(row)
}

// GetUserByToken resolves a token key to its user.
// Returns nil when the token does not exist.
func (r *Repository) GetUserByToken(key string) (*User, error) {
	row := r.db.QueryRow(`
		SELECT u.id, u.username, u.email, u.password_hash, u.is_admin, u.created_at
		FROM auth_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.key = ?
	`, key)

	return scanUser(row)
}

// CreateUser inserts a new user with a precomputed password hash.
func (r *Repository) CreateUser(username, email, passwordHash string, isAdmin bool) (*User, error) {
	result, err := r.db.Exec(`
		INSERT INTO users (username, email, password_hash, is_admin)
		VALUES (?, ?, ?, ?)
	`, username, email, passwordHash, boolToInt(isAdmin))
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}

	return &User{ID: id, Username: username, Email: email, PasswordHash: passwordHash, IsAdmin: isAdmin}, nil
}

// GetOrCreateToken returns the user's existing token or mints a new one.
func (r *Repository) GetOrCreateToken(userID int64) (*Token, error) {
	row := r.db.QueryRow(`SELECT key, user_id, created_at FROM auth_tokens WHERE user_id = ?`, userID)

	var t Token
	err := row.Scan(&t.Key, &t.UserID, &t.CreatedAt)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query token: %w", err)
	}

	key := strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := r.db.Exec(`INSERT INTO auth_tokens (key, user_id) VALUES (?, ?)`, key, userID); err != nil {
		return nil, fmt.Errorf("failed to insert token: %w", err)
	}

	return &Token{Key: key, UserID: userID}, nil
}

// DeleteTokenForUser removes the user's token, logging them out everywhere.
// Returns false when the user had no token.
func (r *Repository) DeleteTokenForUser(userID int64) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM auth_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete token: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	return affected > 0, nil
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var isAdmin int

	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &isAdmin, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.IsAdmin = isAdmin != 0
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
