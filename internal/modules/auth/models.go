package auth

// User is an authenticated account. Fund managers reference a user row;
// admin users additionally manage institutes.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	IsAdmin      bool   `json:"-"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// Token is an opaque API token bound to one user.
type Token struct {
	Key       string `json:"key"`
	UserID    int64  `json:"user_id"`
	CreatedAt string `json:"created_at,omitempty"`
}
