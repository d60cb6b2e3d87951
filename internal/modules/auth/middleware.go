package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

type contextKey string

const userContextKey contextKey = "auth.user"

// UserFrom extracts the authenticated user from a request context.
func UserFrom(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey).(*User)
	return user, ok
}

// WithUser returns a context carrying the given user, as RequireAuth
// would set it.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// Middleware authenticates requests via "Authorization: Token <key>" headers
type Middleware struct {
	repo *Repository
	log  zerolog.Logger
}

// NewMiddleware creates the token-auth middleware
func NewMiddleware(repo *Repository, log zerolog.Logger) *Middleware {
	return &Middleware{
		repo: repo,
		log:  log.With().Str("component", "auth_middleware").Logger(),
	}
}

// RequireAuth rejects requests without a valid token
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := tokenFromHeader(r.Header.Get("Authorization"))
		if !ok {
			unauthorized(w, "Authentication credentials were not provided.")
			return
		}

		user, err := m.repo.GetUserByToken(key)
		if err != nil {
			m.log.Error().Err(err).Msg("Token lookup failed")
			unauthorized(w, "Invalid token.")
			return
		}
		if user == nil {
			unauthorized(w, "Invalid token.")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireAdmin rejects non-admin users. Must run after RequireAuth.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFrom(r.Context())
		if !ok || !user.IsAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{
				"detail": "You do not have permission to perform this action.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tokenFromHeader(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Token") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
