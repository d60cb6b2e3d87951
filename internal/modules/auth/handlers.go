package auth

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Handler handles login and logout requests
type Handler struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandler creates a new auth handler
func NewHandler(repo *Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "auth").Logger(),
	}
}

type loginRequest struct {
	Username string `json:"username"` // username or email
	Password string `json:"password"`
}

// HandleLogin exchanges credentials for an API token
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Username and password required")
		return
	}
	if req.Username == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "Username and password required")
		return
	}

	user, err := h.repo.GetUserByIdentifier(req.Username)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to look up user")
		h.writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if user == nil {
		h.writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		h.writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.repo.GetOrCreateToken(user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to issue token")
		h.writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"token":   token.Key,
		"user": map[string]interface{}{
			"id":       user.ID,
			"username": user.Username,
		},
	})
}

// HandleLogout deletes the caller's token
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	deleted, err := h.repo.DeleteTokenForUser(user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to delete token")
		h.writeError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	if !deleted {
		h.writeError(w, http.StatusBadRequest, "Token not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
