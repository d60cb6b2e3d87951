package portfolio

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sriharshamadamanchi/fundrisk/internal/modules/auth"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/manager"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	repo        *Repository
	managerRepo *manager.Repository
	log         zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(repo *Repository, managerRepo *manager.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo:        repo,
		managerRepo: managerRepo,
		log:         log.With().Str("handler", "portfolio").Logger(),
	}
}

type portfolioRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HandleList returns the caller's portfolios. A caller without a fund
// manager sees an empty list rather than an error.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	fm, err := h.managerRepo.GetByUser(user.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if fm == nil {
		h.writeJSON(w, http.StatusOK, []Portfolio{})
		return
	}

	portfolios, err := h.repo.GetAllForManager(fm.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, portfolios)
}

// HandleGet returns one owned portfolio
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeNotFound(w)
		return
	}

	p, err := h.repo.GetOwned(id, user.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if p == nil {
		h.writeNotFound(w)
		return
	}

	h.writeJSON(w, http.StatusOK, p)
}

// HandleCreate creates a portfolio for the caller's fund manager
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	var req portfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	fm, err := h.managerRepo.GetByUser(user.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if fm == nil {
		h.writeError(w, http.StatusBadRequest, "No FundManager associated with this user.")
		return
	}

	p, err := h.repo.Create(req.Name, req.Description, fm.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, p)
}

// HandleUpdate modifies an owned portfolio
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeNotFound(w)
		return
	}

	var req portfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	updated, err := h.repo.Update(id, user.ID, req.Name, req.Description)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !updated {
		h.writeNotFound(w)
		return
	}

	p, err := h.repo.GetOwned(id, user.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, p)
}

// HandleDelete removes an owned portfolio
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeNotFound(w)
		return
	}

	deleted, err := h.repo.Delete(id, user.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !deleted {
		h.writeNotFound(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeNotFound(w http.ResponseWriter) {
	h.writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
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
