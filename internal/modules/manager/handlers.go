package manager

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles fund manager HTTP requests
type Handler struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandler creates a new fund manager handler
func NewHandler(repo *Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "fund_manager").Logger(),
	}
}

type managerRequest struct {
	User      int64 `json:"user"`
	Institute int64 `json:"institute"`
}

// HandleList returns all fund managers
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	managers, err := h.repo.GetAll()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, managers)
}

// HandleGet returns one fund manager
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeNotFound(w)
		return
	}

	m, err := h.repo.GetByID(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if m == nil {
		h.writeNotFound(w)
		return
	}

	h.writeJSON(w, http.StatusOK, m)
}

// HandleCreate creates a new fund manager
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req managerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.User == 0 || req.Institute == 0 {
		h.writeError(w, http.StatusBadRequest, "user and institute are required")
		return
	}

	m, err := h.repo.Create(req.User, req.Institute)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, m)
}

// HandleDelete removes a fund manager
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeNotFound(w)
		return
	}

	deleted, err := h.repo.Delete(id)
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
