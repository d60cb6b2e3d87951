package institute

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles institute HTTP requests. Routes carrying this handler are
// mounted behind the admin-only middleware.
type Handler struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandler creates a new institute handler
func NewHandler(repo *Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "institute").Logger(),
	}
}

type instituteRequest struct {
	Name string `json:"name"`
}

// HandleList returns all institutes
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	institutes, err := h.repo.GetAll()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, institutes)
}

// HandleGet returns one institute
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	inst, err := h.repo.GetByID(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if inst == nil {
		h.writeNotFound(w)
		return
	}

	h.writeJSON(w, http.StatusOK, inst)
}

// HandleCreate creates a new institute
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req instituteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	inst, err := h.repo.Create(req.Name)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, inst)
}

// HandleUpdate renames an institute
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	var req instituteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	updated, err := h.repo.Update(id, req.Name)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !updated {
		h.writeNotFound(w)
		return
	}

	inst, err := h.repo.GetByID(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, inst)
}

// HandleDelete removes an institute
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
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

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeNotFound(w)
		return 0, false
	}
	return id, true
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
