package analysis

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sriharshamadamanchi/fundrisk/internal/modules/auth"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/portfolio"
)

// Handler exposes the analysis pipelines over HTTP.
type Handler struct {
	service       *Service
	portfolioRepo *portfolio.Repository
	log           zerolog.Logger
}

func NewHandler(service *Service, portfolioRepo *portfolio.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		service:       service,
		portfolioRepo: portfolioRepo,
		log:           log.With().Str("handler", "analysis").Logger(),
	}
}

// HandleAnalyze serves GET /api/portfolio/{id}/analyze/.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedPortfolio(w, r)
	if !ok {
		return
	}

	status, payload := h.service.Analyze(r.Context(), p)
	h.writeJSON(w, status, payload)
}

// HandleRisk serves GET /api/portfolio/{id}/risk/.
func (h *Handler) HandleRisk(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedPortfolio(w, r)
	if !ok {
		return
	}

	status, payload := h.service.Risk(r.Context(), p)
	h.writeJSON(w, status, payload)
}

// ownedPortfolio resolves the {id} route param to a portfolio owned by
// the authenticated user. Anything else, including portfolios belonging
// to other managers, reads as not found.
func (h *Handler) ownedPortfolio(w http.ResponseWriter, r *http.Request) (*portfolio.Portfolio, bool) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return nil, false
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return nil, false
	}

	p, err := h.portfolioRepo.GetOwned(id, user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", id).Msg("Failed to load portfolio")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal server error."})
		return nil, false
	}
	if p == nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return nil, false
	}

	return p, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
