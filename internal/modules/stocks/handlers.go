package stocks

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sriharshamadamanchi/fundrisk/internal/modules/auth"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/portfolio"
)

// Handler handles stock HTTP requests
type Handler struct {
	service       *Service
	repo          *Repository
	portfolioRepo *portfolio.Repository
	log           zerolog.Logger
}

// NewHandler creates a new stock handler
func NewHandler(service *Service, repo *Repository, portfolioRepo *portfolio.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		service:       service,
		repo:          repo,
		portfolioRepo: portfolioRepo,
		log:           log.With().Str("handler", "stocks").Logger(),
	}
}

type stockRequest struct {
	Portfolio int64   `json:"portfolio"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Quantity  int64   `json:"quantity"`
	Price     *string `json:"price"`
}

// HandleList returns the caller's stocks, optionally filtered by portfolio
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	var portfolioID *int64
	if raw := r.URL.Query().Get("portfolio"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid portfolio id")
			return
		}
		portfolioID = &id
	}

	stocks, err := h.repo.ListForUser(user.ID, portfolioID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, h.service.Views(r.Context(), stocks))
}

// HandleGet returns one owned stock
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeNotFound(w)
		return
	}

	stock, err := h.repo.GetOwned(id, user.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if stock == nil {
		h.writeNotFound(w)
		return
	}

	h.writeJSON(w, http.StatusOK, h.service.View(r.Context(), *stock))
}

// HandleCreate adds a lot to a portfolio: a new symbol becomes a position
// (and triggers a history backfill), an existing one merges by
// quantity-weighted average price.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	req, price, ok := h.decodeStockRequest(w, r)
	if !ok {
		return
	}

	// Ownership gate: a foreign portfolio reads as absent.
	owned, err := h.portfolioRepo.GetOwned(req.Portfolio, user.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if owned == nil {
		h.writeNotFound(w)
		return
	}

	stock, merged, err := h.service.AddLot(r.Context(), req.Portfolio, req.Symbol, req.Name, req.Quantity, price)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusCreated
	if merged {
		status = http.StatusOK
	}

	h.writeJSON(w, status, h.service.View(r.Context(), *stock))
}

// HandleUpdate replaces name, quantity and price of an owned stock
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeNotFound(w)
		return
	}

	stock, err := h.repo.GetOwned(id, user.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if stock == nil {
		h.writeNotFound(w)
		return
	}

	req, price, ok := h.decodeStockRequest(w, r)
	if !ok {
		return
	}

	if req.Name != "" {
		stock.Name = req.Name
	}
	stock.Quantity = req.Quantity
	stock.Price = price

	if err := h.repo.Update(stock); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, h.service.View(r.Context(), *stock))
}

// HandleDelete removes an owned stock
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

func (h *Handler) decodeStockRequest(w http.ResponseWriter, r *http.Request) (*stockRequest, *decimal.Decimal, bool) {
	var req stockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, nil, false
	}
	if req.Symbol == "" {
		h.writeError(w, http.StatusBadRequest, "symbol is required")
		return nil, nil, false
	}
	if err := validateLot(req.Quantity); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}

	var price *decimal.Decimal
	if req.Price != nil && *req.Price != "" {
		d, err := decimal.NewFromString(*req.Price)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid price")
			return nil, nil, false
		}
		price = &d
	}

	return &req, price, true
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
