package prices

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Handler handles price HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new prices handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "prices").Logger(),
	}
}

// HandleGetPrices returns USD prices for a comma-separated symbol list,
// e.g. GET /prices?symbols=eth,dai,usdc -> {"ETH":..., "DAI":..., "USDC":...}.
// Unsupported symbols are omitted without error.
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, "symbols query parameter is required")
		return
	}

	prices := h.service.USDPrices(r.Context(), strings.Split(raw, ","))

	out := make(map[string]float64, len(prices))
	for sym, px := range prices {
		out[sym] = px.InexactFloat64()
	}
	h.writeJSON(w, http.StatusOK, out)
}

// HandlePing proxies an availability probe to the quote provider.
func (h *Handler) HandlePing(w http.ResponseWriter, r *http.Request) {
	body, err := h.service.Ping(r.Context())
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		h.log.Error().Err(err).Msg("Failed to write ping response")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
