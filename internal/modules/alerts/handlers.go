package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dya-app/dya-go/internal/modules/portfolio"
)

// Dispatcher hands a rendered alert digest to the notification transport.
// Delivery is best-effort; errors are logged and never reach the client.
type Dispatcher interface {
	Dispatch(ctx context.Context, to, subject, body string) error
}

// Handler handles alert HTTP requests
type Handler struct {
	aggregator *portfolio.Service
	evaluator  *Evaluator
	subs       *SubscriptionRepository
	dispatcher Dispatcher // nil disables delivery
	log        zerolog.Logger
}

// NewHandler creates a new alerts handler
func NewHandler(
	aggregator *portfolio.Service,
	evaluator *Evaluator,
	subs *SubscriptionRepository,
	dispatcher Dispatcher,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		aggregator: aggregator,
		evaluator:  evaluator,
		subs:       subs,
		dispatcher: dispatcher,
		log:        log.With().Str("handler", "alerts").Logger(),
	}
}

// HandleGetAlerts evaluates a wallet and returns its alerts. When alerts
// fire and a contact is registered, delivery is attempted in the background;
// the response never waits for (or reflects) delivery.
func (h *Handler) HandleGetAlerts(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if !common.IsHexAddress(address) {
		h.writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	p := h.aggregator.Aggregate(r.Context(), address)
	alerts := h.evaluator.Evaluate(address, p.HealthFactor, p.Positions)

	if len(alerts) > 0 {
		h.dispatch(address, alerts)
	}

	h.writeJSON(w, http.StatusOK, AlertsResponse{Address: address, Alerts: alerts})
}

// HandleSubscribe registers a contact email for an address, overwriting any
// previous registration.
func (h *Handler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !common.IsHexAddress(req.Address) {
		h.writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}
	if req.Email == "" {
		h.writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.subs.Subscribe(req.Address, req.Email); err != nil {
		h.log.Error().Err(err).Str("address", req.Address).Msg("Failed to store subscription")
		h.writeError(w, http.StatusInternalServerError, "failed to store subscription")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// dispatch fires a single best-effort delivery attempt when the address has
// a registered contact.
func (h *Handler) dispatch(address string, alerts []Alert) {
	if h.dispatcher == nil {
		return
	}

	email, err := h.subs.Email(address)
	if err != nil {
		h.log.Error().Err(err).Str("address", address).Msg("Subscription lookup failed")
		return
	}
	if email == "" {
		return
	}

	body := renderDigest(alerts)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := h.dispatcher.Dispatch(ctx, email, "DYA Alerts", body); err != nil {
			h.log.Warn().Err(err).Str("address", address).Msg("Alert delivery failed")
		}
	}()
}

// renderDigest formats alerts as one plain-text line each.
func renderDigest(alerts []Alert) string {
	body := ""
	for _, a := range alerts {
		body += "[" + string(a.Kind) + "] " + a.Message + " (" + a.Protocol + ")\n"
	}
	return body
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
