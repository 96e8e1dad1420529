package alerts

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies the condition that raised an alert.
type Kind string

const (
	KindLiquidationRisk      Kind = "LIQUIDATION_RISK"
	KindHealthFactorLow      Kind = "HEALTH_FACTOR_LOW"
	KindHealthFactorCritical Kind = "HEALTH_FACTOR_CRITICAL"
	KindYieldDrop            Kind = "YIELD_DROP"
)

// Alert is one actionable notice produced by an evaluation pass. Alerts are
// ephemeral; only the APR baseline that triggered a yield alert is retained.
type Alert struct {
	ID        string `json:"id"`
	Kind      Kind   `json:"type"`
	Message   string `json:"message"`
	Protocol  string `json:"protocol"`
	Timestamp string `json:"timestamp"`
}

func newAlert(kind Kind, message, protocol string, at time.Time) Alert {
	return Alert{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		Protocol:  protocol,
		Timestamp: at.UTC().Format(time.RFC3339),
	}
}

// AlertsResponse is the wire shape of GET /alerts/{address}.
type AlertsResponse struct {
	Address string  `json:"address"`
	Alerts  []Alert `json:"alerts"`
}

// SubscribeRequest is the body of POST /alerts/subscribe.
type SubscribeRequest struct {
	Address string `json:"address"`
	Email   string `json:"email"`
}
