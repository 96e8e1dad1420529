package portfolio

import "github.com/shopspring/decimal"

// RiskThresholds is the single source of truth for health-factor risk
// classification. The same value is shared by per-position labeling and the
// alert evaluator so the two can never drift apart.
type RiskThresholds struct {
	Critical decimal.Decimal // below this: CRITICAL
	Warn     decimal.Decimal // below this (and at or above Critical): WARN
}

// DefaultRiskThresholds returns the canonical 1.1 / 1.3 policy.
func DefaultRiskThresholds() RiskThresholds {
	return RiskThresholds{
		Critical: decimal.RequireFromString("1.1"),
		Warn:     decimal.RequireFromString("1.3"),
	}
}

// Classify maps a health factor to a risk status. Boundary values belong to
// the lower-risk bucket: exactly 1.1 is WARN, exactly 1.3 is OK.
func (t RiskThresholds) Classify(healthFactor decimal.Decimal) RiskStatus {
	switch {
	case healthFactor.LessThan(t.Critical):
		return RiskCritical
	case healthFactor.LessThan(t.Warn):
		return RiskWarn
	default:
		return RiskOK
	}
}
