package alerts

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dya-app/dya-go/internal/modules/portfolio"
)

// yieldDropFactor: a deposit APR below 80% of its previous reading is a
// reportable drop. Exactly 80% is not.
var yieldDropFactor = decimal.RequireFromString("0.8")

var oneHundred = decimal.NewFromInt(100)

// Evaluator inspects a wallet's health factor and position set and emits
// structured alerts. Health checks are pure threshold tests; yield checks
// compare against the per-key baseline in the APR store.
type Evaluator struct {
	store      *APRStore
	thresholds portfolio.RiskThresholds
	now        func() time.Time
	log        zerolog.Logger
}

// NewEvaluator creates an alert evaluator sharing the aggregator's risk
// thresholds.
func NewEvaluator(store *APRStore, thresholds portfolio.RiskThresholds, log zerolog.Logger) *Evaluator {
	return &Evaluator{
		store:      store,
		thresholds: thresholds,
		now:        time.Now,
		log:        log.With().Str("service", "alerts").Logger(),
	}
}

// Evaluate never fails: malformed inputs degrade to zero values and an
// empty alert list. A nil health factor means the wallet has no debt and
// skips the health rules entirely.
func (e *Evaluator) Evaluate(address string, healthFactor *decimal.Decimal, positions []portfolio.Position) []Alert {
	alerts := make([]Alert, 0, 2)

	if healthFactor != nil {
		if alert, ok := e.healthAlert(*healthFactor, positions); ok {
			alerts = append(alerts, alert)
		}
	}

	alerts = append(alerts, e.yieldAlerts(address, positions)...)
	return alerts
}

// healthAlert emits at most one alert per evaluation: CRITICAL wins over
// LOW, OK emits nothing.
func (e *Evaluator) healthAlert(healthFactor decimal.Decimal, positions []portfolio.Position) (Alert, bool) {
	protocol := dominantBorrowProtocol(positions)

	suffix := ""
	if protocol != "" {
		suffix = fmt.Sprintf(" on %s position", protocol)
	}

	switch e.thresholds.Classify(healthFactor) {
	case portfolio.RiskCritical:
		message := fmt.Sprintf("Health factor %s below %s%s",
			healthFactor.StringFixed(2), e.thresholds.Critical.String(), suffix)
		return newAlert(KindHealthFactorCritical, message, protocol, e.now()), true
	case portfolio.RiskWarn:
		message := fmt.Sprintf("Health factor %s below %s%s",
			healthFactor.StringFixed(2), e.thresholds.Warn.String(), suffix)
		return newAlert(KindHealthFactorLow, message, protocol, e.now()), true
	default:
		return Alert{}, false
	}
}

// yieldAlerts applies the drop rule to every deposit position. The stored
// baseline is overwritten on every observation; only drops relative to the
// immediately prior reading are reported, and a first observation never
// alerts.
func (e *Evaluator) yieldAlerts(address string, positions []portfolio.Position) []Alert {
	var alerts []Alert
	for _, pos := range positions {
		if pos.Kind != portfolio.KindDeposit {
			continue
		}

		key := aprKey(address, pos.Protocol, pos.Asset, pos.Kind)
		current := pos.DepositAPR
		previous, existed := e.store.Swap(key, current)
		if !existed {
			continue
		}

		if current.LessThan(previous.Mul(yieldDropFactor)) {
			message := fmt.Sprintf("APR dropped from %s%% to %s%% on %s %s",
				previous.Mul(oneHundred).StringFixed(2),
				current.Mul(oneHundred).StringFixed(2),
				pos.Protocol, pos.Asset)
			alerts = append(alerts, newAlert(KindYieldDrop, message, pos.Protocol, e.now()))
		}
	}
	return alerts
}

// dominantBorrowProtocol names the venue carrying the largest debt, for
// health-alert attribution. Empty when the wallet has no borrow positions.
func dominantBorrowProtocol(positions []portfolio.Position) string {
	protocol := ""
	largest := decimal.Zero
	for _, pos := range positions {
		if pos.Kind == portfolio.KindBorrow && pos.BorrowUSD.GreaterThan(largest) {
			largest = pos.BorrowUSD
			protocol = pos.Protocol
		}
	}
	return protocol
}
