package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionKind distinguishes supplied collateral from borrowed debt.
type PositionKind string

const (
	KindDeposit PositionKind = "DEPOSIT"
	KindBorrow  PositionKind = "BORROW"
)

// RiskStatus labels how close a position's owner is to liquidation.
type RiskStatus string

const (
	RiskOK       RiskStatus = "OK"
	RiskWarn     RiskStatus = "WARN"
	RiskCritical RiskStatus = "CRITICAL"
)

// Position is one normalized exposure a wallet has to one asset on one
// protocol. A reserve with both a supplied and a borrowed balance is always
// represented as two records, one DEPOSIT and one BORROW, so per-record APR
// and USD figures stay unambiguous.
type Position struct {
	Protocol string
	Network  string
	Asset    string // symbol or synthetic label, e.g. "LP-ETH/USDC-3000"

	Amount     decimal.Decimal // asset-native units of the deposit side
	USDValue   decimal.Decimal // valuation of the deposit side
	DepositAPR decimal.Decimal // decimal fraction, 0.045 = 4.5%/yr

	BorrowAmount decimal.Decimal // asset-native borrowed units, zero for deposits
	BorrowAPR    decimal.Decimal
	BorrowUSD    decimal.Decimal // USD equivalent of BorrowAmount

	RiskStatus RiskStatus
	Kind       PositionKind
}

// Portfolio is the aggregated view for one wallet at one instant.
type Portfolio struct {
	Address        string
	TotalUSD       decimal.Decimal
	TotalBorrowUSD decimal.Decimal
	NetWorthUSD    decimal.Decimal
	HealthFactor   *decimal.Decimal // nil means no debt
	Positions      []Position
	AsOf           time.Time
}

// PositionDTO is the wire representation of a Position. Values are plain
// JSON numbers for the dashboard client.
type PositionDTO struct {
	Protocol     string  `json:"protocol"`
	Network      string  `json:"network"`
	Asset        string  `json:"asset"`
	Amount       float64 `json:"amount"`
	USDValue     float64 `json:"usdValue"`
	APR          float64 `json:"apr"`
	BorrowAmount float64 `json:"borrowAmount"`
	BorrowAPR    float64 `json:"borrowApr"`
	RiskStatus   string  `json:"riskStatus"`
	PositionType string  `json:"positionType"`
}

// PortfolioDTO is the wire representation of a Portfolio. HealthFactor is
// null when the wallet carries no debt.
type PortfolioDTO struct {
	Address        string        `json:"address"`
	TotalUSD       float64       `json:"totalUsd"`
	NetWorthUSD    float64       `json:"netWorthUsd"`
	HealthFactor   *float64      `json:"healthFactor"`
	Positions      []PositionDTO `json:"positions"`
	LastUpdatedISO string        `json:"lastUpdatedIso"`
}

// ToDTO converts a Position for the HTTP surface.
func (p Position) ToDTO() PositionDTO {
	return PositionDTO{
		Protocol:     p.Protocol,
		Network:      p.Network,
		Asset:        p.Asset,
		Amount:       p.Amount.InexactFloat64(),
		USDValue:     p.USDValue.InexactFloat64(),
		APR:          p.DepositAPR.InexactFloat64(),
		BorrowAmount: p.BorrowAmount.InexactFloat64(),
		BorrowAPR:    p.BorrowAPR.InexactFloat64(),
		RiskStatus:   string(p.RiskStatus),
		PositionType: string(p.Kind),
	}
}

// ToDTO converts a Portfolio for the HTTP surface.
func (p Portfolio) ToDTO() PortfolioDTO {
	positions := make([]PositionDTO, 0, len(p.Positions))
	for _, pos := range p.Positions {
		positions = append(positions, pos.ToDTO())
	}

	var hf *float64
	if p.HealthFactor != nil {
		v := p.HealthFactor.InexactFloat64()
		hf = &v
	}

	return PortfolioDTO{
		Address:        p.Address,
		TotalUSD:       p.TotalUSD.InexactFloat64(),
		NetWorthUSD:    p.NetWorthUSD.InexactFloat64(),
		HealthFactor:   hf,
		Positions:      positions,
		LastUpdatedISO: p.AsOf.UTC().Format(time.RFC3339),
	}
}
