package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dya-app/dya-go/internal/clients/subgraph"
	"github.com/dya-app/dya-go/internal/modules/portfolio"
)

const aaveUserQuery = `
	query User($id: ID!) {
		user(id: $id) {
			healthFactor
			userReserves {
				scaledATokenBalance
				scaledVariableDebt
				reserve {
					symbol
					decimals
					liquidityRate
					variableBorrowRate
					price { priceInUsd }
				}
			}
		}
	}
`

// AaveProvider reads a wallet's lending positions from the Aave v3 subgraph.
type AaveProvider struct {
	graph      *subgraph.Client
	thresholds portfolio.RiskThresholds
	log        zerolog.Logger
}

// NewAaveProvider creates an Aave v3 position provider.
func NewAaveProvider(graph *subgraph.Client, thresholds portfolio.RiskThresholds, log zerolog.Logger) *AaveProvider {
	return &AaveProvider{
		graph:      graph,
		thresholds: thresholds,
		log:        log.With().Str("provider", "aave").Logger(),
	}
}

// Name implements portfolio.Provider
func (p *AaveProvider) Name() string {
	return "Aave"
}

type aaveUserReserve struct {
	ScaledATokenBalance string `json:"scaledATokenBalance"`
	ScaledVariableDebt  string `json:"scaledVariableDebt"`
	Reserve             struct {
		Symbol             string `json:"symbol"`
		Decimals           int32  `json:"decimals"`
		LiquidityRate      string `json:"liquidityRate"`
		VariableBorrowRate string `json:"variableBorrowRate"`
		Price              struct {
			PriceInUSD string `json:"priceInUsd"`
		} `json:"price"`
	} `json:"reserve"`
}

// ListPositions implements portfolio.Provider. A reserve with both a
// supplied and a borrowed balance yields one DEPOSIT and one BORROW record.
func (p *AaveProvider) ListPositions(ctx context.Context, address string) ([]portfolio.Position, error) {
	var data struct {
		User *struct {
			HealthFactor string            `json:"healthFactor"`
			UserReserves []aaveUserReserve `json:"userReserves"`
		} `json:"user"`
	}

	variables := map[string]any{"id": strings.ToLower(address)}
	if err := p.graph.Query(ctx, aaveUserQuery, variables, &data); err != nil {
		return nil, fmt.Errorf("aave: query user: %w", err)
	}
	if data.User == nil {
		return nil, nil
	}

	// The subgraph reports the health factor wad-scaled. A wallet with no
	// debt has no meaningful ratio; leave those positions at OK.
	healthFactor := parseWad(data.User.HealthFactor)
	risk := portfolio.RiskOK
	if healthFactor.IsPositive() {
		risk = p.thresholds.Classify(healthFactor)
	}

	var positions []portfolio.Position
	for _, ur := range data.User.UserReserves {
		positions = append(positions, mapAaveReserve(ur, risk)...)
	}
	return positions, nil
}

func mapAaveReserve(ur aaveUserReserve, risk portfolio.RiskStatus) []portfolio.Position {
	priceUSD := decFromString(ur.Reserve.Price.PriceInUSD)
	supplied := decFromString(ur.ScaledATokenBalance).Shift(-ur.Reserve.Decimals)
	borrowed := decFromString(ur.ScaledVariableDebt).Shift(-ur.Reserve.Decimals)

	var positions []portfolio.Position

	if supplied.IsPositive() {
		positions = append(positions, portfolio.Position{
			Protocol:   "Aave",
			Network:    networkEthereum,
			Asset:      ur.Reserve.Symbol,
			Amount:     supplied,
			USDValue:   supplied.Mul(priceUSD),
			DepositAPR: parseRay(ur.Reserve.LiquidityRate),
			RiskStatus: risk,
			Kind:       portfolio.KindDeposit,
		})
	}

	if borrowed.IsPositive() {
		positions = append(positions, portfolio.Position{
			Protocol:     "Aave",
			Network:      networkEthereum,
			Asset:        ur.Reserve.Symbol,
			Amount:       decimal.Zero,
			BorrowAmount: borrowed,
			BorrowAPR:    parseRay(ur.Reserve.VariableBorrowRate),
			BorrowUSD:    borrowed.Mul(priceUSD),
			RiskStatus:   risk,
			Kind:         portfolio.KindBorrow,
		})
	}

	return positions
}
