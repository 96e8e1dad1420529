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

const uniswapPositionsQuery = `
	query Positions($owner: String!) {
		positions(where: { owner: $owner }) {
			liquidity
			pool {
				liquidity
				feeTier
				token0 { symbol derivedUSD }
				token1 { symbol derivedUSD }
				totalValueLockedToken0
				totalValueLockedToken1
				totalValueLockedUSD
				feesUSD
			}
		}
	}
`

var daysPerYear = decimal.NewFromInt(365)

// UniswapProvider reads a wallet's LP stakes from the Uniswap v3 subgraph.
// Each stake becomes a single DEPOSIT position under a synthetic
// "LP-<token0>/<token1>-<feeTier>" asset label.
type UniswapProvider struct {
	graph *subgraph.Client
	log   zerolog.Logger
}

// NewUniswapProvider creates a Uniswap v3 position provider.
func NewUniswapProvider(graph *subgraph.Client, log zerolog.Logger) *UniswapProvider {
	return &UniswapProvider{
		graph: graph,
		log:   log.With().Str("provider", "uniswap").Logger(),
	}
}

// Name implements portfolio.Provider
func (p *UniswapProvider) Name() string {
	return "UniswapV3"
}

type uniswapPosition struct {
	Liquidity string `json:"liquidity"`
	Pool      struct {
		Liquidity string `json:"liquidity"`
		FeeTier   string `json:"feeTier"`
		Token0    struct {
			Symbol     string `json:"symbol"`
			DerivedUSD string `json:"derivedUSD"`
		} `json:"token0"`
		Token1 struct {
			Symbol     string `json:"symbol"`
			DerivedUSD string `json:"derivedUSD"`
		} `json:"token1"`
		TotalValueLockedToken0 string `json:"totalValueLockedToken0"`
		TotalValueLockedToken1 string `json:"totalValueLockedToken1"`
		TotalValueLockedUSD    string `json:"totalValueLockedUSD"`
		FeesUSD                string `json:"feesUSD"`
	} `json:"pool"`
}

// ListPositions implements portfolio.Provider
func (p *UniswapProvider) ListPositions(ctx context.Context, address string) ([]portfolio.Position, error) {
	var data struct {
		Positions []uniswapPosition `json:"positions"`
	}

	variables := map[string]any{"owner": strings.ToLower(address)}
	if err := p.graph.Query(ctx, uniswapPositionsQuery, variables, &data); err != nil {
		return nil, fmt.Errorf("uniswap: query positions: %w", err)
	}

	var positions []portfolio.Position
	for _, raw := range data.Positions {
		if pos, ok := mapUniswapPosition(raw); ok {
			positions = append(positions, pos)
		}
	}
	return positions, nil
}

func mapUniswapPosition(raw uniswapPosition) (portfolio.Position, bool) {
	poolLiquidity := decFromString(raw.Pool.Liquidity)
	if !poolLiquidity.IsPositive() {
		return portfolio.Position{}, false
	}

	share := decFromString(raw.Liquidity).DivRound(poolLiquidity, 18)

	token0Amount := decFromString(raw.Pool.TotalValueLockedToken0).Mul(share)
	token1Amount := decFromString(raw.Pool.TotalValueLockedToken1).Mul(share)
	usdValue := token0Amount.Mul(decFromString(raw.Pool.Token0.DerivedUSD)).
		Add(token1Amount.Mul(decFromString(raw.Pool.Token1.DerivedUSD)))

	// Rough fee yield: one day of pool fees annualized over TVL.
	apr := decimal.Zero
	if tvl := decFromString(raw.Pool.TotalValueLockedUSD); tvl.IsPositive() {
		apr = decFromString(raw.Pool.FeesUSD).DivRound(tvl, 18).Mul(daysPerYear)
	}

	asset := fmt.Sprintf("LP-%s/%s-%s", raw.Pool.Token0.Symbol, raw.Pool.Token1.Symbol, raw.Pool.FeeTier)

	return portfolio.Position{
		Protocol:   "UniswapV3",
		Network:    networkEthereum,
		Asset:      asset,
		Amount:     usdValue, // LP share expressed in USD, no single native unit
		USDValue:   usdValue,
		DepositAPR: apr,
		RiskStatus: portfolio.RiskOK,
		Kind:       portfolio.KindDeposit,
	}, true
}
