package providers

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dya-app/dya-go/internal/modules/portfolio"
)

// cTokenABI covers the four read paths the provider needs. All four return a
// single uint256.
const cTokenABI = `[
	{"constant":false,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOfUnderlying","outputs":[{"name":"","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"borrowBalanceStored","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"supplyRatePerBlock","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"borrowRatePerBlock","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// Compound v2 assumes ~15s blocks; rates per block annualize against this.
var blocksPerYear = decimal.NewFromInt(2102400)

var cTokenParsedABI = mustParseABI(cTokenABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("providers: parse cToken ABI: %v", err))
	}
	return parsed
}

// ContractCaller is the slice of the Ethereum RPC surface the provider
// needs; *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// PriceSource resolves asset symbols to USD prices; missing symbols mean
// "price unknown right now".
type PriceSource interface {
	USDPrices(ctx context.Context, symbols []string) map[string]decimal.Decimal
}

// CompoundToken describes one cToken market the provider scans.
type CompoundToken struct {
	Symbol             string // underlying symbol, e.g. "DAI"
	CToken             common.Address
	UnderlyingDecimals int32
}

// DefaultCompoundTokens returns the scanned markets: cDAI and cUSDC.
func DefaultCompoundTokens() []CompoundToken {
	return []CompoundToken{
		{Symbol: "DAI", CToken: common.HexToAddress("0x5d3a536E4D6DbD6114cc1Ead35777bAB948E3643"), UnderlyingDecimals: 18},
		{Symbol: "USDC", CToken: common.HexToAddress("0x39AA39c021dfbaE8faC545936693aC917d5E7563"), UnderlyingDecimals: 6},
	}
}

// CompoundProvider reads a wallet's Compound v2 balances directly from the
// chain via eth_call.
type CompoundProvider struct {
	caller ContractCaller
	tokens []CompoundToken
	prices PriceSource
	log    zerolog.Logger
}

// NewCompoundProvider creates a Compound v2 position provider.
func NewCompoundProvider(caller ContractCaller, tokens []CompoundToken, prices PriceSource, log zerolog.Logger) *CompoundProvider {
	return &CompoundProvider{
		caller: caller,
		tokens: tokens,
		prices: prices,
		log:    log.With().Str("provider", "compound").Logger(),
	}
}

// Name implements portfolio.Provider
func (p *CompoundProvider) Name() string {
	return "Compound"
}

// ListPositions implements portfolio.Provider
func (p *CompoundProvider) ListPositions(ctx context.Context, address string) ([]portfolio.Position, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("compound: invalid address %q", address)
	}
	owner := common.HexToAddress(address)

	symbols := make([]string, 0, len(p.tokens))
	for _, t := range p.tokens {
		symbols = append(symbols, t.Symbol)
	}
	usdPrices := p.prices.USDPrices(ctx, symbols)

	var positions []portfolio.Position
	for _, token := range p.tokens {
		tokenPositions, err := p.scanMarket(ctx, token, owner, usdPrices[token.Symbol])
		if err != nil {
			return nil, err
		}
		positions = append(positions, tokenPositions...)
	}
	return positions, nil
}

func (p *CompoundProvider) scanMarket(ctx context.Context, token CompoundToken, owner common.Address, priceUSD decimal.Decimal) ([]portfolio.Position, error) {
	supplyRaw, err := p.callUint256(ctx, token.CToken, "balanceOfUnderlying", owner)
	if err != nil {
		return nil, fmt.Errorf("compound: %s balanceOfUnderlying: %w", token.Symbol, err)
	}
	borrowRaw, err := p.callUint256(ctx, token.CToken, "borrowBalanceStored", owner)
	if err != nil {
		return nil, fmt.Errorf("compound: %s borrowBalanceStored: %w", token.Symbol, err)
	}

	supplied := decimal.NewFromBigInt(supplyRaw, -token.UnderlyingDecimals)
	borrowed := decimal.NewFromBigInt(borrowRaw, -token.UnderlyingDecimals)
	if !supplied.IsPositive() && !borrowed.IsPositive() {
		return nil, nil
	}

	var positions []portfolio.Position

	if supplied.IsPositive() {
		rate, err := p.callUint256(ctx, token.CToken, "supplyRatePerBlock")
		if err != nil {
			return nil, fmt.Errorf("compound: %s supplyRatePerBlock: %w", token.Symbol, err)
		}
		positions = append(positions, portfolio.Position{
			Protocol:   "Compound",
			Network:    networkEthereum,
			Asset:      token.Symbol,
			Amount:     supplied,
			USDValue:   supplied.Mul(priceUSD),
			DepositAPR: perBlockToAPR(rate),
			RiskStatus: portfolio.RiskOK,
			Kind:       portfolio.KindDeposit,
		})
	}

	if borrowed.IsPositive() {
		rate, err := p.callUint256(ctx, token.CToken, "borrowRatePerBlock")
		if err != nil {
			return nil, fmt.Errorf("compound: %s borrowRatePerBlock: %w", token.Symbol, err)
		}
		positions = append(positions, portfolio.Position{
			Protocol:     "Compound",
			Network:      networkEthereum,
			Asset:        token.Symbol,
			BorrowAmount: borrowed,
			BorrowAPR:    perBlockToAPR(rate),
			BorrowUSD:    borrowed.Mul(priceUSD),
			RiskStatus:   portfolio.RiskOK,
			Kind:         portfolio.KindBorrow,
		})
	}

	return positions, nil
}

func (p *CompoundProvider) callUint256(ctx context.Context, to common.Address, method string, args ...interface{}) (*big.Int, error) {
	data, err := cTokenParsedABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	raw, err := p.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	outputs, err := cTokenParsedABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	value, ok := outputs[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unpack %s: unexpected output type %T", method, outputs[0])
	}
	return value, nil
}

// perBlockToAPR converts a wad-scaled per-block rate to a yearly decimal
// fraction.
func perBlockToAPR(ratePerBlock *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(ratePerBlock, -18).Mul(blocksPerYear)
}
