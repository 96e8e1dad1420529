package providers

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dya-app/dya-go/internal/modules/portfolio"
)

// stubCaller answers eth_call by cToken address and method name.
type stubCaller struct {
	returns map[common.Address]map[string]*big.Int
}

func (c *stubCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	for name, method := range cTokenParsedABI.Methods {
		if !bytes.HasPrefix(msg.Data, method.ID) {
			continue
		}
		value, ok := c.returns[*msg.To][name]
		if !ok {
			return nil, fmt.Errorf("unexpected call %s on %s", name, msg.To)
		}
		return method.Outputs.Pack(value)
	}
	return nil, fmt.Errorf("unknown selector %x", msg.Data[:4])
}

type stubPrices struct {
	prices map[string]decimal.Decimal
}

func (s *stubPrices) USDPrices(_ context.Context, _ []string) map[string]decimal.Decimal {
	return s.prices
}

func bigFromString(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok)
	return v
}

func TestCompoundProvider_MapsMarkets(t *testing.T) {
	tokens := DefaultCompoundTokens()
	cDAI, cUSDC := tokens[0].CToken, tokens[1].CToken

	caller := &stubCaller{returns: map[common.Address]map[string]*big.Int{
		cDAI: {
			// 100 DAI supplied, rate 1e10/block -> 0.021024/yr.
			"balanceOfUnderlying": bigFromString(t, "100000000000000000000"),
			"borrowBalanceStored": big.NewInt(0),
			"supplyRatePerBlock":  big.NewInt(10_000_000_000),
		},
		cUSDC: {
			// 50 USDC borrowed, rate 2e10/block -> 0.042048/yr.
			"balanceOfUnderlying": big.NewInt(0),
			"borrowBalanceStored": big.NewInt(50_000_000),
			"borrowRatePerBlock":  big.NewInt(20_000_000_000),
		},
	}}
	prices := &stubPrices{prices: map[string]decimal.Decimal{
		"DAI":  dec("1"),
		"USDC": dec("0.9999"),
	}}

	p := NewCompoundProvider(caller, tokens, prices, zerolog.Nop())

	positions, err := p.ListPositions(context.Background(), "0xAbCd000000000000000000000000000000000000")
	require.NoError(t, err)
	require.Len(t, positions, 2)

	deposit := positions[0]
	assert.Equal(t, "Compound", deposit.Protocol)
	assert.Equal(t, "DAI", deposit.Asset)
	assert.Equal(t, portfolio.KindDeposit, deposit.Kind)
	assert.True(t, deposit.Amount.Equal(dec("100")), "amount = %s", deposit.Amount)
	assert.True(t, deposit.USDValue.Equal(dec("100")))
	assert.True(t, deposit.DepositAPR.Equal(dec("0.021024")), "apr = %s", deposit.DepositAPR)

	borrow := positions[1]
	assert.Equal(t, "USDC", borrow.Asset)
	assert.Equal(t, portfolio.KindBorrow, borrow.Kind)
	assert.True(t, borrow.BorrowAmount.Equal(dec("50")))
	assert.True(t, borrow.BorrowUSD.Equal(dec("49.995")))
	assert.True(t, borrow.BorrowAPR.Equal(dec("0.042048")), "apr = %s", borrow.BorrowAPR)
}

func TestCompoundProvider_EmptyMarketsYieldNothing(t *testing.T) {
	tokens := DefaultCompoundTokens()
	returns := make(map[common.Address]map[string]*big.Int, len(tokens))
	for _, tok := range tokens {
		returns[tok.CToken] = map[string]*big.Int{
			"balanceOfUnderlying": big.NewInt(0),
			"borrowBalanceStored": big.NewInt(0),
		}
	}

	p := NewCompoundProvider(&stubCaller{returns: returns}, tokens, &stubPrices{}, zerolog.Nop())

	positions, err := p.ListPositions(context.Background(), "0xAbCd000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestCompoundProvider_RejectsInvalidAddress(t *testing.T) {
	p := NewCompoundProvider(&stubCaller{}, DefaultCompoundTokens(), &stubPrices{}, zerolog.Nop())

	_, err := p.ListPositions(context.Background(), "not-an-address")
	require.Error(t, err)
}

func TestPerBlockToAPR(t *testing.T) {
	// 1e10 per block over 2102400 blocks/yr at wad scale.
	apr := perBlockToAPR(big.NewInt(10_000_000_000))
	assert.True(t, apr.Equal(dec("0.021024")), "apr = %s", apr)
}
