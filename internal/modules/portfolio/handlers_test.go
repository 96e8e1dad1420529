package portfolio

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPortfolioRouter(providers []Provider) *chi.Mux {
	svc := NewService(providers, time.Second, zerolog.Nop())
	h := NewHandler(svc, zerolog.Nop())

	r := chi.NewRouter()
	r.Get("/portfolio/{address}", h.HandleGetPortfolio)
	return r
}

func TestHandleGetPortfolio_InvalidAddress(t *testing.T) {
	router := newPortfolioRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/portfolio/not-an-address", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid wallet address", body["error"])
}

func TestHandleGetPortfolio_ReturnsAggregatedView(t *testing.T) {
	provider := &stubProvider{name: "Aave", positions: []Position{
		{
			Protocol:   "Aave",
			Network:    "ethereum",
			Asset:      "DAI",
			Amount:     decimal.RequireFromString("100"),
			USDValue:   decimal.RequireFromString("100"),
			DepositAPR: decimal.RequireFromString("0.05"),
			RiskStatus: RiskOK,
			Kind:       KindDeposit,
		},
		{
			Protocol:     "Aave",
			Network:      "ethereum",
			Asset:        "USDC",
			BorrowAmount: decimal.RequireFromString("20"),
			BorrowUSD:    decimal.RequireFromString("20"),
			RiskStatus:   RiskOK,
			Kind:         KindBorrow,
		},
	}}
	router := newPortfolioRouter([]Provider{provider})

	req := httptest.NewRequest(http.MethodGet, "/portfolio/0x1111111111111111111111111111111111111111", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var dto PortfolioDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "0x1111111111111111111111111111111111111111", dto.Address)
	assert.InDelta(t, 100, dto.TotalUSD, 1e-9)
	assert.InDelta(t, 80, dto.NetWorthUSD, 1e-9)
	require.NotNil(t, dto.HealthFactor)
	assert.InDelta(t, 5.0, *dto.HealthFactor, 1e-9)
	assert.Len(t, dto.Positions, 2)
}

func TestHandleGetPortfolio_NoDebtSerializesNullHealthFactor(t *testing.T) {
	provider := &stubProvider{name: "Aave", positions: []Position{{
		Protocol: "Aave",
		Asset:    "ETH",
		USDValue: decimal.RequireFromString("250"),
		Kind:     KindDeposit,
	}}}
	router := newPortfolioRouter([]Provider{provider})

	req := httptest.NewRequest(http.MethodGet, "/portfolio/0x1111111111111111111111111111111111111111", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "null", string(raw["healthFactor"]))
}
