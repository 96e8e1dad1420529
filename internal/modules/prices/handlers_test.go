package prices

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleGetPrices_MissingSymbolsParam(t *testing.T) {
	svc := NewService(&stubFetcher{}, DefaultRegistry(), time.Minute, zerolog.Nop())
	h := NewHandler(svc, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/prices", nil)
	rec := httptest.NewRecorder()
	h.HandleGetPrices(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "symbols")
}

func TestHandleGetPrices_DropsUnsupportedSymbols(t *testing.T) {
	fetcher := &stubFetcher{resp: usdQuote(map[string]string{
		"ethereum": "2500",
		"usd-coin": "0.9999",
	})}
	svc := NewService(fetcher, DefaultRegistry(), time.Minute, zerolog.Nop())
	h := NewHandler(svc, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/prices?symbols=eth,usdc,doge", nil)
	rec := httptest.NewRecorder()
	h.HandleGetPrices(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.InDelta(t, 2500, body["ETH"], 1e-9)
	assert.InDelta(t, 0.9999, body["USDC"], 1e-9)
	_, hasDoge := body["DOGE"]
	assert.False(t, hasDoge)
}

func TestHandlePing_ForwardsProviderBody(t *testing.T) {
	svc := NewService(&stubFetcher{}, DefaultRegistry(), time.Minute, zerolog.Nop())
	h := NewHandler(svc, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/prices/ping", nil)
	rec := httptest.NewRecorder()
	h.HandlePing(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"gecko_says":"(V3) To the Moon!"}`, rec.Body.String())
}

func TestRegistry_DefaultSymbols(t *testing.T) {
	reg := DefaultRegistry()

	assert.Equal(t, []string{"ETH", "DAI", "USDC"}, reg.Symbols())

	id, ok := reg.ID("ETH")
	require.True(t, ok)
	assert.Equal(t, "ethereum", id)

	_, ok = reg.ID("DOGE")
	assert.False(t, ok)
}
