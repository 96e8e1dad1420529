package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dya-app/dya-go/internal/modules/alerts"
	"github.com/dya-app/dya-go/internal/modules/prices"
	"github.com/dya-app/dya-go/internal/scheduler"
)

type noopFetcher struct{}

func (noopFetcher) FetchUSDPricesByIDs(context.Context, []string) (map[string]map[string]decimal.Decimal, error) {
	return map[string]map[string]decimal.Decimal{}, nil
}

func (noopFetcher) Ping(context.Context) (string, error) { return "{}", nil }

func newSystemHandlers() *SystemHandlers {
	priceService := prices.NewService(noopFetcher{}, prices.DefaultRegistry(), time.Minute, zerolog.Nop())
	return NewSystemHandlers(zerolog.Nop(), scheduler.New(zerolog.Nop()), priceService, alerts.NewAPRStore())
}

func TestHandleHealth(t *testing.T) {
	h := newSystemHandlers()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HandleHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleStatus(t *testing.T) {
	h := newSystemHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/system/status", nil)
	rec := httptest.NewRecorder()
	h.HandleStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))

	assert.Contains(t, status, "uptime_seconds")
	assert.Contains(t, status, "goroutines")
	assert.EqualValues(t, 0, status["scheduled_jobs"])
	assert.EqualValues(t, 0, status["price_cache_size"])
	assert.EqualValues(t, 0, status["apr_store_size"])
}
