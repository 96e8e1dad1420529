package prices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	calls   int
	lastIDs []string
	resp    map[string]map[string]decimal.Decimal
	err     error
}

func (f *stubFetcher) FetchUSDPricesByIDs(_ context.Context, ids []string) (map[string]map[string]decimal.Decimal, error) {
	f.calls++
	f.lastIDs = ids
	return f.resp, f.err
}

func (f *stubFetcher) Ping(context.Context) (string, error) {
	return `{"gecko_says":"(V3) To the Moon!"}`, nil
}

func usdQuote(pairs map[string]string) map[string]map[string]decimal.Decimal {
	out := make(map[string]map[string]decimal.Decimal, len(pairs))
	for id, px := range pairs {
		out[id] = map[string]decimal.Decimal{"usd": decimal.RequireFromString(px)}
	}
	return out
}

func TestService_USDPrices_SanitizesInput(t *testing.T) {
	fetcher := &stubFetcher{resp: usdQuote(map[string]string{
		"ethereum": "2500",
		"dai":      "1.0001",
	})}
	svc := NewService(fetcher, DefaultRegistry(), time.Minute, zerolog.Nop())

	got := svc.USDPrices(context.Background(), []string{" eth ", "ETH", "dai", "", "DOGE"})

	require.Len(t, got, 2)
	assert.True(t, got["ETH"].Equal(decimal.RequireFromString("2500")))
	assert.True(t, got["DAI"].Equal(decimal.RequireFromString("1.0001")))
	assert.Equal(t, 1, fetcher.calls)
	assert.ElementsMatch(t, []string{"ethereum", "dai"}, fetcher.lastIDs)
}

func TestService_USDPrices_CacheHitSkipsFetch(t *testing.T) {
	fetcher := &stubFetcher{resp: usdQuote(map[string]string{"ethereum": "2500"})}
	svc := NewService(fetcher, DefaultRegistry(), time.Minute, zerolog.Nop())

	first := svc.USDPrices(context.Background(), []string{"ETH"})
	second := svc.USDPrices(context.Background(), []string{"ETH"})

	assert.Equal(t, 1, fetcher.calls, "second lookup within TTL must be served from cache")
	assert.True(t, first["ETH"].Equal(second["ETH"]))
}

func TestService_USDPrices_PartialCacheFetchesOnlyMisses(t *testing.T) {
	fetcher := &stubFetcher{resp: usdQuote(map[string]string{"ethereum": "2500"})}
	svc := NewService(fetcher, DefaultRegistry(), time.Minute, zerolog.Nop())

	svc.USDPrices(context.Background(), []string{"ETH"})

	fetcher.resp = usdQuote(map[string]string{"usd-coin": "0.9999"})
	got := svc.USDPrices(context.Background(), []string{"ETH", "USDC"})

	assert.Equal(t, 2, fetcher.calls)
	assert.Equal(t, []string{"usd-coin"}, fetcher.lastIDs)
	require.Len(t, got, 2)
	assert.True(t, got["ETH"].Equal(decimal.RequireFromString("2500")))
	assert.True(t, got["USDC"].Equal(decimal.RequireFromString("0.9999")))
}

func TestService_USDPrices_FetchFailureDegradesToCacheHits(t *testing.T) {
	fetcher := &stubFetcher{resp: usdQuote(map[string]string{"ethereum": "2500"})}
	svc := NewService(fetcher, DefaultRegistry(), time.Minute, zerolog.Nop())

	svc.USDPrices(context.Background(), []string{"ETH"})

	fetcher.err = errors.New("rate limited")
	got := svc.USDPrices(context.Background(), []string{"ETH", "DAI"})

	require.Len(t, got, 1)
	assert.True(t, got["ETH"].Equal(decimal.RequireFromString("2500")))
	_, hasDAI := got["DAI"]
	assert.False(t, hasDAI)
}

func TestService_USDPrices_NoSupportedSymbols(t *testing.T) {
	fetcher := &stubFetcher{}
	svc := NewService(fetcher, DefaultRegistry(), time.Minute, zerolog.Nop())

	got := svc.USDPrices(context.Background(), []string{"DOGE", "SHIB"})

	assert.Empty(t, got)
	assert.Equal(t, 0, fetcher.calls, "nothing supported means nothing to fetch")
}

func TestService_USDPrices_MissingQuoteOmittedFromResult(t *testing.T) {
	fetcher := &stubFetcher{resp: usdQuote(map[string]string{"ethereum": "2500"})}
	svc := NewService(fetcher, DefaultRegistry(), time.Minute, zerolog.Nop())

	got := svc.USDPrices(context.Background(), []string{"ETH", "DAI"})

	require.Len(t, got, 1)
	assert.True(t, got["ETH"].Equal(decimal.RequireFromString("2500")))
	assert.Equal(t, 1, svc.CacheLen(), "only returned quotes are cached")
}
