package prices

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/dya-app/dya-go/internal/cache"
)

// QuoteFetcher fetches USD quotes for a batch of provider-specific coin IDs.
// The returned map is keyed by coin ID, then quote currency ("usd").
type QuoteFetcher interface {
	FetchUSDPricesByIDs(ctx context.Context, ids []string) (map[string]map[string]decimal.Decimal, error)
	Ping(ctx context.Context) (string, error)
}

// Service resolves asset symbols to USD prices through a TTL cache, batching
// cache misses into a single upstream fetch.
type Service struct {
	fetcher  QuoteFetcher
	registry Registry
	cache    *cache.TTL[string, decimal.Decimal]
	log      zerolog.Logger
}

// NewService creates a price lookup service with the given cache TTL.
func NewService(fetcher QuoteFetcher, registry Registry, ttl time.Duration, log zerolog.Logger) *Service {
	return &Service{
		fetcher:  fetcher,
		registry: registry,
		cache:    cache.NewTTL[string, decimal.Decimal](ttl),
		log:      log.With().Str("service", "prices").Logger(),
	}
}

// USDPrices resolves the requested symbols to USD prices. Unsupported
// symbols are dropped, duplicates collapse, and an upstream failure degrades
// to the cache-hit subset: a missing symbol in the result means "price
// unknown right now", never an error.
func (s *Service) USDPrices(ctx context.Context, symbols []string) map[string]decimal.Decimal {
	requested := lo.Uniq(lo.Filter(
		lo.Map(symbols, func(s string, _ int) string {
			return strings.ToUpper(strings.TrimSpace(s))
		}),
		func(sym string, _ int) bool { return sym != "" && s.registry.Supported(sym) },
	))

	out := make(map[string]decimal.Decimal, len(requested))
	var misses []string
	for _, sym := range requested {
		if px, ok := s.cache.Get(sym); ok {
			out[sym] = px
		} else {
			misses = append(misses, sym)
		}
	}

	if len(misses) == 0 {
		return out
	}

	ids := make([]string, 0, len(misses))
	for _, sym := range misses {
		if id, ok := s.registry.ID(sym); ok {
			ids = append(ids, id)
		}
	}

	resp, err := s.fetcher.FetchUSDPricesByIDs(ctx, ids)
	if err != nil {
		s.log.Warn().
			Err(err).
			Strs("symbols", misses).
			Msg("Quote fetch failed, serving cache hits only")
		return out
	}

	for _, sym := range misses {
		id, _ := s.registry.ID(sym)
		quote, ok := resp[id]
		if !ok {
			continue
		}
		px, ok := quote["usd"]
		if !ok {
			continue
		}
		s.cache.Put(sym, px)
		out[sym] = px
	}
	return out
}

// Ping forwards an availability probe to the quote provider.
func (s *Service) Ping(ctx context.Context) (string, error) {
	return s.fetcher.Ping(ctx)
}

// Symbols lists every symbol the service can resolve.
func (s *Service) Symbols() []string {
	return s.registry.Symbols()
}

// CacheLen reports the number of cached quotes, for the status endpoint.
func (s *Service) CacheLen() int {
	return s.cache.Len()
}
