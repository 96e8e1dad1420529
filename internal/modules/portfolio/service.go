package portfolio

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Provider supplies the normalized positions a wallet holds on one protocol.
// Implementations report upstream failures as errors; the aggregator treats
// a failed provider as contributing no positions.
type Provider interface {
	Name() string
	ListPositions(ctx context.Context, address string) ([]Position, error)
}

// Service aggregates positions from all registered providers into a single
// USD-denominated portfolio view.
type Service struct {
	providers    []Provider
	fetchTimeout time.Duration
	log          zerolog.Logger
}

// NewService creates a portfolio aggregation service. Provider registration
// order determines position order in the aggregated view.
func NewService(providers []Provider, fetchTimeout time.Duration, log zerolog.Logger) *Service {
	return &Service{
		providers:    providers,
		fetchTimeout: fetchTimeout,
		log:          log.With().Str("service", "portfolio").Logger(),
	}
}

// Aggregate fans out to every provider concurrently, joins the results in
// registration order, and folds them into portfolio totals. A provider
// failure degrades to an empty contribution; Aggregate itself never fails.
func (s *Service) Aggregate(ctx context.Context, address string) Portfolio {
	results := make([][]Position, len(s.providers))

	g, groupCtx := errgroup.WithContext(ctx)
	for i, provider := range s.providers {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(groupCtx, s.fetchTimeout)
			defer cancel()

			positions, err := provider.ListPositions(callCtx, address)
			if err != nil {
				s.log.Warn().
					Err(err).
					Str("provider", provider.Name()).
					Str("address", address).
					Msg("Provider fetch failed, contributing no positions")
				return nil
			}
			results[i] = positions
			return nil
		})
	}
	// Closures never return an error; Wait only joins the fan-out.
	_ = g.Wait()

	positions := lo.Flatten(results)

	totalUSD := decimal.Zero
	totalBorrowUSD := decimal.Zero
	for _, pos := range positions {
		switch pos.Kind {
		case KindDeposit:
			totalUSD = totalUSD.Add(pos.USDValue)
		case KindBorrow:
			totalBorrowUSD = totalBorrowUSD.Add(pos.BorrowUSD)
		}
	}

	var healthFactor *decimal.Decimal
	if totalBorrowUSD.IsPositive() {
		hf := totalUSD.Div(totalBorrowUSD).Round(2)
		healthFactor = &hf
	}

	return Portfolio{
		Address:        address,
		TotalUSD:       totalUSD,
		TotalBorrowUSD: totalBorrowUSD,
		NetWorthUSD:    totalUSD.Sub(totalBorrowUSD),
		HealthFactor:   healthFactor,
		Positions:      positions,
		AsOf:           time.Now(),
	}
}
