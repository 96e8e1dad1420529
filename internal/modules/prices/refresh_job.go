package prices

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RefreshJob warms the price cache ahead of demand by resolving the full
// supported symbol set on a schedule. It shares only the cache with
// request-serving code and its failures never surface anywhere.
type RefreshJob struct {
	service *Service
	timeout time.Duration
	log     zerolog.Logger
}

// NewRefreshJob creates a cache warm job with a per-run fetch budget.
func NewRefreshJob(service *Service, timeout time.Duration, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		service: service,
		timeout: timeout,
		log:     log.With().Str("job", "price-refresh").Logger(),
	}
}

// Name implements scheduler.Job
func (j *RefreshJob) Name() string {
	return "price-refresh"
}

// Run implements scheduler.Job. A degraded refresh (fewer symbols than
// requested) is logged and otherwise ignored.
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	symbols := j.service.Symbols()
	prices := j.service.USDPrices(ctx, symbols)
	if len(prices) < len(symbols) {
		j.log.Warn().
			Int("requested", len(symbols)).
			Int("refreshed", len(prices)).
			Msg("Price refresh was partial")
	}
	return nil
}
