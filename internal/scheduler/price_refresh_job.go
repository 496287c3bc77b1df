package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/holdwatch/holdwatch/internal/modules/holdings"
)

// PriceRefreshJob sweeps every tracked stock row and refreshes its market
// price. Scheduled every few minutes; pacing between upstream calls is
// handled by the quote client.
type PriceRefreshJob struct {
	service *holdings.Service
	log     zerolog.Logger
}

// NewPriceRefreshJob creates a new price refresh job
func NewPriceRefreshJob(service *holdings.Service, log zerolog.Logger) *PriceRefreshJob {
	return &PriceRefreshJob{
		service: service,
		log:     log.With().Str("job", "price_refresh").Logger(),
	}
}

// Name returns the job name
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Run executes the price refresh sweep
func (j *PriceRefreshJob) Run(ctx context.Context) error {
	result, err := j.service.RefreshAllPrices(ctx)
	if err != nil {
		return fmt.Errorf("price refresh sweep failed: %w", err)
	}

	if result.Failed > 0 {
		j.log.Warn().
			Int("updated", result.Updated).
			Int("failed", result.Failed).
			Msg("Price refresh finished with failures")
	}

	return nil
}
