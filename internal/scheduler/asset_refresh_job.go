package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/holdwatch/holdwatch/internal/modules/assets"
)

// AssetRefreshJob refreshes per-gram metal prices for all commodity rows.
// Metal spot rates move slowly, so this runs hourly rather than on the
// stock sweep cadence.
type AssetRefreshJob struct {
	service *assets.Service
	log     zerolog.Logger
}

// NewAssetRefreshJob creates a new asset refresh job
func NewAssetRefreshJob(service *assets.Service, log zerolog.Logger) *AssetRefreshJob {
	return &AssetRefreshJob{
		service: service,
		log:     log.With().Str("job", "asset_refresh").Logger(),
	}
}

// Name returns the job name
func (j *AssetRefreshJob) Name() string {
	return "asset_refresh"
}

// Run executes the asset price refresh
func (j *AssetRefreshJob) Run(ctx context.Context) error {
	result, err := j.service.RefreshAllPrices(ctx)
	if err != nil {
		return fmt.Errorf("asset refresh failed: %w", err)
	}

	if result.Failed > 0 {
		j.log.Warn().
			Int("updated", result.Updated).
			Int("failed", result.Failed).
			Msg("Asset refresh finished with failures")
	}

	return nil
}
