package jobs

import (
	"context"
	"log/slog"

	"dispatch/internal/locations"

	"github.com/robfig/cron/v3"
)

// LocationSyncJob retries position writes that failed against the durable
// tier, so an outage there never loses more than the sync interval. Runs
// every 15 seconds.
type LocationSyncJob struct {
	store  *locations.Store
	cron   *cron.Cron
	logger *slog.Logger
}

// NewLocationSyncJob creates the dirty-position flush job.
func NewLocationSyncJob(store *locations.Store, logger *slog.Logger) *LocationSyncJob {
	return &LocationSyncJob{
		store:  store,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger.With("component", "location_sync_job"),
	}
}

// Start begins the flush on a 15-second schedule.
func (j *LocationSyncJob) Start() error {
	_, err := j.cron.AddFunc("*/15 * * * * *", func() {
		ctx := context.Background()
		flushed := j.store.FlushDirty(ctx)
		if flushed > 0 {
			j.logger.InfoContext(ctx, "Flushed positions to durable store", "count", flushed)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Location sync job started (running every 15 seconds)")
	return nil
}

// Stop stops the flush job.
func (j *LocationSyncJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Location sync job stopped")
}
