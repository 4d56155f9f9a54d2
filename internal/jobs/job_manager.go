package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"dispatch/internal/locations"
	"dispatch/internal/realtime"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	connectionReaperJob *ConnectionReaperJob
	locationSyncJob     *LocationSyncJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(
	registry *realtime.Registry,
	store *locations.Store,
	idleTimeout, reconnectGrace time.Duration,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		connectionReaperJob: NewConnectionReaperJob(registry, idleTimeout, reconnectGrace, logger),
		locationSyncJob:     NewLocationSyncJob(store, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.connectionReaperJob.Start(); err != nil {
		return fmt.Errorf("failed to start connection reaper job: %w", err)
	}

	if err := jm.locationSyncJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.connectionReaperJob.Stop()
		return fmt.Errorf("failed to start location sync job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.connectionReaperJob.Stop()
	jm.locationSyncJob.Stop()
}
