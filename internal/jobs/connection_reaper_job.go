package jobs

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/metrics"
	"dispatch/internal/realtime"

	"github.com/robfig/cron/v3"
)

// ConnectionReaperJob sweeps the realtime registry for idle connections,
// abandoned handshakes that never sent a message, and agents whose reconnect
// grace elapsed. Runs every 30 seconds.
type ConnectionReaperJob struct {
	registry       *realtime.Registry
	idleTimeout    time.Duration
	reconnectGrace time.Duration
	cron           *cron.Cron
	logger         *slog.Logger
}

// NewConnectionReaperJob creates the idle-connection sweep. Non-positive
// windows fall back to the realtime package defaults.
func NewConnectionReaperJob(
	registry *realtime.Registry,
	idleTimeout, reconnectGrace time.Duration,
	logger *slog.Logger,
) *ConnectionReaperJob {
	return &ConnectionReaperJob{
		registry:       registry,
		idleTimeout:    idleTimeout,
		reconnectGrace: reconnectGrace,
		cron:           cron.New(cron.WithSeconds()),
		logger:         logger.With("component", "connection_reaper_job"),
	}
}

// Start begins the sweep on a 30-second schedule.
func (j *ConnectionReaperJob) Start() error {
	_, err := j.cron.AddFunc("*/30 * * * * *", j.run)
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Connection reaper job started (running every 30 seconds)")
	return nil
}

// Stop stops the sweep.
func (j *ConnectionReaperJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Connection reaper job stopped")
}

func (j *ConnectionReaperJob) run() {
	evicted := j.registry.ReapIdle(j.idleTimeout, j.reconnectGrace)
	if evicted > 0 {
		metrics.IdleConnectionsReaped.Add(float64(evicted))
		j.logger.Info("Idle connections reaped", "count", evicted)
	}
	metrics.ConnectionsActive.Set(float64(j.registry.Sessions()))
}
