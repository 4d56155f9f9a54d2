// Package jobs provides scheduled background tasks for the coordination core.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to handle periodic maintenance the realtime path must not block on.
//
// # Available Jobs
//
// 1. ConnectionReaperJob - Runs every 30 seconds to close idle realtime
// connections, drop handshakes that never sent a message, and report agents
// offline once their reconnect grace elapsed
// 2. LocationSyncJob - Runs every 15 seconds to retry position writes that
// failed against the durable store
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager := jobs.NewJobManager(registry, locationStore, idle, grace, logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	defer jobManager.StopAll()
//
// # Error Handling
//
// Both jobs are best-effort: a failed sweep or flush is logged and retried on
// the next tick. Failed job starts will stop any already running jobs.
package jobs
