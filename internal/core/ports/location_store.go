package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/kernel"
)

// LocationStore is the hot-path view of agent positions consumed by the
// Matching Engine and fed by location events.
type LocationStore interface {
	// Upsert applies a position report under last-write-wins by capture
	// timestamp. It reports whether the position was applied; a report older
	// than the stored one is discarded and returns false.
	Upsert(ctx context.Context, pos agent.Position) (bool, error)

	// Get returns the latest known position of the agent, or
	// errs.ObjectNotFoundError when the agent never reported.
	Get(ctx context.Context, agentID kernel.UUID) (agent.Position, error)

	// Snapshot returns a copy of all positions of the class no older than
	// maxAge. Callers may filter and sort the copy freely; the live table is
	// never exposed.
	Snapshot(ctx context.Context, class kernel.DeliveryClass, maxAge time.Duration) ([]agent.Position, error)

	// Forget drops the agent's cached position, used when the agent's last
	// live connection goes away. The durable tier keeps its copy.
	Forget(ctx context.Context, agentID kernel.UUID)
}

// DurableLocationStore is the recovery tier behind the in-memory cache.
// Writes are best-effort: a failure degrades tracking to memory-only and is
// retried by the sync job, never surfaced to the reporting agent.
type DurableLocationStore interface {
	// Save persists the latest position of an agent.
	Save(ctx context.Context, pos agent.Position) error

	// LoadAll returns every persisted position, used to re-populate the
	// cache on startup.
	LoadAll(ctx context.Context) ([]agent.Position, error)
}
