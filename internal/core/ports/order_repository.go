// Package ports defines the contracts between the coordination core and
// infrastructure: repositories for the external Order Store, the agent
// persistence gateway, and the two-tier agent location store. Implementations
// live under internal/adapters.
package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderRepository is the narrow write/read interface onto the external Order
// Store. This core is the sole writer of order status.
type OrderRepository interface {
	// Add persists a new order aggregate. Used by tests and backfill tooling;
	// production orders arrive from the upstream placement flow.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists the mutable fields of an existing order: status,
	// assignment, codes, and confirmation stamps.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order by ID, or errs.ObjectNotFoundError.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetUnassignedNear returns unassigned orders of the class whose pickup
	// point lies within approximately radiusKm of center, newest first. The
	// store may over-approximate with a bounding box; the Matcher applies the
	// exact haversine cutoff.
	GetUnassignedNear(ctx context.Context, center kernel.GeoPoint, class kernel.DeliveryClass, radiusKm float64, limit int) ([]*order.Order, error)

	// Assign atomically assigns the order to the agent with a conditional
	// write (agent must still be unset and status PaymentConfirmed). Returns
	// order.ErrAlreadyAssigned when the condition no longer holds, so exactly
	// one of several concurrent attempts succeeds.
	Assign(ctx context.Context, orderID, agentID kernel.UUID) error

	// AppendHistory persists one committed tracking-history entry. Entries
	// for a single order are appended in commit order.
	AppendHistory(ctx context.Context, entry order.HistoryEntry) error
}
