package order

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// HistoryEntry is one committed step in an order's tracking history. Entries
// are appended in the order transitions commit, so the history of a single
// order is monotonic. Entries with a location double as the order's GPS trail.
type HistoryEntry struct {
	// OrderID is the order this entry belongs to.
	OrderID kernel.UUID
	// Status is the status the order entered.
	Status Status
	// Actor is the identity that triggered the transition.
	Actor kernel.Actor
	// Notes is optional free text supplied by the actor.
	Notes string
	// Location is the actor's position at the time, when reported.
	Location *kernel.GeoPoint
	// RecordedAt is when the transition committed.
	RecordedAt time.Time
}
