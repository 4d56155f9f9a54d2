// Package queries contains the read-side operations of the coordination core.
// Queries never mutate aggregates; the nearby queries run the matching rules
// over snapshots and the verification query checks a code without consuming it.
package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrGetNearbyOrdersQueryIsNotConstructed = errors.New(
	"GetNearbyOrdersQuery must be created via NewGetNearbyOrdersQuery constructor",
)

// GetNearbyOrdersQuery asks for unassigned orders an agent could claim from
// its current position. The agent's class bounds the search radius.
type GetNearbyOrdersQuery struct { //nolint:recvcheck //using for validation
	agentID  kernel.UUID
	position kernel.GeoPoint

	guard guard.ConstructorGuard
}

// NewGetNearbyOrdersQuery creates a validated nearby-orders query.
func NewGetNearbyOrdersQuery(agentID kernel.UUID, position kernel.GeoPoint) (GetNearbyOrdersQuery, error) {
	q := GetNearbyOrdersQuery{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(agentID.Validate(), position.Validate()); err != nil {
		return GetNearbyOrdersQuery{}, err
	}

	q.agentID = agentID
	q.position = position
	return q, nil
}

// Validate ensures the query was created through the constructor.
func (q GetNearbyOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetNearbyOrdersQueryIsNotConstructed)
}

// AgentID returns the asking agent's identifier.
func (q GetNearbyOrdersQuery) AgentID() kernel.UUID { return q.agentID }

// Position returns where the agent currently is.
func (q GetNearbyOrdersQuery) Position() kernel.GeoPoint { return q.position }

// GetNearbyOrdersQueryResponse is one claimable order offered to an agent.
// EtaMinutes is the straight-line travel estimate at the default ground speed.
type GetNearbyOrdersQueryResponse struct {
	OrderID    kernel.UUID
	Pickup     kernel.GeoPoint
	Dropoff    kernel.GeoPoint
	Class      kernel.DeliveryClass
	DistanceKm float64
	EtaMinutes int
}
