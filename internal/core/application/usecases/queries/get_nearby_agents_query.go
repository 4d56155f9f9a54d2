package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrGetNearbyAgentsQueryIsNotConstructed = errors.New(
	"GetNearbyAgentsQuery must be created via NewGetNearbyAgentsQuery constructor",
)

// GetNearbyAgentsQuery asks for matchable agents near a pickup point, used to
// notify candidates when a new order becomes claimable. A non-positive
// maxResults falls back to the service default.
type GetNearbyAgentsQuery struct { //nolint:recvcheck //using for validation
	pickup     kernel.GeoPoint
	class      kernel.DeliveryClass
	maxResults int

	guard guard.ConstructorGuard
}

// NewGetNearbyAgentsQuery creates a validated nearby-agents query.
func NewGetNearbyAgentsQuery(
	pickup kernel.GeoPoint,
	class kernel.DeliveryClass,
	maxResults int,
) (GetNearbyAgentsQuery, error) {
	q := GetNearbyAgentsQuery{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(pickup.Validate(), class.Validate()); err != nil {
		return GetNearbyAgentsQuery{}, err
	}

	q.pickup = pickup
	q.class = class
	q.maxResults = maxResults
	return q, nil
}

// Validate ensures the query was created through the constructor.
func (q GetNearbyAgentsQuery) Validate() error {
	return q.guard.Validate(ErrGetNearbyAgentsQueryIsNotConstructed)
}

// Pickup returns the order's pickup point.
func (q GetNearbyAgentsQuery) Pickup() kernel.GeoPoint { return q.pickup }

// Class returns the delivery class to match.
func (q GetNearbyAgentsQuery) Class() kernel.DeliveryClass { return q.class }

// MaxResults returns the response cap, zero meaning the default.
func (q GetNearbyAgentsQuery) MaxResults() int { return q.maxResults }

// GetNearbyAgentsQueryResponse is one candidate agent for an order.
type GetNearbyAgentsQueryResponse struct {
	AgentID    kernel.UUID
	DistanceKm float64
	EtaMinutes int
}
