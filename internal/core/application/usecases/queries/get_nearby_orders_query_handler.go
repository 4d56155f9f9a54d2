package queries

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// candidateOverfetch asks the store for more rows than the response cap so
// the exact haversine cutoff still has enough candidates after the store's
// bounding-box over-approximation.
const candidateOverfetch = 4

// retryBackoff is the pause before the single retry of a failed store read.
const retryBackoff = 50 * time.Millisecond

// GetNearbyOrdersQueryHandler suggests claimable orders to an agent. The
// store query over-approximates with a bounding box; the Matcher applies the
// exact distance cutoff, ordering, and cap. A transient store failure is
// retried once before surfacing.
type GetNearbyOrdersQueryHandler struct {
	orderRepo ports.OrderRepository
	agentRepo ports.AgentRepository
	matcher   services.Matcher
}

// NewGetNearbyOrdersQueryHandler creates a handler for nearby-order queries.
func NewGetNearbyOrdersQueryHandler(
	orderRepo ports.OrderRepository,
	agentRepo ports.AgentRepository,
) GetNearbyOrdersQueryHandler {
	return GetNearbyOrdersQueryHandler{
		orderRepo: orderRepo,
		agentRepo: agentRepo,
		matcher:   services.NewMatcher(),
	}
}

// Handle returns up to services.MaxNearbyOrders claimable orders, newest
// first, each with distance and a straight-line ETA.
func (h GetNearbyOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetNearbyOrdersQuery,
) ([]GetNearbyOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	asker, err := h.agentRepo.Get(ctx, query.AgentID())
	if err != nil {
		return nil, err
	}

	class := asker.Class()
	candidates, err := h.fetchCandidates(ctx, query.Position(), class)
	if err != nil {
		return nil, err
	}

	matches, err := h.matcher.NearbyOrders(query.Position(), class, candidates)
	if err != nil {
		return nil, err
	}

	responses := make([]GetNearbyOrdersQueryResponse, 0, len(matches))
	for _, m := range matches {
		responses = append(responses, GetNearbyOrdersQueryResponse{
			OrderID:    m.Order.ID(),
			Pickup:     m.Order.Pickup(),
			Dropoff:    m.Order.Dropoff(),
			Class:      m.Order.Class(),
			DistanceKm: m.DistanceKm,
			EtaMinutes: kernel.EstimatedMinutes(m.DistanceKm, kernel.DefaultGroundSpeedKmh),
		})
	}
	return responses, nil
}

func (h GetNearbyOrdersQueryHandler) fetchCandidates(
	ctx context.Context,
	center kernel.GeoPoint,
	class kernel.DeliveryClass,
) ([]*order.Order, error) {
	limit := services.MaxNearbyOrders * candidateOverfetch

	candidates, err := h.orderRepo.GetUnassignedNear(ctx, center, class, class.RadiusKm(), limit)
	if err == nil {
		return candidates, nil
	}
	if !errors.Is(err, errs.ErrUnavailable) && !errors.Is(err, errs.ErrTimeout) {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(retryBackoff):
	}

	return h.orderRepo.GetUnassignedNear(ctx, center, class, class.RadiusKm(), limit)
}
