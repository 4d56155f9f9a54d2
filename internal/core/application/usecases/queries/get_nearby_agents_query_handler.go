package queries

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
)

// GetNearbyAgentsQueryHandler finds matchable agents near a pickup point by
// joining the agent records with the latest position snapshot. Agents whose
// last report is older than the freshness window never appear.
type GetNearbyAgentsQueryHandler struct {
	agentRepo ports.AgentRepository
	store     ports.LocationStore
	matcher   services.Matcher
	maxAge    time.Duration
}

// NewGetNearbyAgentsQueryHandler creates a handler for nearby-agent queries.
// A non-positive maxAge falls back to services.DefaultPositionMaxAge.
func NewGetNearbyAgentsQueryHandler(
	agentRepo ports.AgentRepository,
	store ports.LocationStore,
	maxAge time.Duration,
) GetNearbyAgentsQueryHandler {
	if maxAge <= 0 {
		maxAge = services.DefaultPositionMaxAge
	}
	return GetNearbyAgentsQueryHandler{
		agentRepo: agentRepo,
		store:     store,
		matcher:   services.NewMatcher(),
		maxAge:    maxAge,
	}
}

// Handle returns candidate agents closest first, capped at the query's
// maxResults.
func (h GetNearbyAgentsQueryHandler) Handle(
	ctx context.Context,
	query GetNearbyAgentsQuery,
) ([]GetNearbyAgentsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	agents, err := h.agentRepo.ListAvailable(ctx, query.Class())
	if err != nil {
		return nil, err
	}

	positions, err := h.store.Snapshot(ctx, query.Class(), h.maxAge)
	if err != nil {
		return nil, err
	}

	byAgent := make(map[kernel.UUID]agent.Position, len(positions))
	for _, pos := range positions {
		byAgent[pos.AgentID()] = pos
	}

	candidates := make([]services.AgentCandidate, 0, len(agents))
	for _, a := range agents {
		pos, ok := byAgent[a.ID()]
		if !ok {
			continue // never reported a position
		}
		candidates = append(candidates, services.AgentCandidate{Agent: a, Position: pos})
	}

	matches, err := h.matcher.NearbyAgents(
		query.Pickup(), query.Class(), candidates, query.MaxResults(), time.Now(), h.maxAge)
	if err != nil {
		return nil, err
	}

	responses := make([]GetNearbyAgentsQueryResponse, 0, len(matches))
	for _, m := range matches {
		responses = append(responses, GetNearbyAgentsQueryResponse{
			AgentID:    m.AgentID,
			DistanceKm: m.DistanceKm,
			EtaMinutes: kernel.EstimatedMinutes(m.DistanceKm, kernel.DefaultGroundSpeedKmh),
		})
	}
	return responses, nil
}
