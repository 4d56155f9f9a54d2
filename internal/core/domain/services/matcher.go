package services

import (
	"sort"
	"time"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

const (
	// MaxNearbyOrders caps order suggestions pushed to an agent so a single
	// location report never floods the device.
	MaxNearbyOrders = 3

	// DefaultMaxNearbyAgents caps agent candidates returned for an order.
	DefaultMaxNearbyAgents = 5

	// DefaultPositionMaxAge is how old an agent's last position report may be
	// before the agent stops appearing in match results.
	DefaultPositionMaxAge = time.Hour
)

// OrderMatch is a candidate order with its computed great-circle distance.
// Matches are transient values, never persisted.
type OrderMatch struct {
	Order      *order.Order
	DistanceKm float64
}

// AgentMatch is a candidate agent with its computed great-circle distance.
type AgentMatch struct {
	AgentID    kernel.UUID
	DistanceKm float64
}

// AgentCandidate pairs an agent record with its latest position for matching.
type AgentCandidate struct {
	Agent    *agent.Agent
	Position agent.Position
}

// Matcher pairs unassigned orders with nearby available agents. The class
// radius is a hard cutoff: a candidate outside it never appears in results,
// however few candidates exist inside. Both directions tolerate empty inputs
// and return empty slices, never errors for the empty case.
type Matcher struct{}

// NewMatcher creates a Matcher.
func NewMatcher() Matcher {
	return Matcher{}
}

// NearbyOrders returns up to MaxNearbyOrders unassigned orders of the agent's
// class whose pickup point lies within the class radius of pos, newest first.
func (m Matcher) NearbyOrders(
	pos kernel.GeoPoint,
	class kernel.DeliveryClass,
	candidates []*order.Order,
) ([]OrderMatch, error) {
	if err := pos.Validate(); err != nil {
		return nil, err
	}
	if err := class.Validate(); err != nil {
		return nil, err
	}

	radius := class.RadiusKm()
	matches := make([]OrderMatch, 0, len(candidates))

	for _, o := range candidates {
		if err := o.Validate(); err != nil {
			return nil, err
		}
		if o.Status() != order.PaymentConfirmed || o.Agent() != nil || o.Class() != class {
			continue
		}

		d, err := pos.DistanceKm(o.Pickup())
		if err != nil {
			return nil, err
		}
		if d > radius {
			continue
		}

		matches = append(matches, OrderMatch{Order: o, DistanceKm: d})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Order.CreatedAt().After(matches[j].Order.CreatedAt())
	})

	if len(matches) > MaxNearbyOrders {
		matches = matches[:MaxNearbyOrders]
	}
	return matches, nil
}

// NearbyAgents returns up to maxResults matchable agents of the class whose
// last position is fresher than maxAge and within the class radius of pickup,
// closest first. Non-positive maxResults and maxAge fall back to the package
// defaults.
func (m Matcher) NearbyAgents(
	pickup kernel.GeoPoint,
	class kernel.DeliveryClass,
	candidates []AgentCandidate,
	maxResults int,
	now time.Time,
	maxAge time.Duration,
) ([]AgentMatch, error) {
	if err := pickup.Validate(); err != nil {
		return nil, err
	}
	if err := class.Validate(); err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxNearbyAgents
	}
	if maxAge <= 0 {
		maxAge = DefaultPositionMaxAge
	}

	radius := class.RadiusKm()
	matches := make([]AgentMatch, 0, len(candidates))

	for _, c := range candidates {
		if err := c.Agent.Validate(); err != nil {
			return nil, err
		}
		if err := c.Position.Validate(); err != nil {
			return nil, err
		}
		if !c.Agent.IsMatchable(class) || c.Position.IsStale(now, maxAge) {
			continue
		}

		d, err := pickup.DistanceKm(c.Position.Point())
		if err != nil {
			return nil, err
		}
		if d > radius {
			continue
		}

		matches = append(matches, AgentMatch{AgentID: c.Agent.ID(), DistanceKm: d})
	}

	sortByDistance(matches, func(a AgentMatch) float64 { return a.DistanceKm })

	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches, nil
}

// sortByDistance performs an insertion sort (fine for small N) on any slice
// where each element exposes a distance via the accessor function.
func sortByDistance[T any](items []T, dist func(T) float64) {
	for i := 1; i < len(items); i++ {
		key := items[i]
		j := i - 1
		for j >= 0 && dist(items[j]) > dist(key) {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = key
	}
}
