// Package coordination is the realtime front of the core: it decodes typed
// message envelopes from live connections, dispatches them to the command and
// query handlers, and pushes the results back out through the registry.
//
// Validation failures answer the caller over the same connection as a typed
// error envelope and never close it. Unknown message types are counted and
// ignored.
package coordination

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/confirmation"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/metrics"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/realtime"
)

// persistenceTimeout bounds every storage-touching message handler.
const persistenceTimeout = 5 * time.Second

// Rejection codes carried in error envelopes. Stable machine-readable names
// for the rejection classes a client can act on.
const (
	codeUnauthenticated    = "UNAUTHENTICATED"
	codeInvalidCoordinates = "INVALID_COORDINATES"
	codeInvalidTransition  = "INVALID_TRANSITION"
	codeNotAssigned        = "NOT_ASSIGNED"
	codeAlreadyAssigned    = "ALREADY_ASSIGNED"
	codeAlreadyTerminal    = "ALREADY_TERMINAL"
	codeInvalidCode        = "INVALID_CODE"
	codeNotFound           = "NOT_FOUND"
	codeMalformed          = "MALFORMED_MESSAGE"
	codeInternal           = "INTERNAL"
)

// Service routes envelopes between connections and the application layer.
type Service struct {
	registry *realtime.Registry

	reportLocation  commands.ReportLocationCommandHandler
	transitionOrder commands.TransitionOrderCommandHandler
	assignOrder     commands.AssignOrderCommandHandler

	nearbyOrders queries.GetNearbyOrdersQueryHandler
	nearbyAgents queries.GetNearbyAgentsQueryHandler

	logger *slog.Logger
}

// NewService wires the coordination service.
func NewService(
	registry *realtime.Registry,
	reportLocation commands.ReportLocationCommandHandler,
	transitionOrder commands.TransitionOrderCommandHandler,
	assignOrder commands.AssignOrderCommandHandler,
	nearbyOrders queries.GetNearbyOrdersQueryHandler,
	nearbyAgents queries.GetNearbyAgentsQueryHandler,
	logger *slog.Logger,
) *Service {
	return &Service{
		registry:        registry,
		reportLocation:  reportLocation,
		transitionOrder: transitionOrder,
		assignOrder:     assignOrder,
		nearbyOrders:    nearbyOrders,
		nearbyAgents:    nearbyAgents,
		logger:          logger.With("component", "coordination"),
	}
}

// Registry exposes the connection registry for the transport adapter.
func (s *Service) Registry() *realtime.Registry {
	return s.registry
}

// HandleMessage processes one inbound envelope from a live connection. Any
// inbound message resets the session's idle timer.
func (s *Service) HandleMessage(ctx context.Context, session *realtime.Session, env realtime.Envelope) {
	s.registry.Touch(session.ID)

	switch env.Type {
	case realtime.TypePing:
		s.handlePing(session)
	case realtime.TypeLocationUpdate:
		s.handleLocationUpdate(ctx, session, env.Payload)
	case realtime.TypeSubscribeOrders:
		s.handleSubscribeOrders(session, env.Payload)
	case realtime.TypeOrderStatus:
		s.handleOrderStatusUpdate(ctx, session, env.Payload)
	default:
		metrics.IgnoredMessages.Inc()
		s.logger.Debug("ignoring unknown message type",
			"type", env.Type, "session_id", session.ID.String())
	}
}

// pongPayload carries the server timestamp of a ping reply.
type pongPayload struct {
	ServerTime time.Time `json:"serverTime"`
}

func (s *Service) handlePing(session *realtime.Session) {
	env, err := realtime.NewEnvelope(realtime.TypePong, pongPayload{ServerTime: time.Now()})
	if err != nil {
		return
	}
	_ = session.Send(env)
}

// locationUpdatePayload is the inbound position report.
type locationUpdatePayload struct {
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	AccuracyM  *float64   `json:"accuracy,omitempty"`
	Heading    *float64   `json:"heading,omitempty"`
	SpeedKmh   *float64   `json:"speed,omitempty"`
	CapturedAt *time.Time `json:"capturedAt,omitempty"`
}

// agentLocationPayload is pushed to subscribers of the agent's topic.
type agentLocationPayload struct {
	AgentID    string    `json:"agentId"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	CapturedAt time.Time `json:"capturedAt"`
}

// nearbyOrderPayload is one claimable order suggestion.
type nearbyOrderPayload struct {
	OrderID    string  `json:"orderId"`
	PickupLat  float64 `json:"pickupLat"`
	PickupLng  float64 `json:"pickupLng"`
	DropoffLat float64 `json:"dropoffLat"`
	DropoffLng float64 `json:"dropoffLng"`
	Class      string  `json:"class"`
	DistanceKm float64 `json:"distanceKm"`
	EtaMinutes int     `json:"etaMinutes"`
}

func (s *Service) handleLocationUpdate(ctx context.Context, session *realtime.Session, payload json.RawMessage) {
	if !session.Actor.IsAgent() {
		s.reject(session, codeUnauthenticated, "only agents report locations")
		return
	}

	var p locationUpdatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.reject(session, codeMalformed, "malformed location_update payload")
		return
	}

	point, err := kernel.NewGeoPoint(p.Latitude, p.Longitude)
	if err != nil {
		metrics.LocationUpdates.WithLabelValues("rejected").Inc()
		s.reject(session, codeInvalidCoordinates, "coordinates out of range")
		return
	}

	capturedAt := time.Now()
	if p.CapturedAt != nil {
		capturedAt = *p.CapturedAt
	}

	cmd, err := commands.NewReportLocationCommand(
		session.Actor.ID, point, p.AccuracyM, p.Heading, p.SpeedKmh, capturedAt)
	if err != nil {
		s.rejectWith(session, err)
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, persistenceTimeout)
	defer cancel()

	applied, err := s.reportLocation.Handle(opCtx, cmd)
	if err != nil {
		s.rejectWith(session, err)
		return
	}
	if !applied {
		metrics.LocationUpdates.WithLabelValues("discarded").Inc()
		return
	}
	metrics.LocationUpdates.WithLabelValues("applied").Inc()

	s.publishAgentLocation(session.Actor.ID, point, capturedAt)
	s.pushNearbyOrders(opCtx, session, point)
}

func (s *Service) publishAgentLocation(agentID kernel.UUID, point kernel.GeoPoint, capturedAt time.Time) {
	env, err := realtime.NewEnvelope(realtime.TypeAgentLocation, agentLocationPayload{
		AgentID:    agentID.String(),
		Latitude:   point.Latitude(),
		Longitude:  point.Longitude(),
		CapturedAt: capturedAt,
	})
	if err != nil {
		return
	}
	s.registry.Publish(realtime.AgentTopic(agentID), env)
}

func (s *Service) pushNearbyOrders(ctx context.Context, session *realtime.Session, point kernel.GeoPoint) {
	q, err := queries.NewGetNearbyOrdersQuery(session.Actor.ID, point)
	if err != nil {
		return
	}

	matches, err := s.nearbyOrders.Handle(ctx, q)
	if err != nil {
		// Suggestions are best-effort; the position report already succeeded.
		s.logger.Warn("nearby-order lookup failed",
			"agent_id", session.Actor.ID.String(), "error", err)
		return
	}

	payload := make([]nearbyOrderPayload, 0, len(matches))
	for _, m := range matches {
		payload = append(payload, nearbyOrderPayload{
			OrderID:    m.OrderID.String(),
			PickupLat:  m.Pickup.Latitude(),
			PickupLng:  m.Pickup.Longitude(),
			DropoffLat: m.Dropoff.Latitude(),
			DropoffLng: m.Dropoff.Longitude(),
			Class:      string(m.Class),
			DistanceKm: m.DistanceKm,
			EtaMinutes: m.EtaMinutes,
		})
	}

	env, err := realtime.NewEnvelope(realtime.TypeNearbyOrders, payload)
	if err != nil {
		return
	}
	if session.Send(env) == nil {
		metrics.MatchesServed.Inc()
	}
}

// subscribeOrdersPayload mutates one order-topic subscription.
type subscribeOrdersPayload struct {
	OrderID string `json:"orderId"`
	Action  string `json:"action"` // subscribe | unsubscribe
}

func (s *Service) handleSubscribeOrders(session *realtime.Session, payload json.RawMessage) {
	var p subscribeOrdersPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.reject(session, codeMalformed, "malformed subscribe_orders payload")
		return
	}

	orderID, err := kernel.UUIDFromString(p.OrderID)
	if err != nil {
		s.reject(session, codeMalformed, "orderId is not a valid UUID")
		return
	}

	topic := realtime.OrderTopic(orderID)
	switch p.Action {
	case "subscribe", "":
		s.registry.Subscribe(session.ID, topic)
	case "unsubscribe":
		s.registry.Unsubscribe(session.ID, topic)
	default:
		s.reject(session, codeMalformed, "action must be subscribe or unsubscribe")
	}
}

// orderStatusUpdatePayload is the inbound lifecycle step request.
type orderStatusUpdatePayload struct {
	OrderID  string   `json:"orderId"`
	Status   string   `json:"status"`
	Notes    string   `json:"notes,omitempty"`
	Location *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location,omitempty"`
}

// orderUpdatePayload is published to order-topic subscribers on each
// committed transition.
type orderUpdatePayload struct {
	OrderID   string    `json:"orderId"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Service) handleOrderStatusUpdate(ctx context.Context, session *realtime.Session, payload json.RawMessage) {
	if !session.Actor.IsAgent() && !session.Actor.IsAdmin() {
		s.reject(session, codeUnauthenticated, "only agents and admins update order status")
		return
	}

	var p orderStatusUpdatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.reject(session, codeMalformed, "malformed order_status_update payload")
		return
	}

	orderID, err := kernel.UUIDFromString(p.OrderID)
	if err != nil {
		s.reject(session, codeMalformed, "orderId is not a valid UUID")
		return
	}

	target, err := order.StatusFromString(p.Status)
	if err != nil {
		s.reject(session, codeInvalidTransition, "unknown target status")
		return
	}

	var location *kernel.GeoPoint
	if p.Location != nil {
		point, pointErr := kernel.NewGeoPoint(p.Location.Latitude, p.Location.Longitude)
		if pointErr != nil {
			s.reject(session, codeInvalidCoordinates, "coordinates out of range")
			return
		}
		location = &point
	}

	at := time.Now()
	cmd, err := commands.NewTransitionOrderCommand(orderID, target, session.Actor, p.Notes, location, at)
	if err != nil {
		s.rejectWith(session, err)
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, persistenceTimeout)
	defer cancel()

	if err = s.transitionOrder.Handle(opCtx, cmd); err != nil {
		s.rejectWith(session, err)
		return
	}

	env, err := realtime.NewEnvelope(realtime.TypeOrderUpdate, orderUpdatePayload{
		OrderID:   orderID.String(),
		Status:    target.String(),
		Notes:     p.Notes,
		UpdatedAt: at,
	})
	if err != nil {
		return
	}
	s.registry.Publish(realtime.OrderTopic(orderID), env)
}

// newOrderPayload announces a claimable order to matched agents.
type newOrderPayload struct {
	OrderID    string  `json:"orderId"`
	PickupLat  float64 `json:"pickupLat"`
	PickupLng  float64 `json:"pickupLng"`
	Class      string  `json:"class"`
	DistanceKm float64 `json:"distanceKm"`
	EtaMinutes int     `json:"etaMinutes"`
}

// AnnounceOrder pushes new_order_available directly to the agents matched
// near the order's pickup point. Returns how many agents were notified.
func (s *Service) AnnounceOrder(
	ctx context.Context,
	orderID kernel.UUID,
	pickup kernel.GeoPoint,
	class kernel.DeliveryClass,
) (int, error) {
	q, err := queries.NewGetNearbyAgentsQuery(pickup, class, 0)
	if err != nil {
		return 0, err
	}

	matches, err := s.nearbyAgents.Handle(ctx, q)
	if err != nil {
		return 0, err
	}

	notified := 0
	for _, m := range matches {
		env, envErr := realtime.NewEnvelope(realtime.TypeNewOrderAvailable, newOrderPayload{
			OrderID:    orderID.String(),
			PickupLat:  pickup.Latitude(),
			PickupLng:  pickup.Longitude(),
			Class:      string(class),
			DistanceKm: m.DistanceKm,
			EtaMinutes: m.EtaMinutes,
		})
		if envErr != nil {
			continue
		}
		notified += s.registry.SendToUser(m.AgentID, env)
	}
	return notified, nil
}

// ClaimOrder assigns the order to the claiming agent and publishes the
// resulting status change to order-topic subscribers.
func (s *Service) ClaimOrder(ctx context.Context, orderID, agentID kernel.UUID) error {
	at := time.Now()
	cmd, err := commands.NewAssignOrderCommand(orderID, agentID, at)
	if err != nil {
		return err
	}

	if err = s.assignOrder.Handle(ctx, cmd); err != nil {
		if errors.Is(err, order.ErrAlreadyAssigned) {
			metrics.Assignments.WithLabelValues("lost").Inc()
		}
		return err
	}
	metrics.Assignments.WithLabelValues("won").Inc()

	env, err := realtime.NewEnvelope(realtime.TypeOrderUpdate, orderUpdatePayload{
		OrderID:   orderID.String(),
		Status:    order.AssignedToAgent.String(),
		UpdatedAt: at,
	})
	if err != nil {
		return nil
	}
	s.registry.Publish(realtime.OrderTopic(orderID), env)
	return nil
}

func (s *Service) reject(session *realtime.Session, code, message string) {
	env, err := realtime.NewEnvelope(realtime.TypeError, realtime.ErrorPayload{
		Code:    code,
		Message: message,
	})
	if err != nil {
		return
	}
	_ = session.Send(env)
}

// rejectWith maps a domain error onto a typed rejection envelope.
func (s *Service) rejectWith(session *realtime.Session, err error) {
	var code string
	switch {
	case errors.Is(err, confirmation.ErrInvalidCode):
		code = codeInvalidCode
	case errors.Is(err, order.ErrInvalidTransition):
		code = codeInvalidTransition
	case errors.Is(err, order.ErrAlreadyTerminal):
		code = codeAlreadyTerminal
	case errors.Is(err, order.ErrAlreadyAssigned):
		code = codeAlreadyAssigned
	case errors.Is(err, order.ErrNotAssigned):
		code = codeNotAssigned
	case errors.Is(err, errs.ErrObjectNotFound):
		code = codeNotFound
	case errors.Is(err, errs.ErrValueIsOutOfRange):
		code = codeInvalidCoordinates
	default:
		code = codeInternal
	}
	s.reject(session, code, err.Error())
}
