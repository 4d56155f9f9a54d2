package realtime

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// Defaults for connection liveness. A connection silent longer than the idle
// timeout is closed; the grace window bounds two short-lived states: a
// registered connection that never sent a message, and an agent whose last
// connection dropped and may still reconnect.
const (
	DefaultIdleTimeout    = 5 * time.Minute
	DefaultReconnectGrace = 30 * time.Second
)

// ErrUnauthenticated is returned when registering a connection without a
// valid identity.
var ErrUnauthenticated = errors.New("connection identity is missing or invalid")

// Sender delivers one envelope to a client. Implementations must be safe for
// concurrent use; a failed send marks the connection dead.
type Sender interface {
	Send(env Envelope) error
	Close() error
}

// Session is one registered connection.
type Session struct {
	ID    kernel.UUID
	Actor kernel.Actor
	conn  Sender
}

// Send delivers an envelope to this connection only.
func (s *Session) Send(env Envelope) error {
	return s.conn.Send(env)
}

type sessionState struct {
	session *Session
	topics  map[string]struct{}

	// lastSeen is the registration time until the first inbound message
	// arrives; sentAny flips then. Handshakes that never send are reaped on
	// the short grace window instead of the full idle timeout.
	lastSeen time.Time
	sentAny  bool
}

// Registry tracks live connections, per-user routing, and topic
// subscriptions. All methods are safe for concurrent use. Sends are
// best-effort: a dead subscriber is dropped, never retried, and never blocks
// delivery to the others.
type Registry struct {
	mu             sync.Mutex
	sessions       map[kernel.UUID]*sessionState
	byUser         map[kernel.UUID]map[kernel.UUID]struct{} // user ID -> session IDs
	byTopic        map[string]map[kernel.UUID]struct{}      // topic -> session IDs
	pendingOffline map[kernel.UUID]time.Time                // agent ID -> when last session dropped

	onAgentOffline func(agentID kernel.UUID)
	logger         *slog.Logger
}

// NewRegistry creates a Registry. onAgentOffline is invoked when an agent's
// last connection stayed away past the reconnect grace; nil disables it.
func NewRegistry(onAgentOffline func(agentID kernel.UUID), logger *slog.Logger) *Registry {
	return &Registry{
		sessions:       make(map[kernel.UUID]*sessionState),
		byUser:         make(map[kernel.UUID]map[kernel.UUID]struct{}),
		byTopic:        make(map[string]map[kernel.UUID]struct{}),
		pendingOffline: make(map[kernel.UUID]time.Time),
		onAgentOffline: onAgentOffline,
		logger:         logger.With("component", "realtime_registry"),
	}
}

// Register adds a connection under the authenticated actor. An actor that
// fails validation is rejected with ErrUnauthenticated.
func (r *Registry) Register(actor kernel.Actor, conn Sender) (*Session, error) {
	if err := actor.Validate(); err != nil {
		return nil, ErrUnauthenticated
	}

	session := &Session{
		ID:    kernel.NewUUID(),
		Actor: actor,
		conn:  conn,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = &sessionState{
		session:  session,
		topics:   make(map[string]struct{}),
		lastSeen: time.Now(),
	}
	if r.byUser[actor.ID] == nil {
		r.byUser[actor.ID] = make(map[kernel.UUID]struct{})
	}
	r.byUser[actor.ID][session.ID] = struct{}{}

	// A reconnect within the grace window cancels the pending offline.
	delete(r.pendingOffline, actor.ID)

	r.logger.Debug("connection registered",
		"session_id", session.ID.String(), "user_id", actor.ID.String(), "role", string(actor.Role))
	return session, nil
}

// Unregister removes a connection. When an agent's last connection drops, the
// agent enters the reconnect grace window instead of going offline at once.
func (r *Registry) Unregister(sessionID kernel.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(sessionID, time.Now())
}

// Subscribe adds the session to a topic. Subscribing twice is a no-op.
func (r *Registry) Subscribe(sessionID kernel.UUID, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	state.topics[topic] = struct{}{}
	if r.byTopic[topic] == nil {
		r.byTopic[topic] = make(map[kernel.UUID]struct{})
	}
	r.byTopic[topic][sessionID] = struct{}{}
}

// Unsubscribe removes the session from a topic.
func (r *Registry) Unsubscribe(sessionID kernel.UUID, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state, ok := r.sessions[sessionID]; ok {
		delete(state.topics, topic)
	}
	if subs, ok := r.byTopic[topic]; ok {
		delete(subs, sessionID)
		if len(subs) == 0 {
			delete(r.byTopic, topic)
		}
	}
}

// Touch records activity on a session, deferring its idle eviction.
func (r *Registry) Touch(sessionID kernel.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state, ok := r.sessions[sessionID]; ok {
		state.lastSeen = time.Now()
		state.sentAny = true
	}
}

// SendToUser delivers an envelope to every live connection of the user.
// Returns how many connections received it; dead connections are dropped.
func (r *Registry) SendToUser(userID kernel.UUID, env Envelope) int {
	r.mu.Lock()
	targets := r.collectLocked(r.byUser[userID])
	r.mu.Unlock()

	return r.deliver(targets, env)
}

// Publish delivers an envelope to every subscriber of the topic. The
// subscriber set is snapshotted first so slow or dead connections never hold
// the registry lock.
func (r *Registry) Publish(topic string, env Envelope) int {
	r.mu.Lock()
	targets := r.collectLocked(r.byTopic[topic])
	r.mu.Unlock()

	return r.deliver(targets, env)
}

// ReapIdle closes connections silent past idleTimeout, closes connections
// that registered but never sent once reconnectGrace elapsed, and fires the
// offline hook for agents whose grace window elapsed. Non-positive arguments
// fall back to the package defaults. Returns how many sessions were evicted.
func (r *Registry) ReapIdle(idleTimeout, reconnectGrace time.Duration) int {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	if reconnectGrace <= 0 {
		reconnectGrace = DefaultReconnectGrace
	}
	now := time.Now()

	r.mu.Lock()
	var evicted []*Session
	for id, state := range r.sessions {
		deadline := idleTimeout
		if !state.sentAny {
			deadline = reconnectGrace
		}
		if now.Sub(state.lastSeen) > deadline {
			evicted = append(evicted, state.session)
			r.removeLocked(id, now)
		}
	}

	var offline []kernel.UUID
	for agentID, droppedAt := range r.pendingOffline {
		if now.Sub(droppedAt) > reconnectGrace {
			offline = append(offline, agentID)
			delete(r.pendingOffline, agentID)
		}
	}
	r.mu.Unlock()

	for _, s := range evicted {
		_ = s.conn.Close()
		r.logger.Info("idle connection closed", "session_id", s.ID.String(), "user_id", s.Actor.ID.String())
	}
	if r.onAgentOffline != nil {
		for _, agentID := range offline {
			r.logger.Info("agent offline after reconnect grace", "agent_id", agentID.String())
			r.onAgentOffline(agentID)
		}
	}
	return len(evicted)
}

// Sessions reports the number of live connections.
func (r *Registry) Sessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) removeLocked(sessionID kernel.UUID, now time.Time) {
	state, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(r.sessions, sessionID)

	actor := state.session.Actor
	if userSessions, ok := r.byUser[actor.ID]; ok {
		delete(userSessions, sessionID)
		if len(userSessions) == 0 {
			delete(r.byUser, actor.ID)
			if actor.IsAgent() {
				r.pendingOffline[actor.ID] = now
			}
		}
	}
	for topic := range state.topics {
		if subs, ok := r.byTopic[topic]; ok {
			delete(subs, sessionID)
			if len(subs) == 0 {
				delete(r.byTopic, topic)
			}
		}
	}
}

func (r *Registry) collectLocked(ids map[kernel.UUID]struct{}) []*Session {
	targets := make([]*Session, 0, len(ids))
	for id := range ids {
		if state, ok := r.sessions[id]; ok {
			targets = append(targets, state.session)
		}
	}
	return targets
}

func (r *Registry) deliver(targets []*Session, env Envelope) int {
	delivered := 0
	for _, s := range targets {
		if err := s.conn.Send(env); err != nil {
			r.logger.Warn("send failed, dropping connection",
				"session_id", s.ID.String(), "error", err)
			r.Unregister(s.ID)
			continue
		}
		delivered++
	}
	return delivered
}

// OrderTopic names the per-order status topic.
func OrderTopic(orderID kernel.UUID) string {
	return "order:" + orderID.String()
}

// ClassTopic names the per-class topic used to announce new claimable orders
// to agents of that class.
func ClassTopic(class kernel.DeliveryClass) string {
	return "class:" + string(class)
}

// AgentTopic names the per-agent live position topic. Buyers tracking a
// delivery subscribe here to see the agent move.
func AgentTopic(agentID kernel.UUID) string {
	return "agent:" + agentID.String()
}
