// Package realtime tracks live client connections and routes typed message
// envelopes between them and the coordination service. The registry is
// transport-agnostic: the websocket adapter hands it anything that can send
// an envelope.
package realtime

import "encoding/json"

// Message types carried in envelopes. Inbound types come from clients,
// outbound types are pushed by the coordination service. Unknown inbound
// types are ignored and counted, never fatal to the connection.
const (
	// Inbound.
	TypeLocationUpdate  = "location_update"
	TypeSubscribeOrders = "subscribe_orders"
	TypeOrderStatus     = "order_status_update"
	TypePing            = "ping"

	// Outbound.
	TypePong              = "pong"
	TypeNearbyOrders      = "nearby_orders"
	TypeOrderUpdate       = "order_update"
	TypeAgentLocation     = "agent_location_update"
	TypeNewOrderAvailable = "new_order_available"
	TypeError             = "error"
)

// Envelope is the wire frame for every realtime message: a type tag and a
// raw payload decoded by type-specific handlers.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals payload into an envelope of the given type.
func NewEnvelope(msgType string, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Type: msgType}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: msgType, Payload: raw}, nil
}

// ErrorPayload is the payload of TypeError envelopes. Code is a stable
// machine-readable rejection class; Message is for humans.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
