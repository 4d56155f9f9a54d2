package order

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status represents the lifecycle state of an order. It implements a state
// machine with a closed transition table: a transition is legal only to a
// direct successor, except Cancelled which is reachable from any state that
// is not yet settled.
//
// State graph:
//
//	PaymentConfirmed → AssignedToAgent → AgentEnRouteToSeller → AgentAtSeller
//	  → PickedFromSeller ─┬→ EnRouteToBuyer ─────────────────────────→ Delivered
//	                      └→ EnRouteToPickupSite → DeliveredToPickupSite
//	                           → ReadyForPickup ─────────────────────→ Delivered
//	Delivered → Completed
//	(any non-settled) → Cancelled
type Status int

const (
	// Unknown represents an invalid or undefined status.
	Unknown Status = iota

	// PaymentConfirmed is the entry state: the order is paid and waiting for
	// an agent.
	PaymentConfirmed

	// AssignedToAgent means an agent has accepted the order.
	AssignedToAgent

	// AgentEnRouteToSeller means the agent is travelling to the seller.
	AgentEnRouteToSeller

	// AgentAtSeller means the agent arrived at the seller.
	AgentAtSeller

	// PickedFromSeller means the agent picked the goods up.
	PickedFromSeller

	// EnRouteToBuyer means the agent is travelling to the buyer's door.
	EnRouteToBuyer

	// EnRouteToPickupSite means the agent is travelling to a pickup site
	// instead of the buyer's door.
	EnRouteToPickupSite

	// DeliveredToPickupSite means the goods were dropped at the pickup site.
	DeliveredToPickupSite

	// ReadyForPickup means the pickup site made the goods available to the buyer.
	ReadyForPickup

	// Delivered means the hand-off was confirmed with a verification code.
	// The only transition still accepted is the Completed acknowledgment.
	Delivered

	// Completed is the final acknowledged state.
	Completed

	// Cancelled is reachable from any state that is not yet settled.
	Cancelled
)

var statusStrings = map[Status]string{
	Unknown:               "Unknown",
	PaymentConfirmed:      "PAYMENT_CONFIRMED",
	AssignedToAgent:       "ASSIGNED_TO_AGENT",
	AgentEnRouteToSeller:  "AGENT_EN_ROUTE_TO_SELLER",
	AgentAtSeller:         "AGENT_AT_SELLER",
	PickedFromSeller:      "PICKED_FROM_SELLER",
	EnRouteToBuyer:        "EN_ROUTE_TO_BUYER",
	EnRouteToPickupSite:   "EN_ROUTE_TO_PICKUP_SITE",
	DeliveredToPickupSite: "DELIVERED_TO_PICKUP_SITE",
	ReadyForPickup:        "READY_FOR_PICKUP",
	Delivered:             "DELIVERED",
	Completed:             "COMPLETED",
	Cancelled:             "CANCELLED",
}

// successors is the closed transition table. Cancelled is handled separately
// because it is legal from every unsettled state.
var successors = map[Status][]Status{
	PaymentConfirmed:      {AssignedToAgent},
	AssignedToAgent:       {AgentEnRouteToSeller},
	AgentEnRouteToSeller:  {AgentAtSeller},
	AgentAtSeller:         {PickedFromSeller},
	PickedFromSeller:      {EnRouteToBuyer, EnRouteToPickupSite},
	EnRouteToBuyer:        {Delivered},
	EnRouteToPickupSite:   {DeliveredToPickupSite},
	DeliveredToPickupSite: {ReadyForPickup},
	ReadyForPickup:        {Delivered},
	Delivered:             {Completed},
	Completed:             {},
	Cancelled:             {},
}

// StatusFromString parses the wire representation of a status.
func StatusFromString(s string) (Status, error) {
	for status, str := range statusStrings {
		if str == s && status != Unknown {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status",
		fmt.Errorf("%q is not a valid status", s))
}

// Validate checks the Status is one of the defined lifecycle states.
func (s Status) Validate() error {
	if _, ok := successors[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the wire name of the status. Implements fmt.Stringer.
func (s Status) String() string {
	if str, ok := statusStrings[s]; ok {
		return str
	}
	return "Unknown"
}

// IsTerminal reports whether no transition at all is accepted from s.
// Completed and Cancelled are hard-terminal. Delivered still accepts the
// Completed acknowledgment but is terminal for code verification; see
// IsSettled.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Cancelled
}

// IsSettled reports whether the delivery outcome is decided. Once settled, no
// code verification or confirmation is accepted for the order.
func (s Status) IsSettled() bool {
	return s == Delivered || s.IsTerminal()
}

// CanTransitionTo checks whether target is a legal next state. It returns
// ErrAlreadyTerminal from terminal states and ErrInvalidTransition for
// anything that is neither a direct successor nor a legal cancellation.
func (s Status) CanTransitionTo(target Status) error {
	if err := target.Validate(); err != nil {
		return err
	}

	if s.IsTerminal() {
		return NewAlreadyTerminalError(s)
	}

	// Delivered accepts only the Completed acknowledgment; report it as
	// terminal for every other target, cancellation included, so callers see
	// a settled order.
	if s == Delivered && target != Completed {
		return NewAlreadyTerminalError(s)
	}

	if target == Cancelled {
		return nil
	}

	for _, next := range successors[s] {
		if next == target {
			return nil
		}
	}

	return NewInvalidTransitionError(s, target)
}
