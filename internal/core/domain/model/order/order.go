package order

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

// ErrOrderIsNotConstructed is returned when an Order instance was not created
// through NewOrder or RestoreOrder.
var ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder constructor")

// ErrConfirmationAlreadyStamped is returned when stamping confirmation data
// onto an order that already carries it.
var ErrConfirmationAlreadyStamped = errors.New("order already carries a delivery confirmation stamp")

// Order is the aggregate root for the delivery lifecycle. It is the sole
// owner of the order status: every status change goes through TransitionTo or
// Assign, which enforce the transition table, actor authorization, and the
// at-most-one-agent invariant, and append a tracking-history entry for each
// committed step.
//
// The coordination core never creates or deletes orders; the upstream
// placement flow creates them and this core mutates status, assignment,
// verification codes, and confirmation stamps.
type Order struct {
	id       kernel.UUID
	buyerID  kernel.UUID
	sellerID kernel.UUID

	// agentID is the assigned agent, nil while unassigned. The invariant is
	// at most one assigned agent at a time.
	agentID *kernel.UUID

	pickup  kernel.GeoPoint
	dropoff kernel.GeoPoint
	class   kernel.DeliveryClass
	status  Status

	// deliveryCode is the 6-digit door hand-off secret; pickupCode is the
	// 10-digit site hand-off secret. The two code spaces are independent.
	deliveryCode string
	pickupCode   string

	confirmedAt       *time.Time
	confirmedLocation *kernel.GeoPoint
	proofRef          string

	history   []HistoryEntry
	createdAt time.Time

	guard guard.ConstructorGuard
}

// NewOrder creates an unassigned order in PaymentConfirmed status.
func NewOrder(
	id, buyerID, sellerID kernel.UUID,
	pickup, dropoff kernel.GeoPoint,
	class kernel.DeliveryClass,
	createdAt time.Time,
) (*Order, error) {
	if err := errors.Join(
		id.Validate(),
		buyerID.Validate(),
		sellerID.Validate(),
		pickup.Validate(),
		dropoff.Validate(),
		class.Validate(),
	); err != nil {
		return nil, err
	}

	return &Order{
		id:        id,
		buyerID:   buyerID,
		sellerID:  sellerID,
		pickup:    pickup,
		dropoff:   dropoff,
		class:     class,
		status:    PaymentConfirmed,
		createdAt: createdAt,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// RestoreOrder reconstructs an order from persistence, including assignment,
// codes, and confirmation stamps. The restored aggregate behaves identically
// to one mutated through normal domain operations.
func RestoreOrder(
	id, buyerID, sellerID kernel.UUID,
	pickup, dropoff kernel.GeoPoint,
	class kernel.DeliveryClass,
	status Status,
	agentID *kernel.UUID,
	deliveryCode, pickupCode string,
	confirmedAt *time.Time,
	confirmedLocation *kernel.GeoPoint,
	proofRef string,
	createdAt time.Time,
) (*Order, error) {
	o, err := NewOrder(id, buyerID, sellerID, pickup, dropoff, class, createdAt)
	if err != nil {
		return nil, err
	}

	if err = status.Validate(); err != nil {
		return nil, err
	}
	if agentID != nil {
		if err = agentID.Validate(); err != nil {
			return nil, err
		}
	}

	o.status = status
	o.agentID = agentID
	o.deliveryCode = deliveryCode
	o.pickupCode = pickupCode
	o.confirmedAt = confirmedAt
	o.confirmedLocation = confirmedLocation
	o.proofRef = proofRef
	return o, nil
}

// Validate ensures the order was built through a constructor.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

// IsEqual compares orders by identity.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID { return o.id }

// BuyerID returns the buyer's identifier.
func (o *Order) BuyerID() kernel.UUID { return o.buyerID }

// SellerID returns the seller's identifier.
func (o *Order) SellerID() kernel.UUID { return o.sellerID }

// Agent returns the assigned agent's ID, nil while unassigned.
func (o *Order) Agent() *kernel.UUID { return o.agentID }

// Pickup returns the pickup coordinates.
func (o *Order) Pickup() kernel.GeoPoint { return o.pickup }

// Dropoff returns the delivery coordinates.
func (o *Order) Dropoff() kernel.GeoPoint { return o.dropoff }

// Class returns the delivery class that determines the matching radius.
func (o *Order) Class() kernel.DeliveryClass { return o.class }

// Status returns the current lifecycle status.
func (o *Order) Status() Status { return o.status }

// CreatedAt returns when the order was placed.
func (o *Order) CreatedAt() time.Time { return o.createdAt }

// DeliveryCode returns the 6-digit code, empty until issued.
func (o *Order) DeliveryCode() string { return o.deliveryCode }

// PickupCode returns the 10-digit code, empty until issued.
func (o *Order) PickupCode() string { return o.pickupCode }

// ConfirmedAt returns the confirmation timestamp, nil until confirmed.
func (o *Order) ConfirmedAt() *time.Time { return o.confirmedAt }

// ConfirmedLocation returns where the confirmation happened, nil until confirmed.
func (o *Order) ConfirmedLocation() *kernel.GeoPoint { return o.confirmedLocation }

// ProofRef returns the delivery proof artifact reference, empty if none.
func (o *Order) ProofRef() string { return o.proofRef }

// History returns a copy of the tracking-history entries appended by this
// aggregate instance since it was loaded.
func (o *Order) History() []HistoryEntry {
	out := make([]HistoryEntry, len(o.history))
	copy(out, o.history)
	return out
}

// Assign sets the agent and advances the status to AssignedToAgent. Legal only
// from PaymentConfirmed with no agent; otherwise ErrAlreadyAssigned. The
// persistence layer must commit the assignment with a conditional write so
// concurrent attempts cannot both succeed.
func (o *Order) Assign(agentID kernel.UUID, at time.Time) error {
	if err := agentID.Validate(); err != nil {
		return err
	}

	if o.status != PaymentConfirmed || o.agentID != nil {
		return ErrAlreadyAssigned
	}

	o.agentID = &agentID
	o.status = AssignedToAgent
	o.appendHistory(AssignedToAgent, kernel.Actor{ID: agentID, Role: kernel.RoleAgent}, "", nil, at)
	return nil
}

// ClearAssignment removes the agent and returns the order to PaymentConfirmed
// so an operator can re-dispatch it. Admin only; rejected on settled orders.
func (o *Order) ClearAssignment(actor kernel.Actor, at time.Time) error {
	if !actor.IsAdmin() {
		return ErrNotAssigned
	}
	if o.status.IsSettled() {
		return NewAlreadyTerminalError(o.status)
	}

	o.agentID = nil
	o.status = PaymentConfirmed
	o.appendHistory(PaymentConfirmed, actor, "assignment cleared by operator", nil, at)
	return nil
}

// TransitionTo moves the order to target after validating the transition
// table and the actor. Agent actors must be the assigned agent; admins may
// additionally force Cancelled from any unsettled state. On success the
// committed HistoryEntry is returned for persistence.
func (o *Order) TransitionTo(
	target Status,
	actor kernel.Actor,
	notes string,
	location *kernel.GeoPoint,
	at time.Time,
) (HistoryEntry, error) {
	if err := o.Validate(); err != nil {
		return HistoryEntry{}, err
	}

	if actor.IsAgent() {
		if o.agentID == nil || !o.agentID.IsEqual(actor.ID) {
			return HistoryEntry{}, ErrNotAssigned
		}
	}

	if err := o.status.CanTransitionTo(target); err != nil {
		return HistoryEntry{}, err
	}

	o.status = target
	entry := o.appendHistory(target, actor, notes, location, at)
	return entry, nil
}

// SetDeliveryCode stores the issued 6-digit code. Issuance is idempotent at
// the application layer: callers must return the existing code instead of
// overwriting it.
func (o *Order) SetDeliveryCode(code string) error {
	if o.deliveryCode != "" {
		return errors.New("delivery code already issued")
	}
	o.deliveryCode = code
	return nil
}

// SetPickupCode stores the issued 10-digit code; same idempotency contract as
// SetDeliveryCode.
func (o *Order) SetPickupCode(code string) error {
	if o.pickupCode != "" {
		return errors.New("pickup code already issued")
	}
	o.pickupCode = code
	return nil
}

// StampConfirmation records when and where the delivery was confirmed and the
// proof artifact reference. A second stamp is rejected so a settled order's
// confirmation data is immutable.
func (o *Order) StampConfirmation(at time.Time, location kernel.GeoPoint, proofRef string) error {
	if o.confirmedAt != nil {
		return ErrConfirmationAlreadyStamped
	}
	if err := location.Validate(); err != nil {
		return err
	}

	o.confirmedAt = &at
	o.confirmedLocation = &location
	o.proofRef = proofRef
	return nil
}

func (o *Order) appendHistory(
	status Status,
	actor kernel.Actor,
	notes string,
	location *kernel.GeoPoint,
	at time.Time,
) HistoryEntry {
	entry := HistoryEntry{
		OrderID:    o.id,
		Status:     status,
		Actor:      actor,
		Notes:      notes,
		Location:   location,
		RecordedAt: at,
	}
	o.history = append(o.history, entry)
	return entry
}
