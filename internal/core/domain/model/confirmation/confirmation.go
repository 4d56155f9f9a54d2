package confirmation

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// Domain errors for the confirmation protocol.
var (
	// ErrInvalidCode means the submitted code does not match the stored one.
	// The error never carries the stored code.
	ErrInvalidCode = errors.New("verification code does not match")

	// ErrConfirmationIsNotConstructed is returned when using an improperly
	// initialized DeliveryConfirmation.
	ErrConfirmationIsNotConstructed = errors.New(
		"DeliveryConfirmation must be created via NewDeliveryConfirmation constructor")
)

// Status is the review state of a confirmation record.
type Status string

const (
	// StatusPending means the confirmation awaits review.
	StatusPending Status = "pending"
	// StatusApproved means the confirmation was accepted; the record is
	// immutable from here on.
	StatusApproved Status = "approved"
	// StatusRejected means the confirmation was rejected by review.
	StatusRejected Status = "rejected"
)

// Validate checks the status is one of the known values.
func (s Status) Validate() error {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("confirmationStatus",
			fmt.Errorf("%q is not a valid confirmation status", string(s)))
	}
}

// DeliveryConfirmation records one confirmed (or attempted) hand-off: which
// agent used which code where, plus the proof artifact. One record exists per
// confirmation attempt; approved records are immutable.
type DeliveryConfirmation struct {
	id       kernel.UUID
	orderID  kernel.UUID
	agentID  kernel.UUID
	codeUsed string
	proofRef string
	notes    string
	location kernel.GeoPoint
	status   Status
	created  time.Time
	guard    guard.ConstructorGuard
}

// NewDeliveryConfirmation creates a pending confirmation record.
func NewDeliveryConfirmation(
	id, orderID, agentID kernel.UUID,
	codeUsed, proofRef, notes string,
	location kernel.GeoPoint,
	createdAt time.Time,
) (*DeliveryConfirmation, error) {
	if err := errors.Join(
		id.Validate(),
		orderID.Validate(),
		agentID.Validate(),
		location.Validate(),
	); err != nil {
		return nil, err
	}
	if codeUsed == "" {
		return nil, errs.NewValueIsRequiredError("codeUsed")
	}

	return &DeliveryConfirmation{
		id:       id,
		orderID:  orderID,
		agentID:  agentID,
		codeUsed: codeUsed,
		proofRef: proofRef,
		notes:    notes,
		location: location,
		status:   StatusPending,
		created:  createdAt,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// RestoreDeliveryConfirmation reconstructs a record from persistence.
func RestoreDeliveryConfirmation(
	id, orderID, agentID kernel.UUID,
	codeUsed, proofRef, notes string,
	location kernel.GeoPoint,
	status Status,
	createdAt time.Time,
) (*DeliveryConfirmation, error) {
	c, err := NewDeliveryConfirmation(id, orderID, agentID, codeUsed, proofRef, notes, location, createdAt)
	if err != nil {
		return nil, err
	}
	if err = status.Validate(); err != nil {
		return nil, err
	}
	c.status = status
	return c, nil
}

// Validate ensures the record was built through a constructor.
func (c *DeliveryConfirmation) Validate() error {
	if c == nil {
		return ErrConfirmationIsNotConstructed
	}
	return c.guard.Validate(ErrConfirmationIsNotConstructed)
}

// ID returns the record's unique identifier.
func (c *DeliveryConfirmation) ID() kernel.UUID { return c.id }

// OrderID returns the confirmed order's identifier.
func (c *DeliveryConfirmation) OrderID() kernel.UUID { return c.orderID }

// AgentID returns the confirming agent's identifier.
func (c *DeliveryConfirmation) AgentID() kernel.UUID { return c.agentID }

// CodeUsed returns the code the agent submitted.
func (c *DeliveryConfirmation) CodeUsed() string { return c.codeUsed }

// ProofRef returns the proof artifact reference, empty if none.
func (c *DeliveryConfirmation) ProofRef() string { return c.proofRef }

// Notes returns the agent's free-text notes.
func (c *DeliveryConfirmation) Notes() string { return c.notes }

// Location returns where the confirmation was submitted.
func (c *DeliveryConfirmation) Location() kernel.GeoPoint { return c.location }

// Status returns the review state.
func (c *DeliveryConfirmation) Status() Status { return c.status }

// CreatedAt returns when the record was created.
func (c *DeliveryConfirmation) CreatedAt() time.Time { return c.created }

// Approve marks the confirmation approved. Approved records are immutable;
// approving twice or flipping a rejected record is rejected.
func (c *DeliveryConfirmation) Approve() error {
	if c.status != StatusPending {
		return errs.NewValueIsInvalidErrorWithCause("confirmationStatus",
			fmt.Errorf("cannot approve a %s confirmation", c.status))
	}
	c.status = StatusApproved
	return nil
}

// Reject marks the confirmation rejected.
func (c *DeliveryConfirmation) Reject() error {
	if c.status != StatusPending {
		return errs.NewValueIsInvalidErrorWithCause("confirmationStatus",
			fmt.Errorf("cannot reject a %s confirmation", c.status))
	}
	c.status = StatusRejected
	return nil
}
