package commands

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrConfirmDeliveryCommandIsNotConstructed = errors.New(
	"ConfirmDeliveryCommand must be created via NewConfirmDeliveryCommand constructor",
)

// ConfirmDeliveryCommand carries an agent's hand-off confirmation attempt:
// the code the recipient gave them, where they stand, and the optional proof
// artifact reference.
type ConfirmDeliveryCommand struct { //nolint:recvcheck //using for validation
	orderID       kernel.UUID
	agentID       kernel.UUID
	submittedCode string
	proofRef      string
	notes         string
	location      kernel.GeoPoint
	at            time.Time

	guard guard.ConstructorGuard
}

// NewConfirmDeliveryCommand creates a validated confirmation command.
func NewConfirmDeliveryCommand(
	orderID, agentID kernel.UUID,
	submittedCode, proofRef, notes string,
	location kernel.GeoPoint,
	at time.Time,
) (ConfirmDeliveryCommand, error) {
	cmd := ConfirmDeliveryCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setAgentID(agentID),
		cmd.setSubmittedCode(submittedCode),
		cmd.setLocation(location),
	); err != nil {
		return ConfirmDeliveryCommand{}, err
	}

	cmd.proofRef = proofRef
	cmd.notes = notes
	cmd.at = at
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ConfirmDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrConfirmDeliveryCommandIsNotConstructed)
}

// OrderID returns the order being confirmed.
func (c ConfirmDeliveryCommand) OrderID() kernel.UUID { return c.orderID }

// AgentID returns the confirming agent.
func (c ConfirmDeliveryCommand) AgentID() kernel.UUID { return c.agentID }

// SubmittedCode returns the code the agent typed in.
func (c ConfirmDeliveryCommand) SubmittedCode() string { return c.submittedCode }

// ProofRef returns the proof artifact reference, empty if none.
func (c ConfirmDeliveryCommand) ProofRef() string { return c.proofRef }

// Notes returns the agent's free-text notes.
func (c ConfirmDeliveryCommand) Notes() string { return c.notes }

// Location returns where the confirmation was submitted.
func (c ConfirmDeliveryCommand) Location() kernel.GeoPoint { return c.location }

// At returns the confirmation timestamp.
func (c ConfirmDeliveryCommand) At() time.Time { return c.at }

func (c *ConfirmDeliveryCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *ConfirmDeliveryCommand) setAgentID(agentID kernel.UUID) error {
	if err := agentID.Validate(); err != nil {
		return err
	}

	c.agentID = agentID
	return nil
}

func (c *ConfirmDeliveryCommand) setSubmittedCode(code string) error {
	if code == "" {
		return errs.NewValueIsRequiredError("submittedCode")
	}

	c.submittedCode = code
	return nil
}

func (c *ConfirmDeliveryCommand) setLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}

	c.location = location
	return nil
}
