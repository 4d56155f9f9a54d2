package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrIssueDeliveryCodeCommandIsNotConstructed = errors.New(
	"IssueDeliveryCodeCommand must be created via NewIssueDeliveryCodeCommand constructor",
)

// IssueDeliveryCodeCommand requests the 6-digit door hand-off code for an
// order. Issuance is idempotent: repeated requests return the same code.
type IssueDeliveryCodeCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	actor   kernel.Actor

	guard guard.ConstructorGuard
}

// NewIssueDeliveryCodeCommand creates a validated issuance command.
func NewIssueDeliveryCodeCommand(orderID kernel.UUID, actor kernel.Actor) (IssueDeliveryCodeCommand, error) {
	cmd := IssueDeliveryCodeCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setActor(actor),
	); err != nil {
		return IssueDeliveryCodeCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c IssueDeliveryCodeCommand) Validate() error {
	return c.guard.Validate(ErrIssueDeliveryCodeCommandIsNotConstructed)
}

// OrderID returns the order the code is for.
func (c IssueDeliveryCodeCommand) OrderID() kernel.UUID { return c.orderID }

// Actor returns who requests the code.
func (c IssueDeliveryCodeCommand) Actor() kernel.Actor { return c.actor }

func (c *IssueDeliveryCodeCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *IssueDeliveryCodeCommand) setActor(actor kernel.Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}

	c.actor = actor
	return nil
}
