package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrIssuePickupCodeCommandIsNotConstructed = errors.New(
	"IssuePickupCodeCommand must be created via NewIssuePickupCodeCommand constructor",
)

// IssuePickupCodeCommand requests the 10-digit pickup-site code for an order.
// The pickup code space is independent of the 6-digit delivery code space.
type IssuePickupCodeCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	actor   kernel.Actor

	guard guard.ConstructorGuard
}

// NewIssuePickupCodeCommand creates a validated issuance command.
func NewIssuePickupCodeCommand(orderID kernel.UUID, actor kernel.Actor) (IssuePickupCodeCommand, error) {
	cmd := IssuePickupCodeCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setActor(actor),
	); err != nil {
		return IssuePickupCodeCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c IssuePickupCodeCommand) Validate() error {
	return c.guard.Validate(ErrIssuePickupCodeCommandIsNotConstructed)
}

// OrderID returns the order the code is for.
func (c IssuePickupCodeCommand) OrderID() kernel.UUID { return c.orderID }

// Actor returns who requests the code.
func (c IssuePickupCodeCommand) Actor() kernel.Actor { return c.actor }

func (c *IssuePickupCodeCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *IssuePickupCodeCommand) setActor(actor kernel.Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}

	c.actor = actor
	return nil
}
