package commands

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrUnassignOrderCommandIsNotConstructed = errors.New(
	"UnassignOrderCommand must be created via NewUnassignOrderCommand constructor",
)

// UnassignOrderCommand asks to clear an order's assignment so an operator can
// re-dispatch it. Admin only.
type UnassignOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	actor   kernel.Actor
	at      time.Time

	guard guard.ConstructorGuard
}

// NewUnassignOrderCommand creates a validated unassign command.
func NewUnassignOrderCommand(orderID kernel.UUID, actor kernel.Actor, at time.Time) (UnassignOrderCommand, error) {
	cmd := UnassignOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setActor(actor),
	); err != nil {
		return UnassignOrderCommand{}, err
	}

	cmd.at = at
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c UnassignOrderCommand) Validate() error {
	return c.guard.Validate(ErrUnassignOrderCommandIsNotConstructed)
}

// OrderID returns the order to clear.
func (c UnassignOrderCommand) OrderID() kernel.UUID { return c.orderID }

// Actor returns who requests the unassignment.
func (c UnassignOrderCommand) Actor() kernel.Actor { return c.actor }

// At returns the operation timestamp.
func (c UnassignOrderCommand) At() time.Time { return c.at }

func (c *UnassignOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *UnassignOrderCommand) setActor(actor kernel.Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}

	c.actor = actor
	return nil
}
