package commands

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
)

var ErrTransitionOrderCommandIsNotConstructed = errors.New(
	"TransitionOrderCommand must be created via NewTransitionOrderCommand constructor",
)

// TransitionOrderCommand requests one step of an order's lifecycle. The
// actor's role and identity decide whether the step is permitted; the
// optional location becomes part of the tracking history.
type TransitionOrderCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	target   order.Status
	actor    kernel.Actor
	notes    string
	location *kernel.GeoPoint
	at       time.Time

	guard guard.ConstructorGuard
}

// NewTransitionOrderCommand creates a validated transition command.
func NewTransitionOrderCommand(
	orderID kernel.UUID,
	target order.Status,
	actor kernel.Actor,
	notes string,
	location *kernel.GeoPoint,
	at time.Time,
) (TransitionOrderCommand, error) {
	cmd := TransitionOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setTarget(target),
		cmd.setActor(actor),
		cmd.setLocation(location),
	); err != nil {
		return TransitionOrderCommand{}, err
	}

	cmd.notes = notes
	cmd.at = at
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c TransitionOrderCommand) Validate() error {
	return c.guard.Validate(ErrTransitionOrderCommandIsNotConstructed)
}

// OrderID returns the order to transition.
func (c TransitionOrderCommand) OrderID() kernel.UUID { return c.orderID }

// Target returns the requested status.
func (c TransitionOrderCommand) Target() order.Status { return c.target }

// Actor returns who requests the transition.
func (c TransitionOrderCommand) Actor() kernel.Actor { return c.actor }

// Notes returns the free-text notes for the history entry.
func (c TransitionOrderCommand) Notes() string { return c.notes }

// Location returns where the step happened, nil when not reported.
func (c TransitionOrderCommand) Location() *kernel.GeoPoint { return c.location }

// At returns the transition timestamp.
func (c TransitionOrderCommand) At() time.Time { return c.at }

func (c *TransitionOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *TransitionOrderCommand) setTarget(target order.Status) error {
	if err := target.Validate(); err != nil {
		return err
	}

	c.target = target
	return nil
}

func (c *TransitionOrderCommand) setActor(actor kernel.Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}

	c.actor = actor
	return nil
}

func (c *TransitionOrderCommand) setLocation(location *kernel.GeoPoint) error {
	if location != nil {
		if err := location.Validate(); err != nil {
			return err
		}
	}

	c.location = location
	return nil
}
