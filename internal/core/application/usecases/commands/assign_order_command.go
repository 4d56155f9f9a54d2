package commands

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrAssignOrderCommandIsNotConstructed = errors.New(
	"AssignOrderCommand must be created via NewAssignOrderCommand constructor",
)

// AssignOrderCommand requests that an order be assigned to an agent. The
// handler commits the assignment with a conditional write so at most one of
// several concurrent attempts on the same order succeeds.
type AssignOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	agentID kernel.UUID
	at      time.Time

	guard guard.ConstructorGuard
}

// NewAssignOrderCommand creates a validated assignment command.
func NewAssignOrderCommand(orderID, agentID kernel.UUID, at time.Time) (AssignOrderCommand, error) {
	cmd := AssignOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setAgentID(agentID),
	); err != nil {
		return AssignOrderCommand{}, err
	}

	cmd.at = at
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c AssignOrderCommand) Validate() error {
	return c.guard.Validate(ErrAssignOrderCommandIsNotConstructed)
}

// OrderID returns the order to assign.
func (c AssignOrderCommand) OrderID() kernel.UUID { return c.orderID }

// AgentID returns the agent claiming the order.
func (c AssignOrderCommand) AgentID() kernel.UUID { return c.agentID }

// At returns the assignment timestamp.
func (c AssignOrderCommand) At() time.Time { return c.at }

func (c *AssignOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *AssignOrderCommand) setAgentID(agentID kernel.UUID) error {
	if err := agentID.Validate(); err != nil {
		return err
	}

	c.agentID = agentID
	return nil
}
