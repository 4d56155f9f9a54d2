package commands

import (
	"context"
	"errors"
)

// ErrAgentNotEligible is returned when the claiming agent is unavailable,
// unverified, or of the wrong class for the order.
var ErrAgentNotEligible = errors.New("agent is not eligible for this order")

// AssignOrderCommandHandler assigns an order to a claiming agent. Eligibility
// is checked against the agent record, then the assignment is committed with
// the repository's conditional write so concurrent claims on the same order
// resolve to exactly one winner.
type AssignOrderCommandHandler struct {
	uowFactory AssignmentUoWFactory
}

// NewAssignOrderCommandHandler creates a handler for order assignment.
func NewAssignOrderCommandHandler(uowFactory AssignmentUoWFactory) AssignOrderCommandHandler {
	return AssignOrderCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the assignment. Returns order.ErrAlreadyAssigned when the
// order was claimed first by someone else, ErrAgentNotEligible when the agent
// cannot serve the order's class.
func (h AssignOrderCommandHandler) Handle(ctx context.Context, command AssignOrderCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	agentRepo := uow.AgentRepository()

	ord, err := orderRepo.Get(ctx, command.OrderID())
	if err != nil {
		return err
	}

	claimant, err := agentRepo.Get(ctx, command.AgentID())
	if err != nil {
		return err
	}
	if !claimant.IsMatchable(ord.Class()) {
		return ErrAgentNotEligible
	}

	// Domain check first, then the conditional write that is authoritative
	// under concurrency.
	if err = ord.Assign(command.AgentID(), command.At()); err != nil {
		return err
	}
	if err = orderRepo.Assign(ctx, command.OrderID(), command.AgentID()); err != nil {
		return err
	}

	for _, entry := range ord.History() {
		if err = orderRepo.AppendHistory(ctx, entry); err != nil {
			return err
		}
	}

	return uow.Commit(ctx)
}
