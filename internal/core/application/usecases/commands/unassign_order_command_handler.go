package commands

import (
	"context"
)

// UnassignOrderCommandHandler clears an order's assignment on behalf of an
// operator. The aggregate enforces that only admins may do this and that
// settled orders are refused.
type UnassignOrderCommandHandler struct {
	uowFactory OrderUoWFactory
}

// NewUnassignOrderCommandHandler creates a handler for operator unassignment.
func NewUnassignOrderCommandHandler(uowFactory OrderUoWFactory) UnassignOrderCommandHandler {
	return UnassignOrderCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle clears the assignment and returns the order to the claimable pool.
func (h UnassignOrderCommandHandler) Handle(ctx context.Context, command UnassignOrderCommand) error {
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

	ord, err := orderRepo.Get(ctx, command.OrderID())
	if err != nil {
		return err
	}

	if err = ord.ClearAssignment(command.Actor(), command.At()); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, ord); err != nil {
		return err
	}

	history := ord.History()
	if len(history) > 0 {
		if err = orderRepo.AppendHistory(ctx, history[len(history)-1]); err != nil {
			return err
		}
	}

	return uow.Commit(ctx)
}
