package commands

import (
	"context"
)

// TransitionOrderCommandHandler advances an order one lifecycle step. The
// aggregate enforces the transition table and actor authorization; the
// handler persists the new status and the committed history entry in one
// transaction.
type TransitionOrderCommandHandler struct {
	uowFactory OrderUoWFactory
}

// NewTransitionOrderCommandHandler creates a handler for lifecycle transitions.
func NewTransitionOrderCommandHandler(uowFactory OrderUoWFactory) TransitionOrderCommandHandler {
	return TransitionOrderCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the transition. Domain errors surface unchanged:
// order.InvalidTransitionError for an illegal step, order.AlreadyTerminalError
// when the order is settled, order.ErrNotAssigned when an agent acts on an
// order that is not theirs.
func (h TransitionOrderCommandHandler) Handle(ctx context.Context, command TransitionOrderCommand) error {
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

	entry, err := ord.TransitionTo(
		command.Target(),
		command.Actor(),
		command.Notes(),
		command.Location(),
		command.At(),
	)
	if err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, ord); err != nil {
		return err
	}
	if err = orderRepo.AppendHistory(ctx, entry); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
