package commands

import (
	"context"

	"dispatch/internal/core/domain/model/confirmation"
	"dispatch/internal/core/domain/model/order"
)

// IssuePickupCodeCommandHandler issues the 10-digit pickup-site code,
// idempotently like the delivery code.
type IssuePickupCodeCommandHandler struct {
	uowFactory OrderUoWFactory
}

// NewIssuePickupCodeCommandHandler creates a handler for pickup-code issuance.
func NewIssuePickupCodeCommandHandler(uowFactory OrderUoWFactory) IssuePickupCodeCommandHandler {
	return IssuePickupCodeCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle returns the order's pickup code, generating and persisting it on
// first request.
func (h IssuePickupCodeCommandHandler) Handle(ctx context.Context, command IssuePickupCodeCommand) (string, error) {
	if err := command.Validate(); err != nil {
		return "", err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return "", err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()

	ord, err := orderRepo.Get(ctx, command.OrderID())
	if err != nil {
		return "", err
	}

	if err = authorizeCodeRequester(ord, command.Actor()); err != nil {
		return "", err
	}
	if ord.Status().IsSettled() {
		return "", order.NewAlreadyTerminalError(ord.Status())
	}

	if code := ord.PickupCode(); code != "" {
		return code, nil
	}

	code := confirmation.GeneratePickupCode()
	if err = ord.SetPickupCode(code); err != nil {
		return "", err
	}
	if err = orderRepo.Update(ctx, ord); err != nil {
		return "", err
	}
	if err = uow.Commit(ctx); err != nil {
		return "", err
	}

	return code, nil
}
