package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/confirmation"
	"dispatch/internal/core/domain/model/order"
)

// ErrCodeRequesterNotAllowed is returned when someone other than the order's
// buyer or an admin requests a hand-off code. Agents never see the code.
var ErrCodeRequesterNotAllowed = errors.New("only the order's buyer or an admin may request hand-off codes")

// IssueDeliveryCodeCommandHandler issues the 6-digit door hand-off code. A
// code is generated once per order; later requests return the stored code so
// the buyer can re-fetch it at the door.
type IssueDeliveryCodeCommandHandler struct {
	uowFactory OrderUoWFactory
}

// NewIssueDeliveryCodeCommandHandler creates a handler for code issuance.
func NewIssueDeliveryCodeCommandHandler(uowFactory OrderUoWFactory) IssueDeliveryCodeCommandHandler {
	return IssueDeliveryCodeCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle returns the order's delivery code, generating and persisting it on
// first request. Settled orders no longer issue codes.
func (h IssueDeliveryCodeCommandHandler) Handle(ctx context.Context, command IssueDeliveryCodeCommand) (string, error) {
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

	if code := ord.DeliveryCode(); code != "" {
		return code, nil
	}

	code := confirmation.GenerateDeliveryCode()
	if err = ord.SetDeliveryCode(code); err != nil {
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
