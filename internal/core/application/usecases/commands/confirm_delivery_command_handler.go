package commands

import (
	"context"

	"dispatch/internal/core/domain/model/confirmation"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// ConfirmDeliveryCommandHandler settles a delivery: it matches the submitted
// code against the stored one, records the confirmation, stamps the order,
// and moves it to Delivered in a single transaction. A wrong code rolls the
// whole attempt back, leaving the order untouched.
//
// Orders awaiting a site pickup are confirmed against the 10-digit pickup
// code; all other deliveries use the 6-digit door code.
type ConfirmDeliveryCommandHandler struct {
	uowFactory ConfirmationUoWFactory
}

// NewConfirmDeliveryCommandHandler creates a handler for delivery confirmation.
func NewConfirmDeliveryCommandHandler(uowFactory ConfirmationUoWFactory) ConfirmDeliveryCommandHandler {
	return ConfirmDeliveryCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the confirmation. Returns confirmation.ErrInvalidCode on a
// mismatch, order.ErrNotAssigned when the agent is not the assigned one, and
// order.AlreadyTerminalError when the order is already settled so a code can
// never be replayed.
func (h ConfirmDeliveryCommandHandler) Handle(ctx context.Context, command ConfirmDeliveryCommand) error {
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
	confirmationRepo := uow.ConfirmationRepository()

	ord, err := orderRepo.Get(ctx, command.OrderID())
	if err != nil {
		return err
	}

	if ord.Agent() == nil || !ord.Agent().IsEqual(command.AgentID()) {
		return order.ErrNotAssigned
	}
	if ord.Status().IsSettled() {
		return order.NewAlreadyTerminalError(ord.Status())
	}

	stored := ord.DeliveryCode()
	if ord.Status() == order.ReadyForPickup {
		stored = ord.PickupCode()
	}
	if err = confirmation.MatchCode(stored, command.SubmittedCode()); err != nil {
		return err
	}

	record, err := confirmation.NewDeliveryConfirmation(
		kernel.NewUUID(),
		command.OrderID(),
		command.AgentID(),
		command.SubmittedCode(),
		command.ProofRef(),
		command.Notes(),
		command.Location(),
		command.At(),
	)
	if err != nil {
		return err
	}
	if err = record.Approve(); err != nil {
		return err
	}

	if err = ord.StampConfirmation(command.At(), command.Location(), command.ProofRef()); err != nil {
		return err
	}

	actor, err := kernel.NewActor(command.AgentID(), kernel.RoleAgent)
	if err != nil {
		return err
	}
	loc := command.Location()
	entry, err := ord.TransitionTo(order.Delivered, actor, command.Notes(), &loc, command.At())
	if err != nil {
		return err
	}

	if err = confirmationRepo.Add(ctx, record); err != nil {
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
