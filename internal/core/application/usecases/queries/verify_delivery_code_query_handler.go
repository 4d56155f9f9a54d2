package queries

import (
	"context"

	"dispatch/internal/core/domain/model/confirmation"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

// VerifyDeliveryCodeQueryHandler checks a submitted code against the stored
// one without consuming it. Only the assigned agent may verify; a settled
// order rejects verification so codes cannot be probed after the fact.
type VerifyDeliveryCodeQueryHandler struct {
	orderRepo ports.OrderRepository
}

// NewVerifyDeliveryCodeQueryHandler creates a handler for code verification.
func NewVerifyDeliveryCodeQueryHandler(orderRepo ports.OrderRepository) VerifyDeliveryCodeQueryHandler {
	return VerifyDeliveryCodeQueryHandler{orderRepo: orderRepo}
}

// Handle returns nil when the code matches. Returns
// confirmation.ErrInvalidCode on a mismatch, order.ErrNotAssigned for a
// foreign agent, and order.AlreadyTerminalError on a settled order. The
// stored code never appears in any error.
func (h VerifyDeliveryCodeQueryHandler) Handle(ctx context.Context, query VerifyDeliveryCodeQuery) error {
	if err := query.Validate(); err != nil {
		return err
	}

	ord, err := h.orderRepo.Get(ctx, query.OrderID())
	if err != nil {
		return err
	}

	if ord.Agent() == nil || !ord.Agent().IsEqual(query.AgentID()) {
		return order.ErrNotAssigned
	}
	if ord.Status().IsSettled() {
		return order.NewAlreadyTerminalError(ord.Status())
	}

	stored := ord.DeliveryCode()
	if ord.Status() == order.ReadyForPickup {
		stored = ord.PickupCode()
	}
	return confirmation.MatchCode(stored, query.SubmittedCode())
}
