package ports

import (
	"context"

	"dispatch/internal/core/domain/model/confirmation"
	"dispatch/internal/core/domain/model/kernel"
)

// ConfirmationRepository persists delivery confirmation records.
type ConfirmationRepository interface {
	// Add persists a new confirmation record.
	Add(ctx context.Context, aggregate *confirmation.DeliveryConfirmation) error

	// GetByOrder retrieves the confirmation recorded for an order, or
	// errs.ObjectNotFoundError when none exists.
	GetByOrder(ctx context.Context, orderID kernel.UUID) (*confirmation.DeliveryConfirmation, error)
}
