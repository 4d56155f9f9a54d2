package confirmationrepo

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/confirmation"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormConfirmationRepository implements ports.ConfirmationRepository using GORM.
type GormConfirmationRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormConfirmationRepository creates a new GORM confirmation repository.
func NewGormConfirmationRepository(db *gorm.DB, tracker aggregateTracker) *GormConfirmationRepository {
	return &GormConfirmationRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add persists a new confirmation record. The unique index on order_id makes
// a second confirmation of the same order fail at the database even if every
// application-level guard is raced past.
func (r *GormConfirmationRepository) Add(ctx context.Context, aggregate *confirmation.DeliveryConfirmation) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// GetByOrder retrieves the confirmation recorded for an order.
func (r *GormConfirmationRepository) GetByOrder(
	ctx context.Context,
	orderID kernel.UUID,
) (*confirmation.DeliveryConfirmation, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dto ConfirmationDTO
	if err := r.db.WithContext(ctx).First(&dto, "order_id = ?", orderID.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("confirmation", orderID.String())
		}
		return nil, err
	}

	return toDomain(dto)
}
