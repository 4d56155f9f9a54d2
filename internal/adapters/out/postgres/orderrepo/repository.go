package orderrepo

import (
	"context"
	"errors"
	"math"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// kmPerDegreeLat converts the class radius into a latitude bounding box for
// the pre-filter query. Longitude degrees shrink with cos(lat).
const kmPerDegreeLat = 111.195

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker records aggregates touched within the unit of work.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new order to the database.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
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

// Update saves the mutable fields of an existing order. Select forces nil and
// zero fields through so clearing an assignment or a code persists.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ?", dto.ID).
		Select("agent_id", "status", "delivery_code", "pickup_code",
			"confirmed_at", "confirmed_lat", "confirmed_lng", "proof_ref").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetUnassignedNear returns unassigned PaymentConfirmed orders of the class
// whose pickup point falls inside a bounding box around center, newest first.
// The box over-approximates the circle; callers apply the exact cutoff.
func (r *GormOrderRepository) GetUnassignedNear(
	ctx context.Context,
	center kernel.GeoPoint,
	class kernel.DeliveryClass,
	radiusKm float64,
	limit int,
) ([]*order.Order, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if err := class.Validate(); err != nil {
		return nil, err
	}

	latDelta := radiusKm / kmPerDegreeLat
	lngScale := math.Cos(center.Latitude() * math.Pi / 180)
	if lngScale < 0.01 {
		lngScale = 0.01 // polar degenerate case, box covers everything
	}
	lngDelta := radiusKm / (kmPerDegreeLat * lngScale)

	query := r.db.WithContext(ctx).
		Where("status = ? AND agent_id IS NULL AND class = ?", order.PaymentConfirmed, string(class)).
		Where("pickup_lat BETWEEN ? AND ?", center.Latitude()-latDelta, center.Latitude()+latDelta).
		Where("pickup_lng BETWEEN ? AND ?", center.Longitude()-lngDelta, center.Longitude()+lngDelta).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var dtos []OrderDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// Assign claims the order for the agent with a conditional write: the row
// must still be unassigned and in PaymentConfirmed. Zero affected rows means
// another claim won and order.ErrAlreadyAssigned is returned.
func (r *GormOrderRepository) Assign(ctx context.Context, orderID, agentID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	if err := agentID.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ? AND agent_id IS NULL AND status = ?", orderID.Bytes(), order.PaymentConfirmed).
		Updates(map[string]any{
			"agent_id": agentID.Bytes(),
			"status":   int(order.AssignedToAgent),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return order.ErrAlreadyAssigned
	}
	return nil
}

// AppendHistory persists one committed tracking-history entry.
func (r *GormOrderRepository) AppendHistory(ctx context.Context, entry order.HistoryEntry) error {
	dto := historyFromDomain(entry)
	return r.db.WithContext(ctx).Create(&dto).Error
}
