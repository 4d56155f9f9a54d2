// Package orderrepo persists order aggregates and their tracking history.
// It maps between the domain model and the relational schema, keeping the
// conditional-assignment write here so the at-most-one-agent invariant is
// enforced by the database, not by application memory.
package orderrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is the database row for an order aggregate. Pickup and dropoff
// coordinates are embedded with prefixes; the geospatial query filters on the
// pickup pair, which carries a composite index.
type OrderDTO struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BuyerID  uuid.UUID  `gorm:"type:uuid;index"`
	SellerID uuid.UUID  `gorm:"type:uuid"`
	AgentID  *uuid.UUID `gorm:"type:uuid;index"`

	Pickup  GeoPointDTO `gorm:"embedded;embeddedPrefix:pickup_"`
	Dropoff GeoPointDTO `gorm:"embedded;embeddedPrefix:dropoff_"`

	Class  string `gorm:"type:varchar(16);index"`
	Status int    `gorm:"index"`

	DeliveryCode string `gorm:"type:varchar(6)"`
	PickupCode   string `gorm:"type:varchar(10)"`

	ConfirmedAt  *time.Time
	ConfirmedLat *float64
	ConfirmedLng *float64
	ProofRef     string

	CreatedAt time.Time `gorm:"index"`
}

// TableName overrides GORM's default naming to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

// GeoPointDTO is an embedded coordinate pair in decimal degrees.
type GeoPointDTO struct {
	Lat float64 `gorm:"type:double precision"`
	Lng float64 `gorm:"type:double precision"`
}

// HistoryEntryDTO is one tracking-history row. Rows are append-only; the
// serial primary key preserves commit order per order.
type HistoryEntryDTO struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	OrderID    uuid.UUID `gorm:"type:uuid;index"`
	Status     int
	ActorID    uuid.UUID `gorm:"type:uuid"`
	ActorRole  string    `gorm:"type:varchar(16)"`
	Notes      string
	Lat        *float64
	Lng        *float64
	RecordedAt time.Time
}

// TableName overrides GORM's default naming to use "order_history".
func (HistoryEntryDTO) TableName() string {
	return "order_history"
}

func fromDomain(aggregate *order.Order) OrderDTO {
	var agentID *uuid.UUID
	if id := aggregate.Agent(); id != nil {
		raw := id.Bytes()
		agentID = &raw
	}

	var confirmedLat, confirmedLng *float64
	if loc := aggregate.ConfirmedLocation(); loc != nil {
		lat, lng := loc.Latitude(), loc.Longitude()
		confirmedLat, confirmedLng = &lat, &lng
	}

	return OrderDTO{
		ID:       aggregate.ID().Bytes(),
		BuyerID:  aggregate.BuyerID().Bytes(),
		SellerID: aggregate.SellerID().Bytes(),
		AgentID:  agentID,
		Pickup: GeoPointDTO{
			Lat: aggregate.Pickup().Latitude(),
			Lng: aggregate.Pickup().Longitude(),
		},
		Dropoff: GeoPointDTO{
			Lat: aggregate.Dropoff().Latitude(),
			Lng: aggregate.Dropoff().Longitude(),
		},
		Class:        string(aggregate.Class()),
		Status:       int(aggregate.Status()),
		DeliveryCode: aggregate.DeliveryCode(),
		PickupCode:   aggregate.PickupCode(),
		ConfirmedAt:  aggregate.ConfirmedAt(),
		ConfirmedLat: confirmedLat,
		ConfirmedLng: confirmedLng,
		ProofRef:     aggregate.ProofRef(),
		CreatedAt:    aggregate.CreatedAt(),
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	buyerID, err := kernel.UUIDFromBytes(dto.BuyerID[:])
	if err != nil {
		return nil, err
	}
	sellerID, err := kernel.UUIDFromBytes(dto.SellerID[:])
	if err != nil {
		return nil, err
	}

	var agentID *kernel.UUID
	if dto.AgentID != nil {
		aID, agentErr := kernel.UUIDFromBytes((*dto.AgentID)[:])
		if agentErr != nil {
			return nil, agentErr
		}
		agentID = &aID
	}

	pickup, err := kernel.NewGeoPoint(dto.Pickup.Lat, dto.Pickup.Lng)
	if err != nil {
		return nil, err
	}
	dropoff, err := kernel.NewGeoPoint(dto.Dropoff.Lat, dto.Dropoff.Lng)
	if err != nil {
		return nil, err
	}

	var confirmedLocation *kernel.GeoPoint
	if dto.ConfirmedLat != nil && dto.ConfirmedLng != nil {
		loc, locErr := kernel.NewGeoPoint(*dto.ConfirmedLat, *dto.ConfirmedLng)
		if locErr != nil {
			return nil, locErr
		}
		confirmedLocation = &loc
	}

	return order.RestoreOrder(
		id, buyerID, sellerID,
		pickup, dropoff,
		kernel.DeliveryClass(dto.Class),
		order.Status(dto.Status),
		agentID,
		dto.DeliveryCode, dto.PickupCode,
		dto.ConfirmedAt, confirmedLocation, dto.ProofRef,
		dto.CreatedAt,
	)
}

func historyFromDomain(entry order.HistoryEntry) HistoryEntryDTO {
	var lat, lng *float64
	if entry.Location != nil {
		l, g := entry.Location.Latitude(), entry.Location.Longitude()
		lat, lng = &l, &g
	}

	return HistoryEntryDTO{
		OrderID:    entry.OrderID.Bytes(),
		Status:     int(entry.Status),
		ActorID:    entry.Actor.ID.Bytes(),
		ActorRole:  string(entry.Actor.Role),
		Notes:      entry.Notes,
		Lat:        lat,
		Lng:        lng,
		RecordedAt: entry.RecordedAt,
	}
}
