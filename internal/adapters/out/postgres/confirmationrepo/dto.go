// Package confirmationrepo persists delivery confirmation records, the audit
// trail of who confirmed which order with which code and where.
package confirmationrepo

import (
	"time"

	"dispatch/internal/core/domain/model/confirmation"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// ConfirmationDTO is the database row for a confirmation record.
type ConfirmationDTO struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID  uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	AgentID  uuid.UUID `gorm:"type:uuid;index"`
	CodeUsed string    `gorm:"type:varchar(10)"`
	ProofRef string
	Notes    string
	Lat      float64 `gorm:"type:double precision"`
	Lng      float64 `gorm:"type:double precision"`
	Status   string  `gorm:"type:varchar(16)"`

	CreatedAt time.Time
}

// TableName overrides GORM's default naming to use "delivery_confirmations".
func (ConfirmationDTO) TableName() string {
	return "delivery_confirmations"
}

func fromDomain(aggregate *confirmation.DeliveryConfirmation) ConfirmationDTO {
	return ConfirmationDTO{
		ID:        aggregate.ID().Bytes(),
		OrderID:   aggregate.OrderID().Bytes(),
		AgentID:   aggregate.AgentID().Bytes(),
		CodeUsed:  aggregate.CodeUsed(),
		ProofRef:  aggregate.ProofRef(),
		Notes:     aggregate.Notes(),
		Lat:       aggregate.Location().Latitude(),
		Lng:       aggregate.Location().Longitude(),
		Status:    string(aggregate.Status()),
		CreatedAt: aggregate.CreatedAt(),
	}
}

func toDomain(dto ConfirmationDTO) (*confirmation.DeliveryConfirmation, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	agentID, err := kernel.UUIDFromBytes(dto.AgentID[:])
	if err != nil {
		return nil, err
	}

	location, err := kernel.NewGeoPoint(dto.Lat, dto.Lng)
	if err != nil {
		return nil, err
	}

	return confirmation.RestoreDeliveryConfirmation(
		id, orderID, agentID,
		dto.CodeUsed, dto.ProofRef, dto.Notes,
		location,
		confirmation.Status(dto.Status),
		dto.CreatedAt,
	)
}
