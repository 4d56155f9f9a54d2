// Package agentrepo persists agent records: identity, capability class, and
// the availability and verification flags that gate matching.
package agentrepo

import (
	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// AgentDTO is the database row for an agent record.
type AgentDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string
	Class     string `gorm:"type:varchar(16);index"`
	Available bool   `gorm:"index"`
	Verified  bool
}

// TableName overrides GORM's default naming to use "agents".
func (AgentDTO) TableName() string {
	return "agents"
}

func fromDomain(aggregate *agent.Agent) AgentDTO {
	return AgentDTO{
		ID:        aggregate.ID().Bytes(),
		Name:      aggregate.Name(),
		Class:     string(aggregate.Class()),
		Available: aggregate.IsAvailable(),
		Verified:  aggregate.IsVerified(),
	}
}

func toDomain(dto AgentDTO) (*agent.Agent, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	return agent.RestoreAgent(id, dto.Name, kernel.DeliveryClass(dto.Class), dto.Available, dto.Verified)
}
