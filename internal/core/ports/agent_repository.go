package ports

import (
	"context"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/kernel"
)

// AgentRepository is the read interface onto the persistence gateway for
// agent records. Agent onboarding happens upstream; this core only reads
// eligibility data and toggles availability.
type AgentRepository interface {
	// Add persists a new agent record.
	Add(ctx context.Context, aggregate *agent.Agent) error

	// Update persists changes to an existing agent record.
	Update(ctx context.Context, aggregate *agent.Agent) error

	// Get retrieves an agent by ID, or errs.ObjectNotFoundError.
	Get(ctx context.Context, id kernel.UUID) (*agent.Agent, error)

	// ListAvailable returns available, verified agents of the class.
	ListAvailable(ctx context.Context, class kernel.DeliveryClass) ([]*agent.Agent, error)
}
