package agent

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// Domain errors for agent operations.
var (
	// ErrNameIsRequired is returned when creating an agent without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
	// ErrAgentIsNotConstructed is returned when using an improperly
	// initialized Agent.
	ErrAgentIsNotConstructed = errors.New("Agent must be created via NewAgent or RestoreAgent constructor")
)

// Agent is the aggregate root for a mobile delivery or pickup worker. Its
// capability class decides which orders it can be matched to and within what
// radius; availability and verification gate whether it is matchable at all.
type Agent struct {
	id        kernel.UUID
	name      string
	class     kernel.DeliveryClass
	available bool
	verified  bool
	guard     guard.ConstructorGuard
}

// NewAgent creates a verified-pending, unavailable agent of the given class.
// Verification and availability are switched on through the dedicated
// mutators once the upstream onboarding flow clears the agent.
func NewAgent(id kernel.UUID, name string, class kernel.DeliveryClass) (*Agent, error) {
	a := &Agent{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		a.setID(id),
		a.setName(name),
		a.setClass(class),
	); err != nil {
		return nil, err
	}

	return a, nil
}

// RestoreAgent reconstructs an agent from persistence with its stored
// availability and verification flags.
func RestoreAgent(id kernel.UUID, name string, class kernel.DeliveryClass, available, verified bool) (*Agent, error) {
	a, err := NewAgent(id, name, class)
	if err != nil {
		return nil, err
	}
	a.available = available
	a.verified = verified
	return a, nil
}

// Validate ensures the agent was built through a constructor.
func (a *Agent) Validate() error {
	if a == nil {
		return ErrAgentIsNotConstructed
	}
	return a.guard.Validate(ErrAgentIsNotConstructed)
}

// ID returns the agent's unique identifier.
func (a *Agent) ID() kernel.UUID { return a.id }

// Name returns the agent's display name.
func (a *Agent) Name() string { return a.name }

// Class returns the agent's capability class.
func (a *Agent) Class() kernel.DeliveryClass { return a.class }

// IsAvailable reports whether the agent accepts new orders.
func (a *Agent) IsAvailable() bool { return a.available }

// IsVerified reports whether the agent passed onboarding verification.
func (a *Agent) IsVerified() bool { return a.verified }

// SetAvailable toggles whether the agent accepts new orders.
func (a *Agent) SetAvailable(available bool) {
	a.available = available
}

// MarkVerified records that onboarding verification cleared the agent.
func (a *Agent) MarkVerified() {
	a.verified = true
}

// IsMatchable reports whether the agent may appear in matching results for
// the given class: available, verified, and of the matching class.
func (a *Agent) IsMatchable(class kernel.DeliveryClass) bool {
	return a.available && a.verified && a.class == class
}

func (a *Agent) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	a.id = id
	return nil
}

func (a *Agent) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}
	a.name = name
	return nil
}

func (a *Agent) setClass(class kernel.DeliveryClass) error {
	if err := class.Validate(); err != nil {
		return err
	}
	a.class = class
	return nil
}
