package kernel

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Role identifies the kind of authenticated caller acting on the system.
type Role string

const (
	// RoleBuyer is a customer awaiting a delivery.
	RoleBuyer Role = "buyer"
	// RoleAgent is a mobile delivery or pickup worker.
	RoleAgent Role = "agent"
	// RoleAdmin is an operator with override privileges.
	RoleAdmin Role = "admin"
)

// Validate checks the role is one of the known values.
func (r Role) Validate() error {
	switch r {
	case RoleBuyer, RoleAgent, RoleAdmin:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not a valid role", string(r)))
	}
}

// Actor is the already-authenticated identity attached to every operation.
// Token verification happens out of band; the core only consumes the result.
type Actor struct {
	ID   UUID
	Role Role
}

// NewActor builds an Actor, validating both the identity and the role.
func NewActor(id UUID, role Role) (Actor, error) {
	if err := id.Validate(); err != nil {
		return Actor{}, err
	}
	if err := role.Validate(); err != nil {
		return Actor{}, err
	}
	return Actor{ID: id, Role: role}, nil
}

// Validate checks the actor carries a constructed identity and a known role.
func (a Actor) Validate() error {
	if err := a.ID.Validate(); err != nil {
		return err
	}
	return a.Role.Validate()
}

// IsAgent reports whether the actor acts as a delivery agent.
func (a Actor) IsAgent() bool {
	return a.Role == RoleAgent
}

// IsAdmin reports whether the actor has operator privileges.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// DeliveryClass is the capability class of an agent, and symmetrically the
// delivery type of an order. The class determines the matching radius.
type DeliveryClass string

const (
	// ClassLocal is fast local door delivery; matched within 5 km.
	ClassLocal DeliveryClass = "local"
	// ClassStandard is standard pickup-site delivery; matched within 10 km.
	ClassStandard DeliveryClass = "standard"
)

// Validate checks the class is one of the known values.
func (c DeliveryClass) Validate() error {
	switch c {
	case ClassLocal, ClassStandard:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("deliveryClass",
			fmt.Errorf("%q is not a valid delivery class", string(c)))
	}
}

// RadiusKm returns the hard matching radius for the class. Candidates outside
// this radius must never appear in match results.
func (c DeliveryClass) RadiusKm() float64 {
	switch c {
	case ClassLocal:
		return 5.0
	case ClassStandard:
		return 10.0
	default:
		return 0
	}
}
