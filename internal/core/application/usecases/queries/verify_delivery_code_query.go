package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrVerifyDeliveryCodeQueryIsNotConstructed = errors.New(
	"VerifyDeliveryCodeQuery must be created via NewVerifyDeliveryCodeQuery constructor",
)

// VerifyDeliveryCodeQuery checks a hand-off code before the agent commits to
// the confirmation. Verification never consumes the code and never mutates
// the order.
type VerifyDeliveryCodeQuery struct { //nolint:recvcheck //using for validation
	orderID       kernel.UUID
	agentID       kernel.UUID
	submittedCode string

	guard guard.ConstructorGuard
}

// NewVerifyDeliveryCodeQuery creates a validated verification query.
func NewVerifyDeliveryCodeQuery(orderID, agentID kernel.UUID, submittedCode string) (VerifyDeliveryCodeQuery, error) {
	q := VerifyDeliveryCodeQuery{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(orderID.Validate(), agentID.Validate()); err != nil {
		return VerifyDeliveryCodeQuery{}, err
	}
	if submittedCode == "" {
		return VerifyDeliveryCodeQuery{}, errs.NewValueIsRequiredError("submittedCode")
	}

	q.orderID = orderID
	q.agentID = agentID
	q.submittedCode = submittedCode
	return q, nil
}

// Validate ensures the query was created through the constructor.
func (q VerifyDeliveryCodeQuery) Validate() error {
	return q.guard.Validate(ErrVerifyDeliveryCodeQueryIsNotConstructed)
}

// OrderID returns the order being verified.
func (q VerifyDeliveryCodeQuery) OrderID() kernel.UUID { return q.orderID }

// AgentID returns the verifying agent.
func (q VerifyDeliveryCodeQuery) AgentID() kernel.UUID { return q.agentID }

// SubmittedCode returns the code the agent typed in.
func (q VerifyDeliveryCodeQuery) SubmittedCode() string { return q.submittedCode }
