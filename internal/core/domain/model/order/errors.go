package order

import (
	"errors"
	"fmt"
)

// Sentinel errors for order lifecycle violations. Handlers classify rejections
// with errors.Is and return them to the caller as structured rejections; they
// are never fatal.
var (
	// ErrInvalidTransition means the target status is not a direct successor
	// of the current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrAlreadyTerminal means the order reached a state that accepts no
	// further changes.
	ErrAlreadyTerminal = errors.New("order is in a terminal state")

	// ErrAlreadyAssigned means an assignment was attempted on an order that
	// already has an agent or has left the PaymentConfirmed state.
	ErrAlreadyAssigned = errors.New("order is already assigned")

	// ErrNotAssigned means an agent actor tried to act on an order it is not
	// assigned to.
	ErrNotAssigned = errors.New("agent is not assigned to this order")
)

// InvalidTransitionError reports an attempt to skip stages in the lifecycle.
type InvalidTransitionError struct {
	From Status
	To   Status
}

// NewInvalidTransitionError creates an InvalidTransitionError for the pair.
func NewInvalidTransitionError(from, to Status) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// AlreadyTerminalError reports an operation on a settled or terminal order.
type AlreadyTerminalError struct {
	Current Status
}

// NewAlreadyTerminalError creates an AlreadyTerminalError for the state.
func NewAlreadyTerminalError(current Status) *AlreadyTerminalError {
	return &AlreadyTerminalError{Current: current}
}

func (e *AlreadyTerminalError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAlreadyTerminal, e.Current)
}

func (e *AlreadyTerminalError) Unwrap() error {
	return ErrAlreadyTerminal
}
