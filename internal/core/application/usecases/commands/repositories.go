// Package commands contains the write-side business operations of the
// coordination core. Every command follows the same shape: a validated
// command object, a handler holding its collaborators, and transaction
// management through narrow unit-of-work interfaces.
package commands

import (
	"context"

	"dispatch/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// Handlers depend on the narrowest interface that covers the aggregates they
// touch.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to the order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// AgentRepoFactory provides access to the agent repository within a transaction.
	AgentRepoFactory interface {
		AgentRepository() ports.AgentRepository
	}

	// ConfirmationRepoFactory provides access to the confirmation repository
	// within a transaction.
	ConfirmationRepoFactory interface {
		ConfirmationRepository() ports.ConfirmationRepository
	}

	// OrderUoW manages transactions for order-only operations.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// AssignmentUoW manages transactions that touch both orders and agents,
	// used when assignment must check agent eligibility.
	AssignmentUoW interface {
		TxManager
		OrderRepoFactory
		AgentRepoFactory
	}

	// AssignmentUoWFactory creates new assignment unit of work instances.
	AssignmentUoWFactory interface {
		Create() AssignmentUoW
	}

	// ConfirmationUoW manages the delivery confirmation transaction: the
	// confirmation record, the order stamp, and the terminal transition
	// commit together or not at all.
	ConfirmationUoW interface {
		TxManager
		OrderRepoFactory
		ConfirmationRepoFactory
	}

	// ConfirmationUoWFactory creates new confirmation unit of work instances.
	ConfirmationUoWFactory interface {
		Create() ConfirmationUoW
	}
)
