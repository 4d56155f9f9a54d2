// Package order implements the Order aggregate and its lifecycle state
// machine.
//
// The package includes:
//   - Order: the aggregate root owning status, assignment, verification
//     codes, confirmation stamps, and tracking history
//   - Status: a closed enum with a transition table; no stage skipping,
//     Cancelled reachable from any non-terminal state
//   - HistoryEntry: one committed lifecycle step, appended monotonically
//
// Key business rules:
//   - at most one assigned agent at a time; assignment is only legal from
//     PaymentConfirmed and must be committed with a conditional write
//   - agent actors may only act on orders they are assigned to
//   - Delivered settles the order: code verification stops being accepted and
//     only the Completed acknowledgment remains
//   - Completed and Cancelled accept nothing further
package order
