package commands

import (
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// authorizeCodeRequester allows the order's buyer and admins to request
// hand-off codes. Agents are rejected: they receive codes out of band from
// the buyer, never from the system.
func authorizeCodeRequester(ord *order.Order, actor kernel.Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == kernel.RoleBuyer && actor.ID.IsEqual(ord.BuyerID()) {
		return nil
	}
	return ErrCodeRequesterNotAllowed
}
