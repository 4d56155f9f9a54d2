package order_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T) *order.Order {
	t.Helper()
	pickup, err := kernel.NewGeoPoint(-1.951, 30.061)
	require.NoError(t, err)
	dropoff, err := kernel.NewGeoPoint(-1.96, 30.07)
	require.NoError(t, err)

	o, err := order.NewOrder(
		kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
		pickup, dropoff, kernel.ClassLocal, time.Now(),
	)
	require.NoError(t, err)
	return o
}

func agentActor(id kernel.UUID) kernel.Actor {
	return kernel.Actor{ID: id, Role: kernel.RoleAgent}
}

func TestNewOrder(t *testing.T) {
	t.Run("starts unassigned in PaymentConfirmed", func(t *testing.T) {
		o := newTestOrder(t)

		assert.Equal(t, order.PaymentConfirmed, o.Status())
		assert.Nil(t, o.Agent())
		assert.Empty(t, o.DeliveryCode())
		assert.Nil(t, o.ConfirmedAt())
	})

	t.Run("invalid ids rejected", func(t *testing.T) {
		pickup, _ := kernel.NewGeoPoint(0, 0)
		_, err := order.NewOrder(kernel.UUID{}, kernel.NewUUID(), kernel.NewUUID(),
			pickup, pickup, kernel.ClassLocal, time.Now())
		require.Error(t, err)
	})

	t.Run("zero value fails validation", func(t *testing.T) {
		var o order.Order
		require.ErrorIs(t, o.Validate(), order.ErrOrderIsNotConstructed)
	})
}

func TestOrderAssign(t *testing.T) {
	t.Run("assigns from PaymentConfirmed", func(t *testing.T) {
		o := newTestOrder(t)
		agentID := kernel.NewUUID()

		require.NoError(t, o.Assign(agentID, time.Now()))

		assert.Equal(t, order.AssignedToAgent, o.Status())
		require.NotNil(t, o.Agent())
		assert.True(t, o.Agent().IsEqual(agentID))
		require.Len(t, o.History(), 1)
		assert.Equal(t, order.AssignedToAgent, o.History()[0].Status)
	})

	t.Run("second assignment rejected", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.Assign(kernel.NewUUID(), time.Now()))

		err := o.Assign(kernel.NewUUID(), time.Now())

		require.ErrorIs(t, err, order.ErrAlreadyAssigned)
	})

	t.Run("invalid agent id rejected", func(t *testing.T) {
		o := newTestOrder(t)
		require.Error(t, o.Assign(kernel.UUID{}, time.Now()))
	})
}

func TestOrderTransitionTo(t *testing.T) {
	t.Run("assigned agent can progress", func(t *testing.T) {
		o := newTestOrder(t)
		agentID := kernel.NewUUID()
		require.NoError(t, o.Assign(agentID, time.Now()))

		entry, err := o.TransitionTo(order.AgentEnRouteToSeller, agentActor(agentID), "heading out", nil, time.Now())

		require.NoError(t, err)
		assert.Equal(t, order.AgentEnRouteToSeller, o.Status())
		assert.Equal(t, order.AgentEnRouteToSeller, entry.Status)
		assert.Equal(t, "heading out", entry.Notes)
	})

	t.Run("stage skipping rejected", func(t *testing.T) {
		o := newTestOrder(t)
		agentID := kernel.NewUUID()
		require.NoError(t, o.Assign(agentID, time.Now()))

		_, err := o.TransitionTo(order.PickedFromSeller, agentActor(agentID), "", nil, time.Now())

		require.ErrorIs(t, err, order.ErrInvalidTransition)
		assert.Equal(t, order.AssignedToAgent, o.Status())
	})

	t.Run("unassigned agent rejected", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.Assign(kernel.NewUUID(), time.Now()))

		_, err := o.TransitionTo(order.AgentEnRouteToSeller, agentActor(kernel.NewUUID()), "", nil, time.Now())

		require.ErrorIs(t, err, order.ErrNotAssigned)
	})

	t.Run("admin may cancel at any non-terminal stage", func(t *testing.T) {
		o := newTestOrder(t)
		agentID := kernel.NewUUID()
		require.NoError(t, o.Assign(agentID, time.Now()))
		admin := kernel.Actor{ID: kernel.NewUUID(), Role: kernel.RoleAdmin}

		_, err := o.TransitionTo(order.Cancelled, admin, "SLA breach", nil, time.Now())

		require.NoError(t, err)
		assert.Equal(t, order.Cancelled, o.Status())
	})

	t.Run("history is appended in commit order", func(t *testing.T) {
		o := newTestOrder(t)
		agentID := kernel.NewUUID()
		actor := agentActor(agentID)
		require.NoError(t, o.Assign(agentID, time.Now()))

		steps := []order.Status{
			order.AgentEnRouteToSeller, order.AgentAtSeller,
			order.PickedFromSeller, order.EnRouteToBuyer,
		}
		for _, s := range steps {
			_, err := o.TransitionTo(s, actor, "", nil, time.Now())
			require.NoError(t, err)
		}

		history := o.History()
		require.Len(t, history, len(steps)+1)
		for i, s := range steps {
			assert.Equal(t, s, history[i+1].Status)
		}
	})

	t.Run("admin may not cancel a delivered order", func(t *testing.T) {
		o := newTestOrder(t)
		agentID := kernel.NewUUID()
		actor := agentActor(agentID)
		require.NoError(t, o.Assign(agentID, time.Now()))
		for _, s := range []order.Status{
			order.AgentEnRouteToSeller, order.AgentAtSeller,
			order.PickedFromSeller, order.EnRouteToBuyer, order.Delivered,
		} {
			_, err := o.TransitionTo(s, actor, "", nil, time.Now())
			require.NoError(t, err)
		}
		admin := kernel.Actor{ID: kernel.NewUUID(), Role: kernel.RoleAdmin}

		_, err := o.TransitionTo(order.Cancelled, admin, "", nil, time.Now())

		require.ErrorIs(t, err, order.ErrAlreadyTerminal)
		assert.Equal(t, order.Delivered, o.Status())
	})

	t.Run("terminal order accepts nothing", func(t *testing.T) {
		o := newTestOrder(t)
		admin := kernel.Actor{ID: kernel.NewUUID(), Role: kernel.RoleAdmin}
		_, err := o.TransitionTo(order.Cancelled, admin, "", nil, time.Now())
		require.NoError(t, err)

		_, err = o.TransitionTo(order.AssignedToAgent, admin, "", nil, time.Now())

		require.ErrorIs(t, err, order.ErrAlreadyTerminal)
	})
}

func TestOrderClearAssignment(t *testing.T) {
	t.Run("admin returns order to the unassigned pool", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.Assign(kernel.NewUUID(), time.Now()))
		admin := kernel.Actor{ID: kernel.NewUUID(), Role: kernel.RoleAdmin}

		require.NoError(t, o.ClearAssignment(admin, time.Now()))

		assert.Nil(t, o.Agent())
		assert.Equal(t, order.PaymentConfirmed, o.Status())
	})

	t.Run("non-admin rejected", func(t *testing.T) {
		o := newTestOrder(t)
		agentID := kernel.NewUUID()
		require.NoError(t, o.Assign(agentID, time.Now()))

		err := o.ClearAssignment(agentActor(agentID), time.Now())

		require.ErrorIs(t, err, order.ErrNotAssigned)
	})
}

func TestOrderCodes(t *testing.T) {
	t.Run("delivery code set once", func(t *testing.T) {
		o := newTestOrder(t)

		require.NoError(t, o.SetDeliveryCode("482915"))
		assert.Equal(t, "482915", o.DeliveryCode())

		require.Error(t, o.SetDeliveryCode("111111"))
		assert.Equal(t, "482915", o.DeliveryCode())
	})

	t.Run("code spaces are independent", func(t *testing.T) {
		o := newTestOrder(t)

		require.NoError(t, o.SetDeliveryCode("482915"))
		require.NoError(t, o.SetPickupCode("4829151234"))

		assert.Equal(t, "482915", o.DeliveryCode())
		assert.Equal(t, "4829151234", o.PickupCode())
	})
}

func TestOrderStampConfirmation(t *testing.T) {
	loc, _ := kernel.NewGeoPoint(-1.96, 30.07)

	t.Run("stamps once", func(t *testing.T) {
		o := newTestOrder(t)
		at := time.Now()

		require.NoError(t, o.StampConfirmation(at, loc, "proof/123.jpg"))

		require.NotNil(t, o.ConfirmedAt())
		assert.Equal(t, at, *o.ConfirmedAt())
		assert.Equal(t, "proof/123.jpg", o.ProofRef())
	})

	t.Run("second stamp leaves the first untouched", func(t *testing.T) {
		o := newTestOrder(t)
		first := time.Now()
		require.NoError(t, o.StampConfirmation(first, loc, "proof/123.jpg"))

		err := o.StampConfirmation(first.Add(time.Hour), loc, "proof/456.jpg")

		require.ErrorIs(t, err, order.ErrConfirmationAlreadyStamped)
		assert.Equal(t, first, *o.ConfirmedAt())
		assert.Equal(t, "proof/123.jpg", o.ProofRef())
	})
}
