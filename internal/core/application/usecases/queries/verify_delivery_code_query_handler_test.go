package queries_test

import (
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/confirmation"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func assignedOrderWithCode(t *testing.T, agentID kernel.UUID, code string) *order.Order {
	t.Helper()
	ord := newClaimableOrder(t, mustGeoPoint(t, -1.951, 30.061), kernel.ClassLocal, time.Now())
	require.NoError(t, ord.Assign(agentID, time.Now()))
	require.NoError(t, ord.SetDeliveryCode(code))
	return ord
}

func TestVerifyDeliveryCodeQueryHandler_Handle_Match(t *testing.T) {
	ctx := t.Context()
	agentID := kernel.NewUUID()
	ord := assignedOrderWithCode(t, agentID, "482915")

	repo := new(MockNearbyOrderRepository)
	repo.On("Get", mock.Anything, ord.ID()).Return(ord, nil)

	q, err := queries.NewVerifyDeliveryCodeQuery(ord.ID(), agentID, "482915")
	require.NoError(t, err)

	h := queries.NewVerifyDeliveryCodeQueryHandler(repo)
	assert.NoError(t, h.Handle(ctx, q))

	// Verification does not consume the code: a second check still passes.
	assert.NoError(t, h.Handle(ctx, q))
	assert.Equal(t, "482915", ord.DeliveryCode())
}

func TestVerifyDeliveryCodeQueryHandler_Handle_Mismatch(t *testing.T) {
	ctx := t.Context()
	agentID := kernel.NewUUID()
	ord := assignedOrderWithCode(t, agentID, "482915")

	repo := new(MockNearbyOrderRepository)
	repo.On("Get", mock.Anything, ord.ID()).Return(ord, nil).Once()

	q, err := queries.NewVerifyDeliveryCodeQuery(ord.ID(), agentID, "000000")
	require.NoError(t, err)

	h := queries.NewVerifyDeliveryCodeQueryHandler(repo)
	err = h.Handle(ctx, q)
	assert.ErrorIs(t, err, confirmation.ErrInvalidCode)
	assert.NotContains(t, err.Error(), "482915")
}

func TestVerifyDeliveryCodeQueryHandler_Handle_ForeignAgent(t *testing.T) {
	ctx := t.Context()
	ord := assignedOrderWithCode(t, kernel.NewUUID(), "482915")

	repo := new(MockNearbyOrderRepository)
	repo.On("Get", mock.Anything, ord.ID()).Return(ord, nil).Once()

	q, err := queries.NewVerifyDeliveryCodeQuery(ord.ID(), kernel.NewUUID(), "482915")
	require.NoError(t, err)

	h := queries.NewVerifyDeliveryCodeQueryHandler(repo)
	assert.ErrorIs(t, h.Handle(ctx, q), order.ErrNotAssigned)
}

func TestVerifyDeliveryCodeQueryHandler_Handle_SettledOrder(t *testing.T) {
	ctx := t.Context()
	agentID := kernel.NewUUID()
	ord := assignedOrderWithCode(t, agentID, "482915")
	actor, err := kernel.NewActor(agentID, kernel.RoleAgent)
	require.NoError(t, err)
	for _, next := range []order.Status{
		order.AgentEnRouteToSeller, order.AgentAtSeller, order.PickedFromSeller,
		order.EnRouteToBuyer, order.Delivered,
	} {
		_, err = ord.TransitionTo(next, actor, "", nil, time.Now())
		require.NoError(t, err)
	}

	repo := new(MockNearbyOrderRepository)
	repo.On("Get", mock.Anything, ord.ID()).Return(ord, nil).Once()

	q, err := queries.NewVerifyDeliveryCodeQuery(ord.ID(), agentID, "482915")
	require.NoError(t, err)

	h := queries.NewVerifyDeliveryCodeQueryHandler(repo)
	assert.ErrorIs(t, h.Handle(ctx, q), order.ErrAlreadyTerminal)
}
