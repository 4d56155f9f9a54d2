package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockIssueOrderRepository struct{ mock.Mock }

func (m *MockIssueOrderRepository) Add(_ context.Context, _ *order.Order) error { return nil }
func (m *MockIssueOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}
func (m *MockIssueOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}
func (m *MockIssueOrderRepository) GetUnassignedNear(
	_ context.Context, _ kernel.GeoPoint, _ kernel.DeliveryClass, _ float64, _ int,
) ([]*order.Order, error) {
	return nil, errors.New("not implemented in mock")
}
func (m *MockIssueOrderRepository) Assign(_ context.Context, _, _ kernel.UUID) error {
	return errors.New("not implemented in mock")
}
func (m *MockIssueOrderRepository) AppendHistory(_ context.Context, _ order.HistoryEntry) error {
	return errors.New("not implemented in mock")
}

type MockIssueUoW struct{ mock.Mock }

func (m *MockIssueUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockIssueUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockIssueUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockIssueUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockIssueUoWFactory struct{ mock.Mock }

func (m *MockIssueUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

func buyerActor(t *testing.T, ord *order.Order) kernel.Actor {
	t.Helper()
	actor, err := kernel.NewActor(ord.BuyerID(), kernel.RoleBuyer)
	require.NoError(t, err)
	return actor
}

func TestIssueDeliveryCodeCommandHandler_Handle_GeneratesSixDigitCode(t *testing.T) {
	ctx := t.Context()
	ord := newUnassignedOrder(t, kernel.ClassLocal)
	cmd, err := commands.NewIssueDeliveryCodeCommand(ord.ID(), buyerActor(t, ord))
	require.NoError(t, err)

	repo := new(MockIssueOrderRepository)
	uow := new(MockIssueUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Get", mock.Anything, ord.ID()).Return(ord, nil).Once(),
		repo.On("Update", mock.Anything, ord).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockIssueUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewIssueDeliveryCodeCommandHandler(factory)
	code, err := h.Handle(ctx, cmd)
	require.NoError(t, err)
	require.Len(t, code, 6)
	require.Equal(t, code, ord.DeliveryCode())
	repo.AssertExpectations(t)
	uow.AssertExpectations(t)
}

func TestIssueDeliveryCodeCommandHandler_Handle_Idempotent(t *testing.T) {
	ctx := t.Context()
	ord := newUnassignedOrder(t, kernel.ClassLocal)
	require.NoError(t, ord.SetDeliveryCode("135790"))
	cmd, err := commands.NewIssueDeliveryCodeCommand(ord.ID(), buyerActor(t, ord))
	require.NoError(t, err)

	repo := new(MockIssueOrderRepository)
	uow := new(MockIssueUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Get", mock.Anything, ord.ID()).Return(ord, nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockIssueUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewIssueDeliveryCodeCommandHandler(factory)
	code, err := h.Handle(ctx, cmd)
	require.NoError(t, err)
	require.Equal(t, "135790", code)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestIssueDeliveryCodeCommandHandler_Handle_AgentMayNotRequest(t *testing.T) {
	ctx := t.Context()
	ord := newUnassignedOrder(t, kernel.ClassLocal)
	agentActor, err := kernel.NewActor(kernel.NewUUID(), kernel.RoleAgent)
	require.NoError(t, err)
	cmd, err := commands.NewIssueDeliveryCodeCommand(ord.ID(), agentActor)
	require.NoError(t, err)

	repo := new(MockIssueOrderRepository)
	uow := new(MockIssueUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Get", mock.Anything, ord.ID()).Return(ord, nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockIssueUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewIssueDeliveryCodeCommandHandler(factory)
	_, err = h.Handle(ctx, cmd)
	require.ErrorIs(t, err, commands.ErrCodeRequesterNotAllowed)
	require.Empty(t, ord.DeliveryCode())
}

func TestIssuePickupCodeCommandHandler_Handle_TenDigitsIndependentOfDeliveryCode(t *testing.T) {
	ctx := t.Context()
	ord := newUnassignedOrder(t, kernel.ClassStandard)
	require.NoError(t, ord.SetDeliveryCode("123456"))
	cmd, err := commands.NewIssuePickupCodeCommand(ord.ID(), buyerActor(t, ord))
	require.NoError(t, err)

	repo := new(MockIssueOrderRepository)
	uow := new(MockIssueUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Get", mock.Anything, ord.ID()).Return(ord, nil).Once(),
		repo.On("Update", mock.Anything, ord).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockIssueUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewIssuePickupCodeCommandHandler(factory)
	code, err := h.Handle(ctx, cmd)
	require.NoError(t, err)
	require.Len(t, code, 10)
	require.NotEqual(t, ord.DeliveryCode(), code)
	require.Equal(t, code, ord.PickupCode())
}

func TestIssueDeliveryCodeCommandHandler_Handle_SettledOrder(t *testing.T) {
	ctx := t.Context()
	agentID := kernel.NewUUID()
	ord := orderAtDoorstep(t, agentID, "482915")
	actor, err := kernel.NewActor(agentID, kernel.RoleAgent)
	require.NoError(t, err)
	_, err = ord.TransitionTo(order.Delivered, actor, "", nil, time.Now())
	require.NoError(t, err)

	cmd, err := commands.NewIssueDeliveryCodeCommand(ord.ID(), buyerActor(t, ord))
	require.NoError(t, err)

	repo := new(MockIssueOrderRepository)
	uow := new(MockIssueUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Get", mock.Anything, ord.ID()).Return(ord, nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockIssueUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewIssueDeliveryCodeCommandHandler(factory)
	_, err = h.Handle(ctx, cmd)
	require.ErrorIs(t, err, order.ErrAlreadyTerminal)
}
