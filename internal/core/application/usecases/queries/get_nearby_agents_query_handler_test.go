package queries_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSnapshotLocationStore struct{ mock.Mock }

func (m *MockSnapshotLocationStore) Upsert(_ context.Context, _ agent.Position) (bool, error) {
	return false, nil
}
func (m *MockSnapshotLocationStore) Get(_ context.Context, _ kernel.UUID) (agent.Position, error) {
	return agent.Position{}, nil
}
func (m *MockSnapshotLocationStore) Snapshot(
	ctx context.Context, class kernel.DeliveryClass, maxAge time.Duration,
) ([]agent.Position, error) {
	args := m.Called(ctx, class, maxAge)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]agent.Position), args.Error(1)
}
func (m *MockSnapshotLocationStore) Forget(_ context.Context, _ kernel.UUID) {}

func positionAt(t *testing.T, agentID kernel.UUID, lat, lng float64, capturedAt time.Time) agent.Position {
	t.Helper()
	pos, err := agent.NewPosition(agentID, mustGeoPoint(t, lat, lng), kernel.ClassLocal, capturedAt)
	require.NoError(t, err)
	return pos
}

func TestGetNearbyAgentsQueryHandler_Handle_ClosestFirstWithinRadius(t *testing.T) {
	ctx := t.Context()
	pickup := mustGeoPoint(t, -1.95, 30.06)

	closeAgent := localAgent(t)
	farAgent := localAgent(t)
	outsideAgent := localAgent(t)

	agentRepo := new(MockNearbyAgentRepository)
	store := new(MockSnapshotLocationStore)
	agentRepo.On("ListAvailable", mock.Anything, kernel.ClassLocal).
		Return([]*agent.Agent{farAgent, closeAgent, outsideAgent}, nil).Once()
	store.On("Snapshot", mock.Anything, kernel.ClassLocal, mock.AnythingOfType("time.Duration")).
		Return([]agent.Position{
			positionAt(t, closeAgent.ID(), -1.951, 30.061, time.Now()),
			positionAt(t, farAgent.ID(), -1.97, 30.08, time.Now()),
			positionAt(t, outsideAgent.ID(), -1.95, 30.50, time.Now()), // ~49 km away
		}, nil).Once()

	q, err := queries.NewGetNearbyAgentsQuery(pickup, kernel.ClassLocal, 0)
	require.NoError(t, err)

	h := queries.NewGetNearbyAgentsQueryHandler(agentRepo, store, 0)
	resp, err := h.Handle(ctx, q)
	require.NoError(t, err)
	require.Len(t, resp, 2)
	assert.True(t, resp[0].AgentID.IsEqual(closeAgent.ID()))
	assert.True(t, resp[1].AgentID.IsEqual(farAgent.ID()))
	assert.Less(t, resp[0].DistanceKm, resp[1].DistanceKm)
}

func TestGetNearbyAgentsQueryHandler_Handle_AgentWithoutPositionIsSkipped(t *testing.T) {
	ctx := t.Context()
	pickup := mustGeoPoint(t, -1.95, 30.06)

	silent := localAgent(t)
	reporting := localAgent(t)

	agentRepo := new(MockNearbyAgentRepository)
	store := new(MockSnapshotLocationStore)
	agentRepo.On("ListAvailable", mock.Anything, kernel.ClassLocal).
		Return([]*agent.Agent{silent, reporting}, nil).Once()
	store.On("Snapshot", mock.Anything, kernel.ClassLocal, mock.AnythingOfType("time.Duration")).
		Return([]agent.Position{
			positionAt(t, reporting.ID(), -1.951, 30.061, time.Now()),
		}, nil).Once()

	q, err := queries.NewGetNearbyAgentsQuery(pickup, kernel.ClassLocal, 0)
	require.NoError(t, err)

	h := queries.NewGetNearbyAgentsQueryHandler(agentRepo, store, 0)
	resp, err := h.Handle(ctx, q)
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.True(t, resp[0].AgentID.IsEqual(reporting.ID()))
}

func TestGetNearbyAgentsQueryHandler_Handle_EmptyWhenNobodyNear(t *testing.T) {
	ctx := t.Context()
	pickup := mustGeoPoint(t, -1.95, 30.06)

	agentRepo := new(MockNearbyAgentRepository)
	store := new(MockSnapshotLocationStore)
	agentRepo.On("ListAvailable", mock.Anything, kernel.ClassLocal).
		Return([]*agent.Agent{}, nil).Once()
	store.On("Snapshot", mock.Anything, kernel.ClassLocal, mock.AnythingOfType("time.Duration")).
		Return([]agent.Position{}, nil).Once()

	q, err := queries.NewGetNearbyAgentsQuery(pickup, kernel.ClassLocal, 5)
	require.NoError(t, err)

	h := queries.NewGetNearbyAgentsQueryHandler(agentRepo, store, time.Minute)
	resp, err := h.Handle(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, resp)
}
