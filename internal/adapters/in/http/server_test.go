package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/coordination"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/confirmation"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/realtime"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture wires the REST surface over in-memory storage.
type fixture struct {
	echo   *echo.Echo
	orders *stubOrderRepo
	agents *stubAgentRepo
}

type stubOrderRepo struct {
	mu       sync.Mutex
	orders   map[kernel.UUID]*order.Order
	assigned map[kernel.UUID]kernel.UUID
}

func (r *stubOrderRepo) Add(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID()] = o
	return nil
}

func (r *stubOrderRepo) Update(_ context.Context, o *order.Order) error {
	return r.Add(context.Background(), o)
}

func (r *stubOrderRepo) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		return o, nil
	}
	return nil, errs.NewObjectNotFoundError("order", id)
}

func (r *stubOrderRepo) GetUnassignedNear(
	context.Context, kernel.GeoPoint, kernel.DeliveryClass, float64, int,
) ([]*order.Order, error) {
	return nil, nil
}

func (r *stubOrderRepo) Assign(_ context.Context, orderID, agentID kernel.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.assigned[orderID]; taken {
		return order.ErrAlreadyAssigned
	}
	r.assigned[orderID] = agentID
	return nil
}

func (r *stubOrderRepo) AppendHistory(context.Context, order.HistoryEntry) error { return nil }

type stubAgentRepo struct {
	mu     sync.Mutex
	agents map[kernel.UUID]*agent.Agent
}

func (r *stubAgentRepo) Add(_ context.Context, a *agent.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.ID()] = a
	return nil
}

func (r *stubAgentRepo) Update(_ context.Context, a *agent.Agent) error {
	return r.Add(context.Background(), a)
}

func (r *stubAgentRepo) Get(_ context.Context, id kernel.UUID) (*agent.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.agents[id]; ok {
		return a, nil
	}
	return nil, errs.NewObjectNotFoundError("agent", id)
}

func (r *stubAgentRepo) ListAvailable(context.Context, kernel.DeliveryClass) ([]*agent.Agent, error) {
	return nil, nil
}

type stubConfirmationRepo struct {
	mu      sync.Mutex
	byOrder map[kernel.UUID]*confirmation.DeliveryConfirmation
}

func (r *stubConfirmationRepo) Add(_ context.Context, c *confirmation.DeliveryConfirmation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byOrder[c.OrderID()] = c
	return nil
}

func (r *stubConfirmationRepo) GetByOrder(_ context.Context, orderID kernel.UUID) (*confirmation.DeliveryConfirmation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byOrder[orderID]; ok {
		return c, nil
	}
	return nil, errs.NewObjectNotFoundError("orderId", orderID)
}

type stubUoW struct {
	orders        *stubOrderRepo
	agents        *stubAgentRepo
	confirmations *stubConfirmationRepo
}

func (u *stubUoW) Begin(context.Context) error    { return nil }
func (u *stubUoW) Commit(context.Context) error   { return nil }
func (u *stubUoW) Rollback(context.Context) error { return nil }

func (u *stubUoW) OrderRepository() ports.OrderRepository { return u.orders }
func (u *stubUoW) AgentRepository() ports.AgentRepository { return u.agents }
func (u *stubUoW) ConfirmationRepository() ports.ConfirmationRepository {
	return u.confirmations
}

type stubOrderUoWFactory struct{ uow *stubUoW }

func (f stubOrderUoWFactory) Create() commands.OrderUoW { return f.uow }

type stubAssignmentUoWFactory struct{ uow *stubUoW }

func (f stubAssignmentUoWFactory) Create() commands.AssignmentUoW { return f.uow }

type stubConfirmationUoWFactory struct{ uow *stubUoW }

func (f stubConfirmationUoWFactory) Create() commands.ConfirmationUoW { return f.uow }

type noopLocationStore struct{}

func (noopLocationStore) Upsert(context.Context, agent.Position) (bool, error) { return true, nil }

func (noopLocationStore) Get(context.Context, kernel.UUID) (agent.Position, error) {
	return agent.Position{}, errs.NewObjectNotFoundError("agentId", "")
}

func (noopLocationStore) Snapshot(context.Context, kernel.DeliveryClass, time.Duration) ([]agent.Position, error) {
	return nil, nil
}

func (noopLocationStore) Forget(context.Context, kernel.UUID) {}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	orders := &stubOrderRepo{
		orders:   make(map[kernel.UUID]*order.Order),
		assigned: make(map[kernel.UUID]kernel.UUID),
	}
	agents := &stubAgentRepo{agents: make(map[kernel.UUID]*agent.Agent)}
	confirmations := &stubConfirmationRepo{
		byOrder: make(map[kernel.UUID]*confirmation.DeliveryConfirmation),
	}
	uow := &stubUoW{orders: orders, agents: agents, confirmations: confirmations}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coordinator := coordination.NewService(
		realtime.NewRegistry(nil, logger),
		commands.NewReportLocationCommandHandler(agents, noopLocationStore{}),
		commands.NewTransitionOrderCommandHandler(stubOrderUoWFactory{uow}),
		commands.NewAssignOrderCommandHandler(stubAssignmentUoWFactory{uow}),
		queries.NewGetNearbyOrdersQueryHandler(orders, agents),
		queries.NewGetNearbyAgentsQueryHandler(agents, noopLocationStore{}, time.Minute),
		logger,
	)

	server := httpin.NewServer(
		coordinator,
		commands.NewIssueDeliveryCodeCommandHandler(stubOrderUoWFactory{uow}),
		commands.NewIssuePickupCodeCommandHandler(stubOrderUoWFactory{uow}),
		commands.NewConfirmDeliveryCommandHandler(stubConfirmationUoWFactory{uow}),
		commands.NewUnassignOrderCommandHandler(stubOrderUoWFactory{uow}),
		queries.NewVerifyDeliveryCodeQueryHandler(orders),
	)

	e := echo.New()
	server.RegisterRoutes(e, httpin.NewWSHandler(coordinator, logger))

	return &fixture{echo: e, orders: orders, agents: agents}
}

func (f *fixture) addOrder(t *testing.T) *order.Order {
	t.Helper()
	pickup, err := kernel.NewGeoPoint(-1.951, 30.061)
	require.NoError(t, err)
	dropoff, err := kernel.NewGeoPoint(-1.960, 30.080)
	require.NoError(t, err)

	ord, err := order.NewOrder(
		kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
		pickup, dropoff, kernel.ClassLocal, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.orders.Add(context.Background(), ord))
	return ord
}

func (f *fixture) addAgent(t *testing.T) kernel.UUID {
	t.Helper()
	id := kernel.NewUUID()
	a, err := agent.RestoreAgent(id, "Courier", kernel.ClassLocal, true, true)
	require.NoError(t, err)
	require.NoError(t, f.agents.Add(context.Background(), a))
	return id
}

func (f *fixture) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func identity(id kernel.UUID, role kernel.Role) map[string]string {
	return map[string]string{
		httpin.HeaderUserID:   id.String(),
		httpin.HeaderUserRole: string(role),
	}
}

func TestServer_Health(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_IssueDeliveryCode(t *testing.T) {
	f := newFixture(t)
	ord := f.addOrder(t)
	path := "/api/v1/orders/" + ord.ID().String() + "/delivery-code"

	t.Run("buyer gets a six digit code", func(t *testing.T) {
		rec := f.do(http.MethodPost, path, "", identity(ord.BuyerID(), kernel.RoleBuyer))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Code, 6)
	})

	t.Run("repeat request returns the same code", func(t *testing.T) {
		first := f.do(http.MethodPost, path, "", identity(ord.BuyerID(), kernel.RoleBuyer))
		second := f.do(http.MethodPost, path, "", identity(ord.BuyerID(), kernel.RoleBuyer))
		assert.Equal(t, first.Body.String(), second.Body.String())
	})

	t.Run("agent is forbidden", func(t *testing.T) {
		rec := f.do(http.MethodPost, path, "", identity(kernel.NewUUID(), kernel.RoleAgent))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		rec := f.do(http.MethodPost, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown order is not found", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/v1/orders/"+kernel.NewUUID().String()+"/delivery-code",
			"", identity(ord.BuyerID(), kernel.RoleBuyer))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_ClaimOrder(t *testing.T) {
	f := newFixture(t)
	ord := f.addOrder(t)
	first := f.addAgent(t)
	second := f.addAgent(t)
	path := "/api/v1/orders/" + ord.ID().String() + "/claim"

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		rec := f.do(http.MethodPost, path, `{"agentId":"`+first.String()+`"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("agent may not claim for another agent", func(t *testing.T) {
		rec := f.do(http.MethodPost, path, `{"agentId":"`+first.String()+`"}`,
			identity(second, kernel.RoleAgent))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("buyer may not claim at all", func(t *testing.T) {
		rec := f.do(http.MethodPost, path, `{"agentId":"`+first.String()+`"}`,
			identity(first, kernel.RoleBuyer))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("first claim wins, second gets conflict", func(t *testing.T) {
		rec := f.do(http.MethodPost, path, `{"agentId":"`+first.String()+`"}`,
			identity(first, kernel.RoleAgent))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		// The second claim arrives after the order is taken.
		rec = f.do(http.MethodPost, path, `{"agentId":"`+second.String()+`"}`,
			identity(second, kernel.RoleAgent))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestServer_ClaimOrder_AdminClaimsOnBehalf(t *testing.T) {
	f := newFixture(t)
	ord := f.addOrder(t)
	agentID := f.addAgent(t)
	path := "/api/v1/orders/" + ord.ID().String() + "/claim"

	rec := f.do(http.MethodPost, path, `{"agentId":"`+agentID.String()+`"}`,
		identity(kernel.NewUUID(), kernel.RoleAdmin))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestServer_VerifyAndConfirm(t *testing.T) {
	f := newFixture(t)
	ord := f.addOrder(t)
	agentID := f.addAgent(t)

	// Walk the order to the doorstep.
	claimPath := "/api/v1/orders/" + ord.ID().String() + "/claim"
	rec := f.do(http.MethodPost, claimPath, `{"agentId":"`+agentID.String()+`"}`,
		identity(agentID, kernel.RoleAgent))
	require.Equal(t, http.StatusNoContent, rec.Code)

	actor, err := kernel.NewActor(agentID, kernel.RoleAgent)
	require.NoError(t, err)
	for _, target := range []order.Status{
		order.AgentEnRouteToSeller, order.AgentAtSeller,
		order.PickedFromSeller, order.EnRouteToBuyer,
	} {
		_, err = ord.TransitionTo(target, actor, "", nil, time.Now())
		require.NoError(t, err)
	}

	codeRec := f.do(http.MethodPost, "/api/v1/orders/"+ord.ID().String()+"/delivery-code",
		"", identity(ord.BuyerID(), kernel.RoleBuyer))
	require.Equal(t, http.StatusOK, codeRec.Code)
	var issued struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(codeRec.Body.Bytes(), &issued))

	verifyPath := "/api/v1/orders/" + ord.ID().String() + "/verify-code"
	confirmPath := "/api/v1/orders/" + ord.ID().String() + "/confirm-delivery"

	t.Run("wrong code is unprocessable", func(t *testing.T) {
		rec := f.do(http.MethodPost, verifyPath,
			`{"agentId":"`+agentID.String()+`","code":"000000"}`, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("right code verifies without consuming", func(t *testing.T) {
		body := `{"agentId":"` + agentID.String() + `","code":"` + issued.Code + `"}`
		assert.Equal(t, http.StatusNoContent, f.do(http.MethodPost, verifyPath, body, nil).Code)
		assert.Equal(t, http.StatusNoContent, f.do(http.MethodPost, verifyPath, body, nil).Code)
	})

	t.Run("confirmation settles the order", func(t *testing.T) {
		body := `{"agentId":"` + agentID.String() + `","code":"` + issued.Code +
			`","latitude":-1.96,"longitude":30.08}`
		rec := f.do(http.MethodPost, confirmPath, body, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, order.Delivered, ord.Status())

		// A settled order refuses the replay.
		rec = f.do(http.MethodPost, confirmPath, body, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestServer_ClaimOrder_BadRequest(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/orders/not-a-uuid/claim", `{"agentId":"x"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
