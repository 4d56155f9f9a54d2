package cmd

import (
	"context"
	"log/slog"
	"os"

	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/redislocation"
	"dispatch/internal/coordination"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/jobs"
	"dispatch/internal/locations"
	"dispatch/internal/realtime"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CompositionRoot wires every layer of the service: storage, the location
// store, the realtime registry, use cases, and the adapters around them.
type CompositionRoot struct {
	config Config
	gormDB *gorm.DB

	uowFactory    postgres.GormUnitOfWorkFactory
	locationStore *locations.Store
	registry      *realtime.Registry
	logger        *slog.Logger
}

// NewCompositionRoot builds the object graph. The registry's offline hook
// drops the hot-path position of agents that stayed away past the reconnect
// grace; the durable tier keeps its copy.
func NewCompositionRoot(config Config, gormDB *gorm.DB, redisClient *redis.Client) *CompositionRoot {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	durable := redislocation.NewStore(redisClient, config.PositionTTL)
	locationStore := locations.NewStore(durable, logger)

	registry := realtime.NewRegistry(func(agentID kernel.UUID) {
		locationStore.Forget(context.Background(), agentID)
	}, logger)

	return &CompositionRoot{
		config:        config,
		gormDB:        gormDB,
		uowFactory:    *postgres.NewGormUnitOfWorkFactory(gormDB),
		locationStore: locationStore,
		registry:      registry,
		logger:        logger,
	}
}

// Logger returns the root structured logger.
func (c *CompositionRoot) Logger() *slog.Logger {
	return c.logger
}

// LocationStore returns the two-tier location store.
func (c *CompositionRoot) LocationStore() *locations.Store {
	return c.locationStore
}

// Registry returns the realtime connection registry.
func (c *CompositionRoot) Registry() *realtime.Registry {
	return c.registry
}

func (c *CompositionRoot) CreateReportLocationCommandHandler() commands.ReportLocationCommandHandler {
	repos := c.uowFactory.Create()
	return commands.NewReportLocationCommandHandler(repos.AgentRepository(), c.locationStore)
}

func (c *CompositionRoot) CreateTransitionOrderCommandHandler() commands.TransitionOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewTransitionOrderCommandHandler(f)
}

func (c *CompositionRoot) CreateAssignOrderCommandHandler() commands.AssignOrderCommandHandler {
	var f commands.AssignmentUoWFactory = FuncAssignmentUoWFactory(func() commands.AssignmentUoW {
		return c.uowFactory.Create()
	})
	return commands.NewAssignOrderCommandHandler(f)
}

func (c *CompositionRoot) CreateUnassignOrderCommandHandler() commands.UnassignOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewUnassignOrderCommandHandler(f)
}

func (c *CompositionRoot) CreateIssueDeliveryCodeCommandHandler() commands.IssueDeliveryCodeCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewIssueDeliveryCodeCommandHandler(f)
}

func (c *CompositionRoot) CreateIssuePickupCodeCommandHandler() commands.IssuePickupCodeCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewIssuePickupCodeCommandHandler(f)
}

func (c *CompositionRoot) CreateConfirmDeliveryCommandHandler() commands.ConfirmDeliveryCommandHandler {
	var f commands.ConfirmationUoWFactory = FuncConfirmationUoWFactory(func() commands.ConfirmationUoW {
		return c.uowFactory.Create()
	})
	return commands.NewConfirmDeliveryCommandHandler(f)
}

func (c *CompositionRoot) CreateGetNearbyOrdersQueryHandler() queries.GetNearbyOrdersQueryHandler {
	repos := c.uowFactory.Create()
	return queries.NewGetNearbyOrdersQueryHandler(repos.OrderRepository(), repos.AgentRepository())
}

func (c *CompositionRoot) CreateGetNearbyAgentsQueryHandler() queries.GetNearbyAgentsQueryHandler {
	repos := c.uowFactory.Create()
	return queries.NewGetNearbyAgentsQueryHandler(
		repos.AgentRepository(), c.locationStore, c.config.PositionMaxAge)
}

func (c *CompositionRoot) CreateVerifyDeliveryCodeQueryHandler() queries.VerifyDeliveryCodeQueryHandler {
	repos := c.uowFactory.Create()
	return queries.NewVerifyDeliveryCodeQueryHandler(repos.OrderRepository())
}

// CreateCoordinationService wires the realtime message dispatcher.
func (c *CompositionRoot) CreateCoordinationService() *coordination.Service {
	return coordination.NewService(
		c.registry,
		c.CreateReportLocationCommandHandler(),
		c.CreateTransitionOrderCommandHandler(),
		c.CreateAssignOrderCommandHandler(),
		c.CreateGetNearbyOrdersQueryHandler(),
		c.CreateGetNearbyAgentsQueryHandler(),
		c.logger,
	)
}

// CreateHTTPServer wires the REST surface.
func (c *CompositionRoot) CreateHTTPServer(coordinator *coordination.Service) *httpin.Server {
	return httpin.NewServer(
		coordinator,
		c.CreateIssueDeliveryCodeCommandHandler(),
		c.CreateIssuePickupCodeCommandHandler(),
		c.CreateConfirmDeliveryCommandHandler(),
		c.CreateUnassignOrderCommandHandler(),
		c.CreateVerifyDeliveryCodeQueryHandler(),
	)
}

// CreateJobManager wires the background jobs.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.registry, c.locationStore,
		c.config.IdleTimeout, c.config.ReconnectGrace,
		c.logger,
	)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncAssignmentUoWFactory func() commands.AssignmentUoW

func (f FuncAssignmentUoWFactory) Create() commands.AssignmentUoW {
	return f()
}

type FuncConfirmationUoWFactory func() commands.ConfirmationUoW

func (f FuncConfirmationUoWFactory) Create() commands.ConfirmationUoW {
	return f()
}
