// Package main provides the Planline API server implementation.
package main

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/planline/planline/pkg/approval"
	"github.com/planline/planline/pkg/eventbus"
	"github.com/planline/planline/pkg/executor"
	"github.com/planline/planline/pkg/persistence"
	"github.com/planline/planline/pkg/planner"
	"github.com/planline/planline/pkg/registry"
	"github.com/planline/planline/pkg/session"
	"github.com/planline/planline/pkg/targets"
	"github.com/planline/planline/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	stepTimeout time.Duration
	tracer      trace.Tracer
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	stepTimeout time.Duration,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		stepTimeout: stepTimeout,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	execOpts := []executor.Option{
		executor.WithNotifier(a.eventBus),
		executor.WithStepTimeout(a.stepTimeout),
	}
	if a.tracer != nil {
		execOpts = append(execOpts, executor.WithTracer(a.tracer))
	}

	exec := executor.NewExecutor(a.persistence, a.registry, a.logger, execOpts...)
	builder := planner.NewBuilder(a.registry, a.logger)
	gate := approval.NewGate(a.logger)
	catalog := targets.NewDefaultCatalog()

	sessions := session.NewService(a.persistence, builder, exec, gate, catalog, a.eventBus, a.logger)
	handlers := web.NewAPIHandlers(sessions, a.persistence, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Planline API")
	})

	handlers.RegisterRoutes(app)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
