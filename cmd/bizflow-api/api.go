// Package main provides the bizflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/bizflow/pkg/engine"
	"github.com/dukex/bizflow/pkg/eventbus"
	"github.com/dukex/bizflow/pkg/models"
	"github.com/dukex/bizflow/pkg/persistence"
	"github.com/dukex/bizflow/pkg/services"
	"github.com/dukex/bizflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger       *slog.Logger
	persistence  persistence.Persistence
	eventBus     eventbus.EventBus
	engine       *engine.Engine
	doneStatuses []models.TaskStatus
	validate     *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	engine *engine.Engine,
	doneStatuses []models.TaskStatus,
) *API {
	return &API{
		logger:       logger,
		persistence:  persistence,
		eventBus:     eventBus,
		engine:       engine,
		doneStatuses: doneStatuses,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(
		services.NewProcess(a.persistence),
		services.NewTask(a.persistence, a.eventBus, a.doneStatuses...),
		services.NewOrg(a.persistence),
		services.NewJournal(a.persistence, a.doneStatuses...),
		a.engine,
		a.validate,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("bizflow API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
