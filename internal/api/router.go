package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jobboard/crawler/internal/api/handlers"
	"github.com/jobboard/crawler/internal/api/middleware"
	"github.com/jobboard/crawler/internal/store"
)

// Dependencies holds the services the handlers need
type Dependencies struct {
	Store   store.Pinger
	Trigger handlers.CrawlTrigger
	Logger  *zap.Logger
	// BaseContext, when set, is cancelled on shutdown and ends running crawls
	BaseContext context.Context
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	if deps.BaseContext != nil {
		app.Use(middleware.BaseContext(deps.BaseContext))
	}

	app.Get("/health", handlers.HealthCheck(deps.Store))

	crawl := handlers.NewCrawlHandler(deps.Trigger, deps.Logger)
	app.All("/", crawl.Trigger)
	app.All("/crawl", crawl.Trigger)
}

// ErrorHandler renders errors that escape the handlers, including
// recovered panics, in the same shape as a failed crawl.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error("Request error",
			zap.Int("status", code),
			zap.String("path", c.Path()),
			zap.Error(err),
		)

		if code != fiber.StatusInternalServerError {
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(code).JSON(fiber.Map{
			"error":   "Internal server error",
			"details": err.Error(),
		})
	}
}
