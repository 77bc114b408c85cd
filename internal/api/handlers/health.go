package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jobboard/crawler/internal/store"
)

const version = "1.0.0"

// HealthCheck returns the health status
func HealthCheck(pinger store.Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeStatus := "healthy"
		if pinger == nil {
			storeStatus = "unavailable"
		} else {
			ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				storeStatus = "unhealthy"
			}
		}

		code, status := fiber.StatusOK, "healthy"
		if storeStatus != "healthy" {
			code, status = fiber.StatusServiceUnavailable, "degraded"
		}

		return c.Status(code).JSON(fiber.Map{
			"status":       status,
			"version":      version,
			"store_status": storeStatus,
		})
	}
}
