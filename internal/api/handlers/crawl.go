package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jobboard/crawler/internal/domain"
	"github.com/jobboard/crawler/internal/lock"
)

const usageHint = "Send a POST request to this endpoint to start crawling job postings."

// CrawlTrigger starts one crawl run
type CrawlTrigger interface {
	Fire(ctx context.Context) (*domain.CrawlResult, error)
}

// CrawlHandler handles crawl trigger requests
type CrawlHandler struct {
	trigger CrawlTrigger
	logger  *zap.Logger
}

// NewCrawlHandler creates a new crawl handler
func NewCrawlHandler(trigger CrawlTrigger, logger *zap.Logger) *CrawlHandler {
	return &CrawlHandler{trigger: trigger, logger: logger}
}

// Trigger handles POST /crawl. Any other method gets a plain-text hint.
func (h *CrawlHandler) Trigger(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.Status(fiber.StatusBadRequest).SendString(usageHint)
	}

	result, err := h.trigger.Fire(c.UserContext())
	if errors.Is(err, lock.ErrLocked) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Crawl already in progress",
		})
	}
	if err != nil {
		h.logger.Error("Crawl failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal server error",
			"details": err.Error(),
		})
	}

	h.logger.Info("Crawl completed",
		zap.String("run_id", result.RunID),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
	)
	return c.JSON(fiber.Map{
		"message": "Crawling and data upsert completed",
	})
}
