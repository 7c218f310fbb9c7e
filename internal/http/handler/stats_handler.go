package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tessara/linkgate/internal/app/linkstore"
	"go.uber.org/zap"
)

// StatsDeps groups dependencies required by the stats handler.
type StatsDeps struct {
	Logger     *zap.Logger
	Aggregator linkstore.Aggregator
}

// StatsHandler proxies the dashboard aggregations the link store derives
// from the click stream. The edge does no aggregation of its own.
type StatsHandler struct {
	logger     *zap.Logger
	aggregator linkstore.Aggregator
}

// NewStatsHandler creates a stats handler with the provided dependencies.
func NewStatsHandler(deps StatsDeps) *StatsHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsHandler{
		logger:     logger,
		aggregator: deps.Aggregator,
	}
}

// Register wires stats routes onto the provided router.
func (h *StatsHandler) Register(router fiber.Router) {
	api := router.Group("/api/v1")
	{
		api.Get("/dashboard", h.Dashboard)
		api.Get("/links/:id/stats", h.LinkStats)
	}
}

// Dashboard handles GET /api/v1/dashboard.
func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	limit := 10
	if parsed := c.QueryInt("limit"); parsed > 0 && parsed <= 100 {
		limit = parsed
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	stats, err := h.aggregator.DashboardStats(ctx, limit)
	if err != nil {
		h.logger.Error("failed to fetch dashboard stats", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "link store unavailable",
		})
	}

	return c.JSON(stats)
}

// LinkStats handles GET /api/v1/links/:id/stats.
func (h *StatsHandler) LinkStats(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid link id",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	stats, err := h.aggregator.LinkStats(ctx, int64(id))
	if err != nil {
		if errors.Is(err, linkstore.ErrLinkNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "link not found",
			})
		}
		h.logger.Error("failed to fetch link stats", zap.Int("id", id), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "link store unavailable",
		})
	}

	return c.JSON(stats)
}
