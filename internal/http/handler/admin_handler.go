package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	httpUtil "github.com/tessara/linkgate/internal/http/util"
	"go.uber.org/zap"
)

// PurgeTokenHeader carries the HMAC token the link store signs purge
// requests with.
const PurgeTokenHeader = "X-Purge-Token"

// CacheInvalidator drops a cached resolution.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, code string) error
}

// AdminDeps groups dependencies required by the admin handler.
type AdminDeps struct {
	Logger *zap.Logger
	Cache  CacheInvalidator
	Tokens *httpUtil.TokenSigner
}

// AdminHandler exposes the internal cache purge endpoint the link store
// calls when a link is deleted.
type AdminHandler struct {
	logger *zap.Logger
	cache  CacheInvalidator
	tokens *httpUtil.TokenSigner
}

// NewAdminHandler creates an admin handler with the provided dependencies.
func NewAdminHandler(deps AdminDeps) *AdminHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		logger: logger,
		cache:  deps.Cache,
		tokens: deps.Tokens,
	}
}

// Register wires admin routes onto the provided router.
func (h *AdminHandler) Register(router fiber.Router) {
	router.Delete("/internal/cache/:code", h.Purge)
}

// Purge handles DELETE /internal/cache/:code.
func (h *AdminHandler) Purge(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing link code",
		})
	}

	token := c.Get(PurgeTokenHeader)
	if err := h.tokens.Validate(code, token); err != nil {
		if errors.Is(err, httpUtil.ErrInvalidToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.logger.Error("failed to validate purge token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to validate token",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := h.cache.Invalidate(ctx, code); err != nil {
		h.logger.Error("failed to purge cache entry", zap.String("code", code), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to purge cache entry",
		})
	}

	h.logger.Info("cache entry purged", zap.String("code", code))
	return c.SendStatus(fiber.StatusNoContent)
}
