package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tessara/linkgate/internal/app/linkstore"
	"github.com/tessara/linkgate/internal/app/service"
	metrics "github.com/tessara/linkgate/internal/infra/prometheus"
	"github.com/tessara/linkgate/internal/http/view"
	"go.uber.org/zap"
)

// Pipeline is the slice of the redirect pipeline the handler needs.
type Pipeline interface {
	Handle(ctx context.Context, code string, sig service.VisitSignals) (string, error)
}

// RedirectDeps groups dependencies required by the redirect handler.
type RedirectDeps struct {
	Logger   *zap.Logger
	Pipeline Pipeline
}

// RedirectHandler serves the short-code redirect flow.
type RedirectHandler struct {
	logger   *zap.Logger
	pipeline Pipeline
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:   logger,
		pipeline: deps.Pipeline,
	}
}

// Register wires redirect routes onto the provided router.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
	router.Get("/:code", h.Resolve)
}

// Health is a simple root endpoint so we know the service is running.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "linkgate",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Resolve handles GET /:code. The redirect is written as soon as the
// destination is known; click recording has already been detached by then
// and cannot change the response.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing link code",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	sig := service.VisitSignals{
		CustomRef: c.Query("custom_ref"),
		Referer:   c.Get(fiber.HeaderReferer),
		NoStat:    c.Query("no_stat") == "1",
	}

	dest, err := h.pipeline.Handle(ctx, code, sig)
	if err != nil {
		switch {
		case errors.Is(err, linkstore.ErrLinkNotFound):
			// Expected for ghost traffic; not worth more than debug.
			h.logger.Debug("unknown short code", zap.String("code", code))
		default:
			// Origin outage with no cached fallback degrades to the same
			// user-visible outcome.
			h.logger.Error("resolution failed", zap.String("code", code), zap.Error(err))
		}
		return h.renderNotFound(c, code)
	}

	h.logger.Debug("redirecting short link", zap.String("code", code), zap.String("target", dest))
	return c.Redirect(dest, fiber.StatusTemporaryRedirect)
}

func (h *RedirectHandler) renderNotFound(c *fiber.Ctx, code string) error {
	metrics.NotFoundTotal.Inc()

	html, err := view.RenderNotFoundPage(view.NotFoundPageData{Code: code})
	if err != nil {
		h.logger.Error("failed to render not-found page", zap.Error(err))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "short link not found",
		})
	}

	return c.Status(fiber.StatusNotFound).
		Type("html", "utf-8").
		SendString(html)
}
