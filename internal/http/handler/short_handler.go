package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/hyunjae-dev/prooflink/internal/app/repository"
	"github.com/hyunjae-dev/prooflink/internal/app/service"
	infraPrometheus "github.com/hyunjae-dev/prooflink/internal/infra/prometheus"
	"go.uber.org/zap"
)

// ShortDeps groups dependencies required by the short-link handler.
type ShortDeps struct {
	Logger         *zap.Logger
	ShortLinks     *service.ShortLinkService
	ClickPublisher *service.ClickPublisher
}

// ShortHandler resolves /s/:code and redirects to the proof page.
type ShortHandler struct {
	logger         *zap.Logger
	shortLinks     *service.ShortLinkService
	clickPublisher *service.ClickPublisher
}

// NewShortHandler creates a short-link handler with the provided dependencies.
func NewShortHandler(deps ShortDeps) *ShortHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShortHandler{
		logger:         logger,
		shortLinks:     deps.ShortLinks,
		clickPublisher: deps.ClickPublisher,
	}
}

// Register wires the short-link route onto the provided router.
func (h *ShortHandler) Register(router fiber.Router) {
	router.Get("/s/:code", h.Resolve)
}

// Resolve handles GET /s/:code
func (h *ShortHandler) Resolve(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing short code",
		})
	}

	ctx := requestContext(c)

	link, err := h.shortLinks.Resolve(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrShortLinkNotFound) {
			infraPrometheus.ShortLinkResolutions.WithLabelValues("not_found").Inc()
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "SHORT_NOT_FOUND",
			})
		}
		h.logger.Error("failed to resolve short link", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to resolve short link",
		})
	}

	if h.clickPublisher != nil {
		ip := c.IP()
		userAgent := c.Get(fiber.HeaderUserAgent)
		go func() {
			if err := h.clickPublisher.Publish(link.Code, ip, userAgent); err != nil {
				h.logger.Warn("failed to publish click event",
					zap.String("code", link.Code), zap.Error(err))
			}
		}()
	}

	infraPrometheus.ShortLinkResolutions.WithLabelValues("redirect").Inc()
	target := h.shortLinks.TargetURL(ctx, link)
	h.logger.Debug("redirecting short link", zap.String("code", link.Code))
	return c.Redirect(target, fiber.StatusFound)
}
