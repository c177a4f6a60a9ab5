package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hyunjae-dev/prooflink/internal/app/repository"
	"github.com/hyunjae-dev/prooflink/internal/app/service"
	"go.uber.org/zap"
)

// AdminDeps groups dependencies required by the management API handlers.
type AdminDeps struct {
	Logger        *zap.Logger
	Orders        repository.OrderRepository
	Proofs        repository.ProofRepository
	Organizations repository.OrganizationRepository
	TokenService  *service.TokenService
	Notifications *service.NotificationService
}

// AdminHandler implements the operator-facing management endpoints. The
// surface is meant to sit behind an upstream gateway; it carries no
// end-user authentication of its own.
type AdminHandler struct {
	logger        *zap.Logger
	orders        repository.OrderRepository
	proofs        repository.ProofRepository
	organizations repository.OrganizationRepository
	tokens        *service.TokenService
	notifications *service.NotificationService
}

// NewAdminHandler creates an admin handler with the provided dependencies.
func NewAdminHandler(deps AdminDeps) *AdminHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		logger:        logger,
		orders:        deps.Orders,
		proofs:        deps.Proofs,
		organizations: deps.Organizations,
		tokens:        deps.TokenService,
		notifications: deps.Notifications,
	}
}

// Register wires management routes onto the provided router.
func (h *AdminHandler) Register(router fiber.Router) {
	api := router.Group("/api")
	{
		orders := api.Group("/orders")
		{
			orders.Post("/:id/token", h.IssueToken)
			orders.Post("/:id/notifications/resend", h.ResendNotifications)
			orders.Get("/:id/notifications", h.ListNotifications)
		}
		api.Post("/organizations/:id/reminders", h.SendReminders)
	}
}

// IssueToken handles POST /api/orders/:id/token
func (h *AdminHandler) IssueToken(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("id")
	if err != nil || orderID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid order id",
		})
	}
	force := c.QueryBool("force", false)

	ctx := requestContext(c)
	result, err := h.tokens.Issue(ctx, uint(orderID), force)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "ORDER_NOT_FOUND",
			})
		}
		h.logger.Error("failed to issue proof token",
			zap.Int("order_id", orderID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to issue token",
		})
	}
	return c.JSON(result)
}

// ResendNotifications handles POST /api/orders/:id/notifications/resend.
// Resending requires that at least one proof exists, so the link in the
// message always lands on a populated page.
func (h *AdminHandler) ResendNotifications(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("id")
	if err != nil || orderID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid order id",
		})
	}

	ctx := requestContext(c)
	order, err := h.orders.GetByID(ctx, uint(orderID))
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "ORDER_NOT_FOUND",
			})
		}
		h.logger.Error("failed to load order", zap.Int("order_id", orderID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load order",
		})
	}

	proofs, err := h.proofs.ListByOrder(ctx, order.ID)
	if err != nil {
		h.logger.Error("failed to list proofs", zap.Int("order_id", orderID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list proofs",
		})
	}
	if len(proofs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "PROOF_NOT_UPLOADED",
		})
	}

	if err := h.notifications.DispatchDual(ctx, order); err != nil {
		h.logger.Error("failed to dispatch notifications",
			zap.Int("order_id", orderID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to dispatch notifications",
		})
	}
	return c.JSON(fiber.Map{
		"status":   "dispatched",
		"order_id": order.ID,
	})
}

// ListNotifications handles GET /api/orders/:id/notifications
func (h *AdminHandler) ListNotifications(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("id")
	if err != nil || orderID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid order id",
		})
	}

	ctx := requestContext(c)
	items, err := h.notifications.ListByOrder(ctx, uint(orderID))
	if err != nil {
		h.logger.Error("failed to list notifications",
			zap.Int("order_id", orderID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list notifications",
		})
	}
	return c.JSON(fiber.Map{
		"order_id": orderID,
		"items":    items,
	})
}

// SendRemindersRequest is the body for POST /api/organizations/:id/reminders.
type SendRemindersRequest struct {
	OrderIDs        []uint `json:"order_ids,omitempty"`
	HoursSinceToken int    `json:"hours_since_token,omitempty"`
	MaxReminders    int    `json:"max_reminders,omitempty"`
}

// SendReminders handles POST /api/organizations/:id/reminders
func (h *AdminHandler) SendReminders(c *fiber.Ctx) error {
	organizationID, err := c.ParamsInt("id")
	if err != nil || organizationID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid organization id",
		})
	}

	var req SendRemindersRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.HoursSinceToken <= 0 {
		req.HoursSinceToken = 24
	}
	if req.MaxReminders <= 0 {
		req.MaxReminders = 2
	}

	ctx := requestContext(c)
	if _, err := h.organizations.GetByID(ctx, uint(organizationID)); err != nil {
		if errors.Is(err, repository.ErrOrganizationNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "ORGANIZATION_NOT_FOUND",
			})
		}
		h.logger.Error("failed to load organization",
			zap.Int("organization_id", organizationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load organization",
		})
	}

	report, err := h.notifications.SendReminders(ctx, uint(organizationID), req.OrderIDs,
		time.Duration(req.HoursSinceToken)*time.Hour, req.MaxReminders)
	if err != nil {
		h.logger.Error("failed to run reminder sweep",
			zap.Int("organization_id", organizationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to run reminder sweep",
		})
	}
	return c.JSON(report)
}
