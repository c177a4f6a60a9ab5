package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/hyunjae-dev/prooflink/internal/app/model"
	"github.com/hyunjae-dev/prooflink/internal/app/service"
	"go.uber.org/zap"
)

// PublicDeps groups dependencies required by the public token-scoped handlers.
type PublicDeps struct {
	Logger       *zap.Logger
	TokenService *service.TokenService
	ProofService *service.ProofService
}

// PublicHandler serves the recipient-facing endpoints. Every route is scoped
// by an opaque proof token; there is no other authentication on this surface.
type PublicHandler struct {
	logger *zap.Logger
	tokens *service.TokenService
	proofs *service.ProofService
}

// NewPublicHandler creates a public handler with the provided dependencies.
func NewPublicHandler(deps PublicDeps) *PublicHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicHandler{
		logger: logger,
		tokens: deps.TokenService,
		proofs: deps.ProofService,
	}
}

// Register wires public routes onto the provided router.
func (h *PublicHandler) Register(router fiber.Router) {
	public := router.Group("/public")
	{
		public.Get("/order/:token", h.OrderSummary)
		public.Post("/proof/:token/upload", h.UploadProof)
		public.Get("/proof/:token", h.ProofPage)
	}
}

// OrderSummary handles GET /public/order/:token
func (h *PublicHandler) OrderSummary(c *fiber.Ctx) error {
	token := c.Params("token")
	ctx := requestContext(c)

	summary, err := h.tokens.Summary(ctx, token)
	if err != nil {
		return h.tokenError(c, err, "failed to load order summary")
	}
	return c.JSON(summary)
}

// UploadProof handles POST /public/proof/:token/upload
func (h *PublicHandler) UploadProof(c *fiber.Ctx) error {
	token := c.Params("token")
	ctx := requestContext(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing file field",
		})
	}

	proofType := model.ProofType(c.FormValue("proof_type"))

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("failed to open uploaded file", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read upload",
		})
	}
	defer file.Close()

	result, err := h.proofs.Record(ctx, token, proofType, file, fileHeader.Size, fileHeader.Header.Get("Content-Type"), fileHeader.Filename)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenInvalid):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "TOKEN_INVALID",
			})
		case errors.Is(err, service.ErrDuplicateProofType):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "DUPLICATE_PROOF_TYPE",
			})
		case errors.Is(err, service.ErrInvalidFileType):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "INVALID_FILE_TYPE",
			})
		case errors.Is(err, service.ErrFileTooLarge):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "FILE_TOO_LARGE",
			})
		}
		h.logger.Error("failed to record proof", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to record proof",
		})
	}
	return c.JSON(result)
}

// ProofPage handles GET /public/proof/:token. It keeps working after the
// token was consumed by an AFTER upload so the notification link survives.
func (h *PublicHandler) ProofPage(c *fiber.Ctx) error {
	token := c.Params("token")
	ctx := requestContext(c)

	page, err := h.tokens.Proofs(ctx, token)
	if err != nil {
		return h.tokenError(c, err, "failed to load proof page")
	}
	return c.JSON(page)
}

func (h *PublicHandler) tokenError(c *fiber.Ctx, err error, msg string) error {
	if errors.Is(err, service.ErrTokenInvalid) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "TOKEN_INVALID",
		})
	}
	h.logger.Error(msg, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": msg,
	})
}

func requestContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
