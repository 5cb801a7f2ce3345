package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tinylink-dev/tinylink/internal/app/model"
	"github.com/tinylink-dev/tinylink/internal/app/service"
	"github.com/tinylink-dev/tinylink/internal/infra/prometheus"
	"go.uber.org/zap"
)

// APIDeps groups dependencies required by the management API.
type APIDeps struct {
	Logger   *zap.Logger
	Registry *service.Registry
}

// APIHandler implements the link management endpoints.
type APIHandler struct {
	logger   *zap.Logger
	registry *service.Registry
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:   logger,
		registry: deps.Registry,
	}
}

// Register wires API routes onto the provided router. The extra handlers
// are applied to the create route only (rate limiting).
func (h *APIHandler) Register(router fiber.Router, createMiddleware ...fiber.Handler) {
	api := router.Group("/api")
	{
		links := api.Group("/link")
		{
			links.Post("/", append(createMiddleware, h.CreateLink)...)
			links.Get("/", h.ListLinks)
			links.Get("/:code", h.GetLink)
			links.Delete("/:code", h.DeleteLink)
		}
	}
}

// CreateLinkRequest is the body for POST /api/link.
type CreateLinkRequest struct {
	TargetURL string `json:"targetUrl"`
	Code      string `json:"code,omitempty"`
}

// CreateLink handles POST /api/link.
func (h *APIHandler) CreateLink(c *fiber.Ctx) error {
	var req CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	link, err := h.registry.Create(reqCtx(c), req.TargetURL, req.Code)
	if err != nil {
		var dup *service.DuplicateTargetError
		switch {
		case errors.Is(err, service.ErrInvalidTarget):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid URL",
			})
		case errors.Is(err, service.ErrInvalidCode):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid custom code. Use 3-10 chars: letters, numbers, - or _",
			})
		case errors.As(err, &dup):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "URL already shortened",
				"code":  dup.Code,
			})
		case errors.Is(err, service.ErrDuplicateCode):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Code already exists",
			})
		default:
			h.logger.Error("failed to create link", zap.Error(err))
			return c.Status(statusForStoreErr(err)).JSON(fiber.Map{
				"error": "database error",
			})
		}
	}

	prometheus.LinksCreated.Inc()
	return c.Status(fiber.StatusCreated).JSON(link)
}

// ListLinks handles GET /api/link, newest first.
func (h *APIHandler) ListLinks(c *fiber.Ctx) error {
	links, err := h.registry.List(reqCtx(c))
	if err != nil {
		h.logger.Error("failed to list links", zap.Error(err))
		return c.Status(statusForStoreErr(err)).JSON(fiber.Map{
			"error": "database error",
		})
	}
	if links == nil {
		links = []model.Link{}
	}
	return c.JSON(links)
}

// GetLink handles GET /api/link/:code.
func (h *APIHandler) GetLink(c *fiber.Ctx) error {
	code := c.Params("code")

	link, err := h.registry.GetByCode(reqCtx(c), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Not found",
			})
		}
		h.logger.Error("failed to get link", zap.Error(err), zap.String("code", code))
		return c.Status(statusForStoreErr(err)).JSON(fiber.Map{
			"error": "database error",
		})
	}
	return c.JSON(link)
}

// DeleteLink handles DELETE /api/link/:code. Deleting an absent code still
// reports success.
func (h *APIHandler) DeleteLink(c *fiber.Ctx) error {
	code := c.Params("code")

	if err := h.registry.Delete(reqCtx(c), code); err != nil {
		h.logger.Error("failed to delete link", zap.Error(err), zap.String("code", code))
		return c.Status(statusForStoreErr(err)).JSON(fiber.Map{
			"error": "database error",
		})
	}
	return c.JSON(fiber.Map{"ok": true})
}

func reqCtx(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
