package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/tinylink-dev/tinylink/internal/app/model"
	"github.com/tinylink-dev/tinylink/internal/app/service"
	"github.com/tinylink-dev/tinylink/internal/app/store"
	"github.com/tinylink-dev/tinylink/internal/http/view"
	"github.com/tinylink-dev/tinylink/internal/infra/prometheus"
	"go.uber.org/zap"
)

// RedirectDeps groups dependencies required by the resolution handler.
type RedirectDeps struct {
	Logger         *zap.Logger
	Registry       *service.Registry
	Metadata       *service.MetadataFetcher
	ClickPublisher *service.ClickPublisher
	BaseURL        string
}

// RedirectHandler resolves GET /:code into either a redirect with a counted
// click or a rendered preview page.
type RedirectHandler struct {
	logger         *zap.Logger
	registry       *service.Registry
	metadata       *service.MetadataFetcher
	clickPublisher *service.ClickPublisher
	baseURL        string
}

// NewRedirectHandler creates the resolver with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:         logger,
		registry:       deps.Registry,
		metadata:       deps.Metadata,
		clickPublisher: deps.ClickPublisher,
		baseURL:        strings.TrimRight(deps.BaseURL, "/"),
	}
}

// Register wires the resolution route onto the provided router. Must come
// after every fixed route, /:code swallows the rest.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/:code", h.Resolve)
}

// Resolve handles GET /:code.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	code := c.Params("code")
	ctx := reqCtx(c)

	link, err := h.registry.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			// Unknown codes never error; send visitors to the landing page.
			return c.Redirect("/", fiber.StatusFound)
		}
		h.logger.Error("failed to load link", zap.Error(err), zap.String("code", code))
		return c.Status(statusForStoreErr(err)).JSON(fiber.Map{
			"error": "store unavailable",
		})
	}

	switch service.ClassifyVisit(c.Get("User-Agent"), c.Query("preview")) {
	case service.VisitPreview:
		return h.renderPreview(c, ctx, link)
	default:
		return h.redirect(c, ctx, link)
	}
}

// redirect counts the visit and sends the client on. A store failure here
// is logged and absorbed: the user still gets their redirect.
func (h *RedirectHandler) redirect(c *fiber.Ctx, ctx context.Context, link *model.Link) error {
	if err := h.registry.RecordVisit(ctx, link.Code); err != nil {
		h.logger.Error("failed to record visit", zap.Error(err), zap.String("code", link.Code))
	}

	if h.clickPublisher != nil {
		code, ip, ua := link.Code, c.IP(), c.Get("User-Agent")
		go func() {
			if err := h.clickPublisher.Publish(code, ip, ua); err != nil {
				h.logger.Error("failed to publish click event", zap.Error(err), zap.String("code", code))
			}
		}()
	}

	prometheus.Redirects.Inc()
	h.logger.Debug("redirecting", zap.String("code", link.Code), zap.String("target", link.TargetURL))
	return c.Redirect(link.TargetURL, fiber.StatusFound)
}

// renderPreview serves the unfurler-facing page. Preview visits never touch
// the click counter.
func (h *RedirectHandler) renderPreview(c *fiber.Ctx, ctx context.Context, link *model.Link) error {
	meta := h.metadata.Fetch(ctx, link.TargetURL)

	html, err := view.RenderPreviewPage(view.PreviewPageData{
		Code:        link.Code,
		TargetURL:   link.TargetURL,
		ShortURL:    fmt.Sprintf("%s/%s", h.baseURL, link.Code),
		Title:       meta.Title,
		Description: meta.Description,
		Image:       meta.Image,
	})
	if err != nil {
		h.logger.Error("failed to render preview page", zap.Error(err), zap.String("code", link.Code))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to render page",
		})
	}

	prometheus.Previews.Inc()
	return c.Type("html", "utf-8").SendString(html)
}

// statusForStoreErr maps a registry failure to an HTTP status, keeping
// "cannot check" distinct from "does not exist".
func statusForStoreErr(err error) int {
	if errors.Is(err, store.ErrUnavailable) {
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}
