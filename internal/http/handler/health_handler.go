package handler

import (
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tinylink-dev/tinylink/internal/app/store"
	"go.uber.org/zap"
)

// HealthDeps groups dependencies for the health endpoint.
type HealthDeps struct {
	Logger *zap.Logger
	Store  store.Store
	// Pool is the optional direct Postgres pool; when present its ping is
	// preferred over the store's, probing past any driver-level caching.
	Pool *pgxpool.Pool

	BaseURL      string
	DBConfigured bool
}

// HealthHandler reports liveness plus store connectivity.
type HealthHandler struct {
	deps    HealthDeps
	started time.Time
}

// NewHealthHandler creates the health handler; uptime counts from now.
func NewHealthHandler(deps HealthDeps) *HealthHandler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &HealthHandler{deps: deps, started: time.Now()}
}

// Register wires the health route onto the provided router.
func (h *HealthHandler) Register(router fiber.Router) {
	router.Get("/healthz", h.Healthz)
}

// Healthz handles GET /healthz.
func (h *HealthHandler) Healthz(c *fiber.Ctx) error {
	ctx := reqCtx(c)

	dbOK := false
	var dbNow string
	if h.deps.Pool != nil {
		if err := h.deps.Pool.Ping(ctx); err == nil {
			dbOK = true
			dbNow = time.Now().UTC().Format(time.RFC3339)
		}
	} else if h.deps.Store != nil {
		if now, err := h.deps.Store.Ping(ctx); err == nil {
			dbOK = true
			dbNow = now.UTC().Format(time.RFC3339)
		}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return c.JSON(fiber.Map{
		"status":        "ok",
		"uptimeSeconds": int64(time.Since(h.started).Seconds()),
		"goVersion":     runtime.Version(),
		"platform":      runtime.GOOS,
		"arch":          runtime.GOARCH,
		"memory": fiber.Map{
			"sys":       mem.Sys,
			"heapInuse": mem.HeapInuse,
		},
		"env": fiber.Map{
			"baseUrl":            h.deps.BaseURL,
			"databaseConfigured": h.deps.DBConfigured,
		},
		"database": fiber.Map{
			"ok":  dbOK,
			"now": dbNow,
		},
	})
}
