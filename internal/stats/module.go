// Package stats provides read-only reporting over the engine: system-wide
// counters and per-source distribution tables.
package stats

import (
	apphttp "leadrouter_backend/internal/http"
	"leadrouter_backend/internal/stats/handler"
	"leadrouter_backend/internal/stats/repository"
	"leadrouter_backend/internal/stats/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the stats bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the stats module.
func NewModule(pool *pgxpool.Pool) *Module {
	repo := repository.New(pool)
	return &Module{handler: handler.New(service.New(repo))}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "stats" }

// RegisterRoutes mounts the stats routes under /api/v1/stats.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/stats"))
}
