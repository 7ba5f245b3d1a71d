// Package leads provides the lead identity bounded context module.
// A lead is a channel-independent identity: the same external_id reaching
// the system through different sources resolves to one lead.
package leads

import (
	apphttp "leadrouter_backend/internal/http"
	"leadrouter_backend/internal/leads/handler"
	"leadrouter_backend/internal/leads/repository"
	"leadrouter_backend/internal/leads/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "leads" }

// RegisterRoutes mounts the lead routes under /api/v1/leads.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/leads"))
}

// Service exposes the leads service for cross-module wiring.
func (m *Module) Service() *service.Service { return m.service }
