// Package operators provides the operator management bounded context module.
package operators

import (
	apphttp "leadrouter_backend/internal/http"
	"leadrouter_backend/internal/operators/handler"
	"leadrouter_backend/internal/operators/repository"
	"leadrouter_backend/internal/operators/service"
	"leadrouter_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the operators bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the operators module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "operators" }

// RegisterRoutes mounts the operator routes under /api/v1/operators.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/operators"))
}

// Service exposes the operators service for cross-module wiring.
func (m *Module) Service() *service.Service { return m.service }
