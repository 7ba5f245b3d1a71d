// Package distribution provides the weighted routing bounded context module:
// assignment edges between sources and operators, and weight-proportional
// operator selection.
package distribution

import (
	"time"

	"leadrouter_backend/internal/distribution/handler"
	"leadrouter_backend/internal/distribution/repository"
	"leadrouter_backend/internal/distribution/service"
	apphttp "leadrouter_backend/internal/http"
	"leadrouter_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the distribution bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the distribution module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, service.NewPicker(time.Now().UnixNano()))
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "distribution" }

// RegisterRoutes mounts the assignment routes under /api/v1/assignments.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/assignments"))
}

// Service exposes the distribution service for cross-module wiring.
func (m *Module) Service() *service.Service { return m.service }
