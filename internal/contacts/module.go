// Package contacts provides the contact engine bounded context module:
// ingest with lead resolution and weighted routing, lifecycle transitions,
// and reassignment.
package contacts

import (
	"leadrouter_backend/internal/contacts/handler"
	"leadrouter_backend/internal/contacts/repository"
	"leadrouter_backend/internal/contacts/service"
	"leadrouter_backend/internal/events"
	apphttp "leadrouter_backend/internal/http"
	"leadrouter_backend/internal/scheduler"
	"leadrouter_backend/platform/config"
	"leadrouter_backend/platform/logger"
	"leadrouter_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the contacts bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the contacts module. It depends on the
// leads, sources and distribution services for ingest; followups may be nil.
func NewModule(
	pool *pgxpool.Pool,
	val *validator.Validator,
	leads service.LeadResolver,
	sources service.SourceDirectory,
	router service.OperatorRouter,
	bus events.Bus,
	followups scheduler.FollowupScheduler,
	cfg config.SchedulerConfig,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, leads, sources, router, bus, followups, cfg, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "contacts" }

// RegisterRoutes mounts the contact routes under /api/v1/contacts.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/contacts"))
}

// Service exposes the contacts service for cross-module wiring.
func (m *Module) Service() *service.Service { return m.service }
