// Package sources provides the source (inbound channel) bounded context module.
package sources

import (
	"regexp"

	apphttp "leadrouter_backend/internal/http"
	"leadrouter_backend/internal/sources/handler"
	"leadrouter_backend/internal/sources/repository"
	"leadrouter_backend/internal/sources/service"
	"leadrouter_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
)

var sourceCodePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Module is the sources bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the sources module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) (*Module, error) {
	// Source codes are stable external keys; keep them URL- and shell-safe.
	err := val.RegisterValidation("source_code", func(fl playground.FieldLevel) bool {
		return sourceCodePattern.MatchString(fl.Field().String())
	})
	if err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	svc := service.New(repo)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string { return "sources" }

// RegisterRoutes mounts the source routes under /api/v1/sources.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/sources"))
}

// Service exposes the sources service for cross-module wiring.
func (m *Module) Service() *service.Service { return m.service }
