package service

import (
	"context"
	"errors"

	"leadrouter_backend/internal/sources/repository"
	"leadrouter_backend/internal/sources/transport"
	"leadrouter_backend/platform/apperr"

	"github.com/google/uuid"
)

type Service struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req transport.CreateSourceRequest) (transport.SourceResponse, error) {
	params := repository.CreateSourceParams{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		params.IsActive = *req.IsActive
	}

	src, err := s.repo.Create(ctx, params)
	if errors.Is(err, repository.ErrDuplicateCode) {
		return transport.SourceResponse{}, apperr.Conflict("source code already exists")
	}
	if err != nil {
		return transport.SourceResponse{}, apperr.Wrap(apperr.KindInternal, "failed to create source", err)
	}
	return toResponse(src), nil
}

func (s *Service) List(ctx context.Context) ([]transport.SourceResponse, error) {
	sources, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list sources", err)
	}

	responses := make([]transport.SourceResponse, 0, len(sources))
	for _, src := range sources {
		responses = append(responses, toResponse(src))
	}
	return responses, nil
}

// GetByCode looks a source up by its stable code. Used by ingest, where
// source systems identify themselves by code rather than id.
func (s *Service) GetByCode(ctx context.Context, code string) (transport.SourceResponse, error) {
	src, err := s.repo.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.SourceResponse{}, apperr.NotFound("source not found")
	}
	if err != nil {
		return transport.SourceResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load source", err)
	}
	return toResponse(src), nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.SourceDetailResponse, error) {
	src, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.SourceDetailResponse{}, apperr.NotFound("source not found")
	}
	if err != nil {
		return transport.SourceDetailResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load source", err)
	}

	assignments, err := s.repo.ListOperatorAssignments(ctx, id)
	if err != nil {
		return transport.SourceDetailResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load source operators", err)
	}

	detail := transport.SourceDetailResponse{
		SourceResponse: toResponse(src),
		Operators:      make([]transport.OperatorAssignmentInfo, 0, len(assignments)),
	}
	for _, oa := range assignments {
		detail.Operators = append(detail.Operators, transport.OperatorAssignmentInfo{
			OperatorID:        oa.OperatorID,
			OperatorName:      oa.OperatorName,
			Weight:            oa.Weight,
			IsActive:          oa.IsActive,
			CurrentLoad:       oa.CurrentLoad,
			MaxActiveContacts: oa.MaxActiveContacts,
		})
	}
	return detail, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateSourceRequest) (transport.SourceResponse, error) {
	src, err := s.repo.Update(ctx, id, repository.UpdateSourceParams{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return transport.SourceResponse{}, apperr.NotFound("source not found")
	}
	if err != nil {
		return transport.SourceResponse{}, apperr.Wrap(apperr.KindInternal, "failed to update source", err)
	}
	return toResponse(src), nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("source not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete source", err)
	}
	return nil
}

func toResponse(src repository.Source) transport.SourceResponse {
	return transport.SourceResponse{
		ID:          src.ID,
		Name:        src.Name,
		Code:        src.Code,
		Description: src.Description,
		IsActive:    src.IsActive,
		CreatedAt:   src.CreatedAt,
	}
}
