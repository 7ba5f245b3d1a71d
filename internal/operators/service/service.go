package service

import (
	"context"
	"errors"

	"leadrouter_backend/internal/operators/repository"
	"leadrouter_backend/internal/operators/transport"
	"leadrouter_backend/platform/apperr"

	"github.com/google/uuid"
)

const defaultMaxActiveContacts = 10

type Service struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req transport.CreateOperatorRequest) (transport.OperatorResponse, error) {
	params := repository.CreateOperatorParams{
		Name:              req.Name,
		IsActive:          true,
		MaxActiveContacts: defaultMaxActiveContacts,
	}
	if req.IsActive != nil {
		params.IsActive = *req.IsActive
	}
	if req.MaxActiveContacts != nil {
		params.MaxActiveContacts = *req.MaxActiveContacts
	}

	op, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.OperatorResponse{}, apperr.Wrap(apperr.KindInternal, "failed to create operator", err)
	}
	return toResponse(op), nil
}

func (s *Service) List(ctx context.Context) ([]transport.OperatorResponse, error) {
	operators, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list operators", err)
	}

	responses := make([]transport.OperatorResponse, 0, len(operators))
	for _, op := range operators {
		responses = append(responses, toResponse(op))
	}
	return responses, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.OperatorDetailResponse, error) {
	op, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.OperatorDetailResponse{}, apperr.NotFound("operator not found")
	}
	if err != nil {
		return transport.OperatorDetailResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load operator", err)
	}

	assignments, err := s.repo.ListSourceAssignments(ctx, id)
	if err != nil {
		return transport.OperatorDetailResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load operator assignments", err)
	}

	detail := transport.OperatorDetailResponse{
		OperatorResponse: toResponse(op),
		Sources:          make([]transport.SourceAssignmentInfo, 0, len(assignments)),
	}
	for _, sa := range assignments {
		detail.Sources = append(detail.Sources, transport.SourceAssignmentInfo{
			SourceID:   sa.SourceID,
			SourceCode: sa.SourceCode,
			SourceName: sa.SourceName,
			Weight:     sa.Weight,
		})
	}
	return detail, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateOperatorRequest) (transport.OperatorResponse, error) {
	op, err := s.repo.Update(ctx, id, repository.UpdateOperatorParams{
		Name:              req.Name,
		IsActive:          req.IsActive,
		MaxActiveContacts: req.MaxActiveContacts,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return transport.OperatorResponse{}, apperr.NotFound("operator not found")
	}
	if err != nil {
		return transport.OperatorResponse{}, apperr.Wrap(apperr.KindInternal, "failed to update operator", err)
	}
	return toResponse(op), nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("operator not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete operator", err)
	}
	return nil
}

func toResponse(op repository.Operator) transport.OperatorResponse {
	return transport.OperatorResponse{
		ID:                op.ID,
		Name:              op.Name,
		IsActive:          op.IsActive,
		MaxActiveContacts: op.MaxActiveContacts,
		CurrentLoad:       op.CurrentLoad,
		CreatedAt:         op.CreatedAt,
	}
}
