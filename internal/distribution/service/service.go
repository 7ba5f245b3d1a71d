package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"leadrouter_backend/internal/distribution/repository"
	"leadrouter_backend/internal/distribution/transport"
	"leadrouter_backend/platform/apperr"

	"github.com/google/uuid"
)

// Service manages assignment edges and performs weighted operator selection.
type Service struct {
	repo   *repository.Repository
	picker *Picker
}

func New(repo *repository.Repository, picker *Picker) *Service {
	return &Service{repo: repo, picker: picker}
}

func (s *Service) CreateAssignment(ctx context.Context, req transport.CreateAssignmentRequest) (transport.AssignmentResponse, error) {
	a, err := s.repo.Create(ctx, req.OperatorID, req.SourceID, req.Weight)
	if errors.Is(err, repository.ErrDuplicate) {
		return transport.AssignmentResponse{}, apperr.Conflict("operator is already assigned to this source")
	}
	if errors.Is(err, repository.ErrEndpointMissing) {
		return transport.AssignmentResponse{}, apperr.NotFound("operator or source not found")
	}
	if err != nil {
		return transport.AssignmentResponse{}, apperr.Wrap(apperr.KindInternal, "failed to create assignment", err)
	}
	return toResponse(a), nil
}

func (s *Service) UpdateAssignment(ctx context.Context, operatorID, sourceID uuid.UUID, req transport.UpdateAssignmentRequest) (transport.AssignmentResponse, error) {
	a, err := s.repo.UpdateWeight(ctx, operatorID, sourceID, req.Weight)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.AssignmentResponse{}, apperr.NotFound("assignment not found")
	}
	if err != nil {
		return transport.AssignmentResponse{}, apperr.Wrap(apperr.KindInternal, "failed to update assignment", err)
	}
	return toResponse(a), nil
}

func (s *Service) DeleteAssignment(ctx context.Context, operatorID, sourceID uuid.UUID) error {
	err := s.repo.Delete(ctx, operatorID, sourceID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("assignment not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete assignment", err)
	}
	return nil
}

// Eligible returns the operators that may receive a contact from this source
// right now: assigned, both endpoints active, spare capacity.
func (s *Service) Eligible(ctx context.Context, sourceID uuid.UUID) ([]repository.Candidate, error) {
	candidates, err := s.repo.ListCandidates(ctx, sourceID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list routing candidates", err)
	}
	return candidates, nil
}

// Pick draws one candidate with weight-proportional probability.
func (s *Service) Pick(candidates []repository.Candidate) (repository.Candidate, bool) {
	return s.picker.Pick(candidates)
}

// DescribeDistribution renders the candidate set with each operator's share,
// for the ingest response and for logs.
func DescribeDistribution(candidates []repository.Candidate) string {
	if len(candidates) == 0 {
		return "no eligible operators"
	}

	total := 0
	for _, cand := range candidates {
		total += cand.Weight
	}

	parts := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		parts = append(parts, fmt.Sprintf("%s: weight %d (%d%%)", cand.OperatorName, cand.Weight, cand.Weight*100/total))
	}
	return strings.Join(parts, ", ")
}

func toResponse(a repository.Assignment) transport.AssignmentResponse {
	return transport.AssignmentResponse{
		ID:         a.ID,
		OperatorID: a.OperatorID,
		SourceID:   a.SourceID,
		Weight:     a.Weight,
		CreatedAt:  a.CreatedAt,
	}
}
