package service

import (
	"context"
	"errors"

	"leadrouter_backend/internal/leads/repository"
	"leadrouter_backend/internal/leads/transport"
	"leadrouter_backend/platform/apperr"
	"leadrouter_backend/platform/phone"

	"github.com/google/uuid"
)

type Service struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// ResolveParams carries the inbound identity and optional attributes for
// lead resolution.
type ResolveParams struct {
	ExternalID string
	Name       *string
	Phone      *string
	Email      *string
}

// ResolvedLead is the canonical lead an inbound contact belongs to.
type ResolvedLead struct {
	ID         uuid.UUID
	ExternalID string
	Name       *string
	Phone      *string
	Email      *string
	Created    bool
}

// Resolve maps an external identity to its canonical lead, creating one on
// first contact. Attributes on an existing lead are never touched.
func (s *Service) Resolve(ctx context.Context, params ResolveParams) (ResolvedLead, error) {
	if params.Phone != nil {
		normalized := phone.NormalizeE164(*params.Phone)
		params.Phone = &normalized
	}

	lead, created, err := s.repo.GetOrCreate(ctx, repository.GetOrCreateParams{
		ExternalID: params.ExternalID,
		Name:       params.Name,
		Phone:      params.Phone,
		Email:      params.Email,
	})
	if err != nil {
		return ResolvedLead{}, apperr.Wrap(apperr.KindInternal, "failed to resolve lead", err)
	}

	return ResolvedLead{
		ID:         lead.ID,
		ExternalID: lead.ExternalID,
		Name:       lead.Name,
		Phone:      lead.Phone,
		Email:      lead.Email,
		Created:    created,
	}, nil
}

func (s *Service) List(ctx context.Context) ([]transport.LeadResponse, error) {
	leads, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
	}

	responses := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		responses = append(responses, toResponse(lead))
	}
	return responses, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.LeadDetailResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.LeadDetailResponse{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return transport.LeadDetailResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}

	contacts, err := s.repo.ListContacts(ctx, id)
	if err != nil {
		return transport.LeadDetailResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load lead contacts", err)
	}

	detail := transport.LeadDetailResponse{
		LeadResponse: toResponse(lead),
		Contacts:     make([]transport.LeadContactInfo, 0, len(contacts)),
	}
	for _, lc := range contacts {
		detail.Contacts = append(detail.Contacts, transport.LeadContactInfo{
			ID:           lc.ID,
			SourceID:     lc.SourceID,
			SourceCode:   lc.SourceCode,
			OperatorID:   lc.OperatorID,
			OperatorName: lc.OperatorName,
			Status:       lc.Status,
			Message:      lc.Message,
			CreatedAt:    lc.CreatedAt,
			AssignedAt:   lc.AssignedAt,
			ClosedAt:     lc.ClosedAt,
		})
	}
	return detail, nil
}

func toResponse(lead repository.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:         lead.ID,
		ExternalID: lead.ExternalID,
		Name:       lead.Name,
		Phone:      lead.Phone,
		Email:      lead.Email,
		CreatedAt:  lead.CreatedAt,
	}
}
