// Package service implements the contact engine: inbound inquiries are
// resolved to a lead, routed to an operator by weighted draw, and walked
// through their lifecycle.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"leadrouter_backend/internal/contacts/domain"
	"leadrouter_backend/internal/contacts/repository"
	"leadrouter_backend/internal/contacts/transport"
	distrepo "leadrouter_backend/internal/distribution/repository"
	distservice "leadrouter_backend/internal/distribution/service"
	"leadrouter_backend/internal/events"
	leadservice "leadrouter_backend/internal/leads/service"
	"leadrouter_backend/internal/scheduler"
	sourcetransport "leadrouter_backend/internal/sources/transport"
	"leadrouter_backend/platform/apperr"
	"leadrouter_backend/platform/config"
	"leadrouter_backend/platform/logger"
)

// ContactStore is the persistence surface the engine needs. The capacity
// gate lives behind CreateAssigned and Assign: both fail with
// ErrOperatorSaturated instead of exceeding an operator's limit.
type ContactStore interface {
	CreateAssigned(ctx context.Context, params repository.CreateParams, operatorID uuid.UUID) (repository.Contact, error)
	CreateUnassigned(ctx context.Context, params repository.CreateParams) (repository.Contact, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Contact, error)
	List(ctx context.Context, status *domain.Status) ([]repository.Contact, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.Status) (repository.Contact, error)
	Assign(ctx context.Context, id, operatorID uuid.UUID) (repository.Contact, error)
	Unassign(ctx context.Context, id uuid.UUID) (repository.Contact, error)
}

// LeadResolver maps an external identity to its canonical lead.
type LeadResolver interface {
	Resolve(ctx context.Context, params leadservice.ResolveParams) (leadservice.ResolvedLead, error)
}

// SourceDirectory resolves source codes for ingest.
type SourceDirectory interface {
	GetByCode(ctx context.Context, code string) (sourcetransport.SourceResponse, error)
}

// OperatorRouter supplies routing candidates and the weighted draw.
type OperatorRouter interface {
	Eligible(ctx context.Context, sourceID uuid.UUID) ([]distrepo.Candidate, error)
	Pick(candidates []distrepo.Candidate) (distrepo.Candidate, bool)
}

type Service struct {
	store     ContactStore
	leads     LeadResolver
	sources   SourceDirectory
	router    OperatorRouter
	bus       events.Bus
	scheduler scheduler.FollowupScheduler
	cfg       config.SchedulerConfig
	logger    *logger.Logger
}

// New wires the engine. scheduler may be nil when Redis is not configured;
// follow-up checks are then skipped.
func New(
	store ContactStore,
	leads LeadResolver,
	sources SourceDirectory,
	router OperatorRouter,
	bus events.Bus,
	followups scheduler.FollowupScheduler,
	cfg config.SchedulerConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		store:     store,
		leads:     leads,
		sources:   sources,
		router:    router,
		bus:       bus,
		scheduler: followups,
		cfg:       cfg,
		logger:    log,
	}
}

// Ingest accepts an inbound inquiry, resolves its lead, and routes it.
// Routing never fails the request: when every eligible operator is at
// capacity (or none exist) the contact is persisted unassigned.
func (s *Service) Ingest(ctx context.Context, req transport.IngestContactRequest) (transport.IngestContactResponse, error) {
	src, err := s.sources.GetByCode(ctx, req.SourceCode)
	if err != nil {
		return transport.IngestContactResponse{}, err
	}
	if !src.IsActive {
		return transport.IngestContactResponse{}, apperr.BadRequest(fmt.Sprintf("source %q is not active", src.Code))
	}

	lead, err := s.leads.Resolve(ctx, leadservice.ResolveParams{
		ExternalID: req.LeadExternalID,
		Name:       req.LeadName,
		Phone:      req.LeadPhone,
		Email:      req.LeadEmail,
	})
	if err != nil {
		return transport.IngestContactResponse{}, err
	}
	if lead.Created {
		s.bus.Publish(ctx, events.LeadCreated{
			BaseEvent:  events.NewBaseEvent(),
			LeadID:     lead.ID,
			ExternalID: lead.ExternalID,
			SourceCode: src.Code,
		})
	}

	candidates, err := s.router.Eligible(ctx, src.ID)
	if err != nil {
		return transport.IngestContactResponse{}, err
	}
	info := distservice.DescribeDistribution(candidates)

	params := repository.CreateParams{
		LeadID:   lead.ID,
		SourceID: src.ID,
		Message:  req.Message,
	}
	contact, err := s.place(ctx, params, candidates)
	if err != nil {
		return transport.IngestContactResponse{}, apperr.Wrap(apperr.KindInternal, "failed to create contact", err)
	}

	s.bus.Publish(ctx, events.ContactCreated{
		BaseEvent:  events.NewBaseEvent(),
		ContactID:  contact.ID,
		LeadID:     contact.LeadID,
		SourceID:   contact.SourceID,
		SourceCode: contact.SourceCode,
		OperatorID: contact.OperatorID,
	})
	s.logger.Distribution(src.Code, operatorLabel(contact.OperatorID), info)
	s.scheduleFollowup(ctx, contact)

	return transport.IngestContactResponse{
		Contact: toResponse(contact),
		Lead: transport.ContactLeadInfo{
			ID:         lead.ID,
			ExternalID: lead.ExternalID,
			Name:       lead.Name,
			Phone:      lead.Phone,
			Email:      lead.Email,
			Created:    lead.Created,
		},
		DistributionInfo: info,
	}, nil
}

// place draws operators until one accepts the contact. A draw that loses
// the capacity race (or hits an operator deactivated mid-flight) removes
// that operator from the pool and redraws; an exhausted pool falls back to
// an unassigned insert.
func (s *Service) place(ctx context.Context, params repository.CreateParams, candidates []distrepo.Candidate) (repository.Contact, error) {
	pool := candidates
	for len(pool) > 0 {
		cand, ok := s.router.Pick(pool)
		if !ok {
			break
		}
		contact, err := s.store.CreateAssigned(ctx, params, cand.OperatorID)
		if errors.Is(err, repository.ErrOperatorSaturated) || errors.Is(err, repository.ErrOperatorUnavailable) {
			pool = withoutOperator(pool, cand.OperatorID)
			continue
		}
		if err != nil {
			return repository.Contact{}, err
		}
		return contact, nil
	}
	return s.store.CreateUnassigned(ctx, params)
}

func (s *Service) List(ctx context.Context, statusFilter *string) ([]transport.ContactResponse, error) {
	var status *domain.Status
	if statusFilter != nil {
		st := domain.Status(*statusFilter)
		if !st.Valid() {
			return nil, apperr.Validation(fmt.Sprintf("unknown status %q", *statusFilter))
		}
		status = &st
	}

	contacts, err := s.store.List(ctx, status)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list contacts", err)
	}

	responses := make([]transport.ContactResponse, 0, len(contacts))
	for _, c := range contacts {
		responses = append(responses, toResponse(c))
	}
	return responses, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.ContactResponse, error) {
	contact, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.ContactResponse{}, apperr.NotFound("contact not found")
	}
	if err != nil {
		return transport.ContactResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load contact", err)
	}
	return toResponse(contact), nil
}

// UpdateStatus moves a contact forward through its lifecycle. Backward and
// repeated transitions are rejected; a concurrent transition that lands
// first wins and this call reports a conflict.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req transport.UpdateContactStatusRequest) (transport.ContactResponse, error) {
	target := domain.Status(req.Status)

	current, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.ContactResponse{}, apperr.NotFound("contact not found")
	}
	if err != nil {
		return transport.ContactResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load contact", err)
	}

	if !domain.CanTransition(current.Status, target) {
		return transport.ContactResponse{}, apperr.Conflict(
			fmt.Sprintf("cannot transition contact from %q to %q", current.Status, target))
	}

	updated, err := s.store.UpdateStatus(ctx, id, current.Status, target)
	if errors.Is(err, repository.ErrStaleStatus) {
		return transport.ContactResponse{}, apperr.Conflict("contact status changed concurrently")
	}
	if errors.Is(err, repository.ErrNotFound) {
		return transport.ContactResponse{}, apperr.NotFound("contact not found")
	}
	if err != nil {
		return transport.ContactResponse{}, apperr.Wrap(apperr.KindInternal, "failed to update contact status", err)
	}

	s.bus.Publish(ctx, events.ContactStatusChanged{
		BaseEvent:  events.NewBaseEvent(),
		ContactID:  updated.ID,
		OperatorID: updated.OperatorID,
		OldStatus:  string(current.Status),
		NewStatus:  string(updated.Status),
	})
	return toResponse(updated), nil
}

// Reassign redraws the contact's operator from the source's current
// candidate set. When the set is empty or fully saturated the contact is
// left unassigned rather than kept on its previous operator.
func (s *Service) Reassign(ctx context.Context, id uuid.UUID) (transport.ContactResponse, error) {
	current, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.ContactResponse{}, apperr.NotFound("contact not found")
	}
	if err != nil {
		return transport.ContactResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load contact", err)
	}
	if current.Status.Terminal() {
		return transport.ContactResponse{}, apperr.Conflict("closed contact cannot be reassigned")
	}

	candidates, err := s.router.Eligible(ctx, current.SourceID)
	if err != nil {
		return transport.ContactResponse{}, err
	}

	pool := candidates
	for len(pool) > 0 {
		cand, ok := s.router.Pick(pool)
		if !ok {
			break
		}
		contact, err := s.store.Assign(ctx, id, cand.OperatorID)
		if errors.Is(err, repository.ErrOperatorSaturated) || errors.Is(err, repository.ErrOperatorUnavailable) {
			pool = withoutOperator(pool, cand.OperatorID)
			continue
		}
		if errors.Is(err, repository.ErrContactClosed) {
			return transport.ContactResponse{}, apperr.Conflict("closed contact cannot be reassigned")
		}
		if errors.Is(err, repository.ErrNotFound) {
			return transport.ContactResponse{}, apperr.NotFound("contact not found")
		}
		if err != nil {
			return transport.ContactResponse{}, apperr.Wrap(apperr.KindInternal, "failed to reassign contact", err)
		}
		s.logger.Distribution(contact.SourceCode, operatorLabel(contact.OperatorID), distservice.DescribeDistribution(candidates))
		return toResponse(contact), nil
	}

	contact, err := s.store.Unassign(ctx, id)
	if errors.Is(err, repository.ErrContactClosed) {
		return transport.ContactResponse{}, apperr.Conflict("closed contact cannot be reassigned")
	}
	if errors.Is(err, repository.ErrNotFound) {
		return transport.ContactResponse{}, apperr.NotFound("contact not found")
	}
	if err != nil {
		return transport.ContactResponse{}, apperr.Wrap(apperr.KindInternal, "failed to reassign contact", err)
	}
	return toResponse(contact), nil
}

func (s *Service) scheduleFollowup(ctx context.Context, contact repository.Contact) {
	if s.scheduler == nil {
		return
	}
	err := s.scheduler.ScheduleContactFollowup(ctx, scheduler.ContactFollowupPayload{
		ContactID:  contact.ID.String(),
		SourceCode: contact.SourceCode,
	}, s.cfg.GetContactFollowupDelay())
	if err != nil {
		// Follow-up is best effort; ingest already succeeded.
		s.logger.Error("failed to schedule contact followup", "error", err, "contact_id", contact.ID)
	}
}

func withoutOperator(candidates []distrepo.Candidate, operatorID uuid.UUID) []distrepo.Candidate {
	remaining := make([]distrepo.Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if cand.OperatorID != operatorID {
			remaining = append(remaining, cand)
		}
	}
	return remaining
}

func operatorLabel(id *uuid.UUID) string {
	if id == nil {
		return "unassigned"
	}
	return id.String()
}

func toResponse(c repository.Contact) transport.ContactResponse {
	return transport.ContactResponse{
		ID:           c.ID,
		LeadID:       c.LeadID,
		SourceID:     c.SourceID,
		SourceCode:   c.SourceCode,
		OperatorID:   c.OperatorID,
		OperatorName: c.OperatorName,
		Status:       string(c.Status),
		Message:      c.Message,
		CreatedAt:    c.CreatedAt,
		AssignedAt:   c.AssignedAt,
		ClosedAt:     c.ClosedAt,
	}
}
