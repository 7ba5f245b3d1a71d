package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// IngestContactRequest is the inbound inquiry as a source system submits it.
// LeadExternalID plus SourceCode is the only required identity; the lead
// attributes are kept on the lead if this external id has never been seen.
type IngestContactRequest struct {
	LeadExternalID string  `json:"leadExternalId" validate:"required,min=1,max=255"`
	SourceCode     string  `json:"sourceCode" validate:"required,min=1,max=50"`
	Message        *string `json:"message,omitempty" validate:"omitempty,max=2000"`
	LeadName       *string `json:"leadName,omitempty" validate:"omitempty,max=100"`
	LeadPhone      *string `json:"leadPhone,omitempty" validate:"omitempty,max=30"`
	LeadEmail      *string `json:"leadEmail,omitempty" validate:"omitempty,email"`
}

type UpdateContactStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new in_progress closed"`
}

// Response DTOs

type ContactResponse struct {
	ID           uuid.UUID  `json:"id"`
	LeadID       uuid.UUID  `json:"leadId"`
	SourceID     uuid.UUID  `json:"sourceId"`
	SourceCode   string     `json:"sourceCode"`
	OperatorID   *uuid.UUID `json:"operatorId,omitempty"`
	OperatorName *string    `json:"operatorName,omitempty"`
	Status       string     `json:"status"`
	Message      *string    `json:"message,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	AssignedAt   *time.Time `json:"assignedAt,omitempty"`
	ClosedAt     *time.Time `json:"closedAt,omitempty"`
}

// ContactLeadInfo is the resolved lead echoed back on ingest.
type ContactLeadInfo struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"externalId"`
	Name       *string   `json:"name,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	Email      *string   `json:"email,omitempty"`
	Created    bool      `json:"created"`
}

// IngestContactResponse is the routing outcome: the persisted contact, the
// lead it resolved to, and a human-readable rendering of the candidate
// distribution the draw was made from.
type IngestContactResponse struct {
	Contact          ContactResponse `json:"contact"`
	Lead             ContactLeadInfo `json:"lead"`
	DistributionInfo string          `json:"distributionInfo"`
}
