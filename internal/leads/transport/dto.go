package transport

import (
	"time"

	"github.com/google/uuid"
)

type LeadResponse struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"externalId"`
	Name       *string   `json:"name,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	Email      *string   `json:"email,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LeadContactInfo is one contact in a lead's history.
type LeadContactInfo struct {
	ID           uuid.UUID  `json:"id"`
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

// LeadDetailResponse is a lead with its contacts from every source.
type LeadDetailResponse struct {
	LeadResponse
	Contacts []LeadContactInfo `json:"contacts"`
}
