package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateOperatorRequest struct {
	Name              string `json:"name" validate:"required,min=1,max=100"`
	IsActive          *bool  `json:"isActive,omitempty"`
	MaxActiveContacts *int   `json:"maxActiveContacts,omitempty" validate:"omitempty,min=1,max=1000"`
}

type UpdateOperatorRequest struct {
	Name              *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	IsActive          *bool   `json:"isActive,omitempty"`
	MaxActiveContacts *int    `json:"maxActiveContacts,omitempty" validate:"omitempty,min=1,max=1000"`
}

// Response DTOs

type OperatorResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	IsActive          bool      `json:"isActive"`
	MaxActiveContacts int       `json:"maxActiveContacts"`
	CurrentLoad       int       `json:"currentLoad"`
	CreatedAt         time.Time `json:"createdAt"`
}

// SourceAssignmentInfo describes one source assignment in the context of an operator.
type SourceAssignmentInfo struct {
	SourceID   uuid.UUID `json:"sourceId"`
	SourceCode string    `json:"sourceCode"`
	SourceName string    `json:"sourceName"`
	Weight     int       `json:"weight"`
}

// OperatorDetailResponse is an operator with its source assignments.
type OperatorDetailResponse struct {
	OperatorResponse
	Sources []SourceAssignmentInfo `json:"sources"`
}
