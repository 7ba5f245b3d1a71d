package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateSourceRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Code        string  `json:"code" validate:"required,min=1,max=50,source_code"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

type UpdateSourceRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// Response DTOs

type SourceResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// OperatorAssignmentInfo describes one operator in the context of a source.
type OperatorAssignmentInfo struct {
	OperatorID        uuid.UUID `json:"operatorId"`
	OperatorName      string    `json:"operatorName"`
	Weight            int       `json:"weight"`
	IsActive          bool      `json:"isActive"`
	CurrentLoad       int       `json:"currentLoad"`
	MaxActiveContacts int       `json:"maxActiveContacts"`
}

// SourceDetailResponse is a source with its assigned operators.
type SourceDetailResponse struct {
	SourceResponse
	Operators []OperatorAssignmentInfo `json:"operators"`
}
