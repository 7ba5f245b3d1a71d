package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateAssignmentRequest struct {
	OperatorID uuid.UUID `json:"operatorId" validate:"required"`
	SourceID   uuid.UUID `json:"sourceId" validate:"required"`
	Weight     int       `json:"weight" validate:"required,min=1,max=1000"`
}

type UpdateAssignmentRequest struct {
	Weight int `json:"weight" validate:"required,min=1,max=1000"`
}

// Response DTOs

type AssignmentResponse struct {
	ID         uuid.UUID `json:"id"`
	OperatorID uuid.UUID `json:"operatorId"`
	SourceID   uuid.UUID `json:"sourceId"`
	Weight     int       `json:"weight"`
	CreatedAt  time.Time `json:"createdAt"`
}
