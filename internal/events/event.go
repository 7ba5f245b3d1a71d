// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadrouter_backend/platform/events"
	"leadrouter_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = func(log *logger.Logger) *InMemoryBus { return events.NewInMemoryBus(log) }
)

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published when a new lead is first seen.
type LeadCreated struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	ExternalID string    `json:"externalId"`
	SourceCode string    `json:"sourceCode"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// =============================================================================
// Contact Domain Events
// =============================================================================

// ContactCreated is published when an inbound contact has been persisted.
// OperatorID is nil when no eligible operator had spare capacity.
type ContactCreated struct {
	BaseEvent
	ContactID  uuid.UUID  `json:"contactId"`
	LeadID     uuid.UUID  `json:"leadId"`
	SourceID   uuid.UUID  `json:"sourceId"`
	SourceCode string     `json:"sourceCode"`
	OperatorID *uuid.UUID `json:"operatorId,omitempty"`
}

func (e ContactCreated) EventName() string { return "contacts.contact.created" }

// ContactStatusChanged is published on every successful status transition.
type ContactStatusChanged struct {
	BaseEvent
	ContactID  uuid.UUID  `json:"contactId"`
	OperatorID *uuid.UUID `json:"operatorId,omitempty"`
	OldStatus  string     `json:"oldStatus"`
	NewStatus  string     `json:"newStatus"`
}

func (e ContactStatusChanged) EventName() string { return "contacts.contact.status_changed" }

// ContactFollowupDue is published by the worker when a contact is still
// untouched after the follow-up delay. Subscribers notify; nothing re-routes.
type ContactFollowupDue struct {
	BaseEvent
	ContactID uuid.UUID `json:"contactId"`
	Status    string    `json:"status"`
}

func (e ContactFollowupDue) EventName() string { return "contacts.contact.followup_due" }
