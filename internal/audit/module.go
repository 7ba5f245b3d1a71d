// Package audit subscribes to the domain events and persists them as an
// activity trail. It is not HTTP-facing; the trail is read out-of-band
// (support tooling, ad-hoc SQL).
package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"leadrouter_backend/internal/audit/repository"
	"leadrouter_backend/internal/events"
	"leadrouter_backend/platform/logger"
)

// ActivityWriter persists one activity entry.
type ActivityWriter interface {
	Insert(ctx context.Context, entry repository.Entry) error
}

// Module is the audit event consumer.
type Module struct {
	writer ActivityWriter
	log    *logger.Logger
}

// NewModule creates the audit module backed by the activity_log table.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	return &Module{writer: repository.New(pool), log: log}
}

// NewModuleWithWriter wires a custom writer; used by tests.
func NewModuleWithWriter(writer ActivityWriter, log *logger.Logger) *Module {
	return &Module{writer: writer, log: log}
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadCreated{}.EventName(), m)
	bus.Subscribe(events.ContactCreated{}.EventName(), m)
	bus.Subscribe(events.ContactStatusChanged{}.EventName(), m)
	bus.Subscribe(events.ContactFollowupDue{}.EventName(), m)

	m.log.Info("audit module registered event handlers")
}

// Handle routes events to the activity trail.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadCreated:
		return m.writer.Insert(ctx, repository.Entry{
			EventName:  e.EventName(),
			LeadID:     &e.LeadID,
			Detail:     fmt.Sprintf("lead %s first seen via source %s", e.ExternalID, e.SourceCode),
			OccurredAt: e.OccurredAt(),
		})
	case events.ContactCreated:
		detail := fmt.Sprintf("contact from source %s", e.SourceCode)
		if e.OperatorID == nil {
			detail += ", no operator had spare capacity"
		}
		return m.writer.Insert(ctx, repository.Entry{
			EventName:  e.EventName(),
			LeadID:     &e.LeadID,
			ContactID:  &e.ContactID,
			OperatorID: e.OperatorID,
			Detail:     detail,
			OccurredAt: e.OccurredAt(),
		})
	case events.ContactStatusChanged:
		return m.writer.Insert(ctx, repository.Entry{
			EventName:  e.EventName(),
			ContactID:  &e.ContactID,
			OperatorID: e.OperatorID,
			Detail:     fmt.Sprintf("status %s -> %s", e.OldStatus, e.NewStatus),
			OccurredAt: e.OccurredAt(),
		})
	case events.ContactFollowupDue:
		return m.writer.Insert(ctx, repository.Entry{
			EventName:  e.EventName(),
			ContactID:  &e.ContactID,
			Detail:     fmt.Sprintf("contact still %s after followup delay", e.Status),
			OccurredAt: e.OccurredAt(),
		})
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}
