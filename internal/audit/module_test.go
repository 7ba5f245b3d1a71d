package audit

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"leadrouter_backend/internal/audit/repository"
	"leadrouter_backend/internal/events"
	"leadrouter_backend/platform/logger"
)

type captureWriter struct {
	mu      sync.Mutex
	entries []repository.Entry
}

func (w *captureWriter) Insert(_ context.Context, entry repository.Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, entry)
	return nil
}

func TestHandle_WritesTrailForEveryDomainEvent(t *testing.T) {
	writer := &captureWriter{}
	module := NewModuleWithWriter(writer, logger.New("development"))

	bus := events.NewInMemoryBus(logger.New("development"))
	module.RegisterHandlers(bus)

	leadID := uuid.New()
	contactID := uuid.New()
	operatorID := uuid.New()
	ctx := context.Background()

	if err := bus.PublishSync(ctx, events.LeadCreated{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     leadID,
		ExternalID: "ext-1",
		SourceCode: "website",
	}); err != nil {
		t.Fatalf("publish lead.created failed: %v", err)
	}
	if err := bus.PublishSync(ctx, events.ContactCreated{
		BaseEvent:  events.NewBaseEvent(),
		ContactID:  contactID,
		LeadID:     leadID,
		SourceID:   uuid.New(),
		SourceCode: "website",
		OperatorID: &operatorID,
	}); err != nil {
		t.Fatalf("publish contact.created failed: %v", err)
	}
	if err := bus.PublishSync(ctx, events.ContactStatusChanged{
		BaseEvent:  events.NewBaseEvent(),
		ContactID:  contactID,
		OperatorID: &operatorID,
		OldStatus:  "new",
		NewStatus:  "closed",
	}); err != nil {
		t.Fatalf("publish status_changed failed: %v", err)
	}
	if err := bus.PublishSync(ctx, events.ContactFollowupDue{
		BaseEvent: events.NewBaseEvent(),
		ContactID: contactID,
		Status:    "new",
	}); err != nil {
		t.Fatalf("publish followup_due failed: %v", err)
	}

	if len(writer.entries) != 4 {
		t.Fatalf("expected 4 trail entries, got %d", len(writer.entries))
	}

	byName := map[string]repository.Entry{}
	for _, e := range writer.entries {
		byName[e.EventName] = e
	}

	lead := byName["leads.lead.created"]
	if lead.LeadID == nil || *lead.LeadID != leadID {
		t.Fatalf("lead.created entry missing lead id: %+v", lead)
	}
	if lead.ContactID != nil {
		t.Fatal("lead.created entry must carry no contact id")
	}

	created := byName["contacts.contact.created"]
	if created.ContactID == nil || *created.ContactID != contactID {
		t.Fatalf("contact.created entry missing contact id: %+v", created)
	}
	if created.OperatorID == nil || *created.OperatorID != operatorID {
		t.Fatalf("contact.created entry missing operator id: %+v", created)
	}

	changed := byName["contacts.contact.status_changed"]
	if changed.Detail != "status new -> closed" {
		t.Fatalf("got detail %q", changed.Detail)
	}

	due := byName["contacts.contact.followup_due"]
	if due.ContactID == nil || *due.ContactID != contactID {
		t.Fatalf("followup_due entry missing contact id: %+v", due)
	}
}

func TestHandle_UnassignedContactNoted(t *testing.T) {
	writer := &captureWriter{}
	module := NewModuleWithWriter(writer, logger.New("development"))

	err := module.Handle(context.Background(), events.ContactCreated{
		BaseEvent:  events.NewBaseEvent(),
		ContactID:  uuid.New(),
		LeadID:     uuid.New(),
		SourceID:   uuid.New(),
		SourceCode: "website",
	})
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	if len(writer.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(writer.entries))
	}
	entry := writer.entries[0]
	if entry.OperatorID != nil {
		t.Fatal("entry must carry no operator id")
	}
	if entry.Detail != "contact from source website, no operator had spare capacity" {
		t.Fatalf("got detail %q", entry.Detail)
	}
}

func TestHandle_UnknownEventIsIgnored(t *testing.T) {
	writer := &captureWriter{}
	module := NewModuleWithWriter(writer, logger.New("development"))

	if err := module.Handle(context.Background(), unknownEvent{}); err != nil {
		t.Fatalf("unknown event must not fail: %v", err)
	}
	if len(writer.entries) != 0 {
		t.Fatalf("unknown event must write nothing, got %d entries", len(writer.entries))
	}
}

type unknownEvent struct {
	events.BaseEvent
}

func (unknownEvent) EventName() string { return "something.else" }
