package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

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

// ============================================================================
// Fakes
// ============================================================================

type fakeOperator struct {
	name   string
	active bool
	max    int
}

// fakeStore mirrors the repository's capacity gate in memory: the insert and
// the load check happen under one lock, so it exhibits the same behavior
// under concurrent ingest.
type fakeStore struct {
	mu          sync.Mutex
	operators   map[uuid.UUID]fakeOperator
	sourceCodes map[uuid.UUID]string
	contacts    map[uuid.UUID]repository.Contact
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		operators:   map[uuid.UUID]fakeOperator{},
		sourceCodes: map[uuid.UUID]string{},
		contacts:    map[uuid.UUID]repository.Contact{},
	}
}

func (s *fakeStore) loadLocked(operatorID uuid.UUID) int {
	load := 0
	for _, c := range s.contacts {
		if c.OperatorID != nil && *c.OperatorID == operatorID &&
			(c.Status == domain.StatusNew || c.Status == domain.StatusInProgress) {
			load++
		}
	}
	return load
}

func (s *fakeStore) newContactLocked(params repository.CreateParams) repository.Contact {
	return repository.Contact{
		ID:         uuid.New(),
		LeadID:     params.LeadID,
		SourceID:   params.SourceID,
		SourceCode: s.sourceCodes[params.SourceID],
		Status:     domain.StatusNew,
		Message:    params.Message,
		CreatedAt:  time.Now(),
	}
}

func (s *fakeStore) CreateAssigned(_ context.Context, params repository.CreateParams, operatorID uuid.UUID) (repository.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.operators[operatorID]
	if !ok || !op.active {
		return repository.Contact{}, repository.ErrOperatorUnavailable
	}
	if s.loadLocked(operatorID) >= op.max {
		return repository.Contact{}, repository.ErrOperatorSaturated
	}

	contact := s.newContactLocked(params)
	now := time.Now()
	name := op.name
	contact.OperatorID = &operatorID
	contact.OperatorName = &name
	contact.AssignedAt = &now
	s.contacts[contact.ID] = contact
	return contact, nil
}

func (s *fakeStore) CreateUnassigned(_ context.Context, params repository.CreateParams) (repository.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact := s.newContactLocked(params)
	s.contacts[contact.ID] = contact
	return contact, nil
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.contacts[id]
	if !ok {
		return repository.Contact{}, repository.ErrNotFound
	}
	return contact, nil
}

func (s *fakeStore) List(_ context.Context, status *domain.Status) ([]repository.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contacts := []repository.Contact{}
	for _, c := range s.contacts {
		if status == nil || c.Status == *status {
			contacts = append(contacts, c)
		}
	}
	return contacts, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to domain.Status) (repository.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.contacts[id]
	if !ok {
		return repository.Contact{}, repository.ErrNotFound
	}
	if contact.Status != from {
		return repository.Contact{}, repository.ErrStaleStatus
	}
	contact.Status = to
	if to == domain.StatusClosed {
		now := time.Now()
		contact.ClosedAt = &now
	}
	s.contacts[id] = contact
	return contact, nil
}

func (s *fakeStore) Assign(_ context.Context, id, operatorID uuid.UUID) (repository.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.contacts[id]
	if !ok {
		return repository.Contact{}, repository.ErrNotFound
	}
	if contact.Status == domain.StatusClosed {
		return repository.Contact{}, repository.ErrContactClosed
	}

	op, ok := s.operators[operatorID]
	if !ok || !op.active {
		return repository.Contact{}, repository.ErrOperatorUnavailable
	}
	load := 0
	for cid, c := range s.contacts {
		if cid != id && c.OperatorID != nil && *c.OperatorID == operatorID &&
			(c.Status == domain.StatusNew || c.Status == domain.StatusInProgress) {
			load++
		}
	}
	if load >= op.max {
		return repository.Contact{}, repository.ErrOperatorSaturated
	}

	now := time.Now()
	name := op.name
	contact.OperatorID = &operatorID
	contact.OperatorName = &name
	contact.AssignedAt = &now
	s.contacts[id] = contact
	return contact, nil
}

func (s *fakeStore) Unassign(_ context.Context, id uuid.UUID) (repository.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.contacts[id]
	if !ok {
		return repository.Contact{}, repository.ErrNotFound
	}
	if contact.Status == domain.StatusClosed {
		return repository.Contact{}, repository.ErrContactClosed
	}
	contact.OperatorID = nil
	contact.OperatorName = nil
	contact.AssignedAt = nil
	s.contacts[id] = contact
	return contact, nil
}

type fakeLeads struct {
	mu    sync.Mutex
	leads map[string]leadservice.ResolvedLead
}

func newFakeLeads() *fakeLeads {
	return &fakeLeads{leads: map[string]leadservice.ResolvedLead{}}
}

func (f *fakeLeads) Resolve(_ context.Context, params leadservice.ResolveParams) (leadservice.ResolvedLead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if lead, ok := f.leads[params.ExternalID]; ok {
		lead.Created = false
		return lead, nil
	}
	lead := leadservice.ResolvedLead{
		ID:         uuid.New(),
		ExternalID: params.ExternalID,
		Name:       params.Name,
		Phone:      params.Phone,
		Email:      params.Email,
		Created:    true,
	}
	f.leads[params.ExternalID] = lead
	return lead, nil
}

type fakeSources struct {
	byCode map[string]sourcetransport.SourceResponse
}

func (f *fakeSources) GetByCode(_ context.Context, code string) (sourcetransport.SourceResponse, error) {
	src, ok := f.byCode[code]
	if !ok {
		return sourcetransport.SourceResponse{}, apperr.NotFound("source not found")
	}
	return src, nil
}

type fakeRouter struct {
	picker     *distservice.Picker
	candidates []distrepo.Candidate
}

func (f *fakeRouter) Eligible(_ context.Context, _ uuid.UUID) ([]distrepo.Candidate, error) {
	return f.candidates, nil
}

func (f *fakeRouter) Pick(candidates []distrepo.Candidate) (distrepo.Candidate, bool) {
	return f.picker.Pick(candidates)
}

type captureBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *captureBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *captureBus) PublishSync(_ context.Context, event events.Event) error {
	b.Publish(context.Background(), event)
	return nil
}

func (b *captureBus) Subscribe(string, events.Handler) {}

func (b *captureBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.published))
	for _, e := range b.published {
		names = append(names, e.EventName())
	}
	return names
}

type captureScheduler struct {
	mu       sync.Mutex
	payloads []scheduler.ContactFollowupPayload
}

func (c *captureScheduler) ScheduleContactFollowup(_ context.Context, payload scheduler.ContactFollowupPayload, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, payload)
	return nil
}

// ============================================================================
// Fixture
// ============================================================================

type fixture struct {
	svc       *Service
	store     *fakeStore
	router    *fakeRouter
	sources   *fakeSources
	bus       *captureBus
	followups *captureScheduler
	sourceID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newFakeStore()
	sourceID := uuid.New()
	store.sourceCodes[sourceID] = "website"

	srcs := &fakeSources{byCode: map[string]sourcetransport.SourceResponse{
		"website": {ID: sourceID, Name: "Website", Code: "website", IsActive: true},
	}}
	router := &fakeRouter{picker: distservice.NewPicker(1)}
	bus := &captureBus{}
	followups := &captureScheduler{}

	cfg := &config.Config{ContactFollowupDelay: time.Minute}
	svc := New(store, newFakeLeads(), srcs, router, bus, followups, cfg, logger.New("development"))

	return &fixture{
		svc:       svc,
		store:     store,
		router:    router,
		sources:   srcs,
		bus:       bus,
		followups: followups,
		sourceID:  sourceID,
	}
}

// addSource registers an additional active source with the directory and
// the store.
func (f *fixture) addSource(code string) uuid.UUID {
	id := uuid.New()
	f.store.sourceCodes[id] = code
	f.sources.byCode[code] = sourcetransport.SourceResponse{ID: id, Name: code, Code: code, IsActive: true}
	return id
}

// addOperator registers an operator with the store and the router's
// candidate set in one step.
func (f *fixture) addOperator(name string, weight, capacity int) uuid.UUID {
	id := uuid.New()
	f.store.operators[id] = fakeOperator{name: name, active: true, max: capacity}
	f.router.candidates = append(f.router.candidates, distrepo.Candidate{
		OperatorID:        id,
		OperatorName:      name,
		Weight:            weight,
		MaxActiveContacts: capacity,
	})
	return id
}

func ingestRequest(externalID string) transport.IngestContactRequest {
	msg := "hello"
	return transport.IngestContactRequest{
		LeadExternalID: externalID,
		SourceCode:     "website",
		Message:        &msg,
	}
}

// ============================================================================
// Ingest
// ============================================================================

func TestIngest_AssignsOperatorAndPublishesEvents(t *testing.T) {
	f := newFixture(t)
	opID := f.addOperator("Alice", 10, 5)

	result, err := f.svc.Ingest(context.Background(), ingestRequest("ext-1"))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if result.Contact.OperatorID == nil || *result.Contact.OperatorID != opID {
		t.Fatalf("expected contact assigned to %s, got %v", opID, result.Contact.OperatorID)
	}
	if result.Contact.Status != "new" {
		t.Fatalf("expected status new, got %q", result.Contact.Status)
	}
	if result.Contact.AssignedAt == nil {
		t.Fatal("expected assigned_at to be set")
	}
	if !result.Lead.Created {
		t.Fatal("first contact for an external id must create the lead")
	}
	if result.DistributionInfo == "" {
		t.Fatal("expected distribution info")
	}

	names := f.bus.names()
	if len(names) != 2 || names[0] != "leads.lead.created" || names[1] != "contacts.contact.created" {
		t.Fatalf("unexpected events: %v", names)
	}
	if len(f.followups.payloads) != 1 {
		t.Fatalf("expected 1 followup scheduled, got %d", len(f.followups.payloads))
	}
	if f.followups.payloads[0].ContactID != result.Contact.ID.String() {
		t.Fatal("followup payload must reference the created contact")
	}
}

func TestIngest_UnknownSource(t *testing.T) {
	f := newFixture(t)
	f.addOperator("Alice", 10, 5)

	req := ingestRequest("ext-1")
	req.SourceCode = "nope"
	_, err := f.svc.Ingest(context.Background(), req)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestIngest_InactiveSource(t *testing.T) {
	f := newFixture(t)
	f.addOperator("Alice", 10, 5)
	src := f.sources.byCode["website"]
	src.IsActive = false
	f.sources.byCode["website"] = src

	_, err := f.svc.Ingest(context.Background(), ingestRequest("ext-1"))
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestIngest_NoCandidatesFallsBackToUnassigned(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Ingest(context.Background(), ingestRequest("ext-1"))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.Contact.OperatorID != nil {
		t.Fatal("expected unassigned contact")
	}
	if result.DistributionInfo != "no eligible operators" {
		t.Fatalf("unexpected distribution info %q", result.DistributionInfo)
	}
}

func TestIngest_RedrawsPastSaturatedOperator(t *testing.T) {
	f := newFixture(t)
	f.addOperator("Full", 1000, 0)
	spareID := f.addOperator("Spare", 1, 5)

	result, err := f.svc.Ingest(context.Background(), ingestRequest("ext-1"))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.Contact.OperatorID == nil || *result.Contact.OperatorID != spareID {
		t.Fatalf("expected redraw onto spare operator, got %v", result.Contact.OperatorID)
	}
}

func TestIngest_AllOperatorsSaturated(t *testing.T) {
	f := newFixture(t)
	f.addOperator("Full A", 10, 0)
	f.addOperator("Full B", 20, 0)

	result, err := f.svc.Ingest(context.Background(), ingestRequest("ext-1"))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.Contact.OperatorID != nil {
		t.Fatal("expected unassigned contact when every operator is at capacity")
	}
}

func TestIngest_ExistingLeadIsReused(t *testing.T) {
	f := newFixture(t)
	f.addOperator("Alice", 10, 5)

	first, err := f.svc.Ingest(context.Background(), ingestRequest("ext-1"))
	if err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	second, err := f.svc.Ingest(context.Background(), ingestRequest("ext-1"))
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}

	if second.Lead.Created {
		t.Fatal("second contact must reuse the existing lead")
	}
	if first.Lead.ID != second.Lead.ID {
		t.Fatal("both contacts must resolve to the same lead")
	}
	if first.Contact.ID == second.Contact.ID {
		t.Fatal("each ingest must create its own contact")
	}

	// lead.created exactly once across both ingests
	created := 0
	for _, name := range f.bus.names() {
		if name == "leads.lead.created" {
			created++
		}
	}
	if created != 1 {
		t.Fatalf("expected 1 lead.created event, got %d", created)
	}
}

// The same external id arriving through two different sources must produce
// two contacts sharing one lead: lead identity is channel-independent.
func TestIngest_SameExternalIDAcrossSourcesSharesOneLead(t *testing.T) {
	f := newFixture(t)
	f.addOperator("Alice", 10, 5)
	telegramID := f.addSource("telegram")

	first, err := f.svc.Ingest(context.Background(), ingestRequest("ext-x"))
	if err != nil {
		t.Fatalf("ingest via website failed: %v", err)
	}

	req := ingestRequest("ext-x")
	req.SourceCode = "telegram"
	second, err := f.svc.Ingest(context.Background(), req)
	if err != nil {
		t.Fatalf("ingest via telegram failed: %v", err)
	}

	if first.Lead.ID != second.Lead.ID {
		t.Fatal("both sources must resolve to the same lead")
	}
	if second.Lead.Created {
		t.Fatal("the second source must reuse the lead, not create one")
	}
	if first.Contact.ID == second.Contact.ID {
		t.Fatal("each source must get its own contact")
	}
	if first.Contact.SourceID == second.Contact.SourceID {
		t.Fatal("contacts must record their own source")
	}
	if second.Contact.SourceID != telegramID {
		t.Fatalf("second contact must belong to telegram, got %s", second.Contact.SourceID)
	}
	if second.Contact.LeadID != first.Lead.ID {
		t.Fatal("second contact must hang off the shared lead")
	}
}

// The capacity gate must hold under concurrent ingest: with one operator of
// capacity 3 and 20 parallel requests, exactly 3 contacts end up assigned.
func TestIngest_CapacityHeldUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	opID := f.addOperator("Alice", 10, 3)

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 20; i++ {
		externalID := "ext-" + uuid.NewString()
		g.Go(func() error {
			_, err := f.svc.Ingest(ctx, ingestRequest(externalID))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent ingest failed: %v", err)
	}

	assigned := 0
	unassigned := 0
	f.store.mu.Lock()
	for _, c := range f.store.contacts {
		switch {
		case c.OperatorID != nil && *c.OperatorID == opID:
			assigned++
		case c.OperatorID == nil:
			unassigned++
		}
	}
	f.store.mu.Unlock()

	if assigned != 3 {
		t.Fatalf("expected exactly 3 assigned contacts, got %d", assigned)
	}
	if unassigned != 17 {
		t.Fatalf("expected 17 unassigned contacts, got %d", unassigned)
	}
}

// ============================================================================
// Status transitions
// ============================================================================

func TestUpdateStatus_ForwardTransitions(t *testing.T) {
	f := newFixture(t)
	f.addOperator("Alice", 10, 5)

	result, err := f.svc.Ingest(context.Background(), ingestRequest("ext-1"))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	id := result.Contact.ID

	updated, err := f.svc.UpdateStatus(context.Background(), id, transport.UpdateContactStatusRequest{Status: "in_progress"})
	if err != nil {
		t.Fatalf("new -> in_progress failed: %v", err)
	}
	if updated.Status != "in_progress" {
		t.Fatalf("got status %q", updated.Status)
	}

	updated, err = f.svc.UpdateStatus(context.Background(), id, transport.UpdateContactStatusRequest{Status: "closed"})
	if err != nil {
		t.Fatalf("in_progress -> closed failed: %v", err)
	}
	if updated.Status != "closed" {
		t.Fatalf("got status %q", updated.Status)
	}
	if updated.ClosedAt == nil {
		t.Fatal("closing must set closed_at")
	}

	changed := 0
	for _, name := range f.bus.names() {
		if name == "contacts.contact.status_changed" {
			changed++
		}
	}
	if changed != 2 {
		t.Fatalf("expected 2 status_changed events, got %d", changed)
	}
}

func TestUpdateStatus_RejectsBackwardAndRepeatedMoves(t *testing.T) {
	f := newFixture(t)
	f.addOperator("Alice", 10, 5)

	result, err := f.svc.Ingest(context.Background(), ingestRequest("ext-1"))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	id := result.Contact.ID

	if _, err := f.svc.UpdateStatus(context.Background(), id, transport.UpdateContactStatusRequest{Status: "new"}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("new -> new: expected conflict, got %v", err)
	}

	if _, err := f.svc.UpdateStatus(context.Background(), id, transport.UpdateContactStatusRequest{Status: "closed"}); err != nil {
		t.Fatalf("new -> closed failed: %v", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), id, transport.UpdateContactStatusRequest{Status: "in_progress"}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("closed -> in_progress: expected conflict, got %v", err)
	}
}

func TestUpdateStatus_UnknownContact(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateStatus(context.Background(), uuid.New(), transport.UpdateContactStatusRequest{Status: "closed"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// ============================================================================
// Reassign
// ============================================================================

func TestReassign_MovesContactToEligibleOperator(t *testing.T) {
	f := newFixture(t)
	firstID := f.addOperator("Alice", 10, 5)

	result, err := f.svc.Ingest(context.Background(), ingestRequest("ext-1"))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	// Alice leaves; Bob takes over the source.
	f.store.operators[firstID] = fakeOperator{name: "Alice", active: false, max: 5}
	bobID := f.addOperator("Bob", 10, 5)
	f.router.candidates = f.router.candidates[1:]

	reassigned, err := f.svc.Reassign(context.Background(), result.Contact.ID)
	if err != nil {
		t.Fatalf("reassign failed: %v", err)
	}
	if reassigned.OperatorID == nil || *reassigned.OperatorID != bobID {
		t.Fatalf("expected contact on Bob, got %v", reassigned.OperatorID)
	}
}

func TestReassign_FallsBackToUnassigned(t *testing.T) {
	f := newFixture(t)
	f.addOperator("Alice", 10, 5)

	result, err := f.svc.Ingest(context.Background(), ingestRequest("ext-1"))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	// No eligible operators remain for the source.
	f.router.candidates = nil

	reassigned, err := f.svc.Reassign(context.Background(), result.Contact.ID)
	if err != nil {
		t.Fatalf("reassign failed: %v", err)
	}
	if reassigned.OperatorID != nil {
		t.Fatal("expected contact left unassigned")
	}
	if reassigned.AssignedAt != nil {
		t.Fatal("expected assigned_at cleared")
	}
}

func TestReassign_ClosedContact(t *testing.T) {
	f := newFixture(t)
	f.addOperator("Alice", 10, 5)

	result, err := f.svc.Ingest(context.Background(), ingestRequest("ext-1"))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), result.Contact.ID, transport.UpdateContactStatusRequest{Status: "closed"}); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if _, err := f.svc.Reassign(context.Background(), result.Contact.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

// ============================================================================
// List
// ============================================================================

func TestList_FiltersByStatus(t *testing.T) {
	f := newFixture(t)
	f.addOperator("Alice", 10, 5)

	first, err := f.svc.Ingest(context.Background(), ingestRequest("ext-1"))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if _, err := f.svc.Ingest(context.Background(), ingestRequest("ext-2")); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), first.Contact.ID, transport.UpdateContactStatusRequest{Status: "closed"}); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	filter := "new"
	contacts, err := f.svc.List(context.Background(), &filter)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(contacts) != 1 {
		t.Fatalf("expected 1 new contact, got %d", len(contacts))
	}

	all, err := f.svc.List(context.Background(), nil)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(all))
	}

	bogus := "bogus"
	if _, err := f.svc.List(context.Background(), &bogus); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
