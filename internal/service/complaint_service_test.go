package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"complaint-service/internal/model"
	"complaint-service/internal/repository"
)

// cloneComplaint copies the aggregate including its child slices, so a copy
// can be mutated in place without the change reaching the original.
func cloneComplaint(c *model.Complaint) *model.Complaint {
	out := *c
	out.RedressPayments = append([]model.RedressPayment(nil), c.RedressPayments...)
	out.Communications = append([]model.Communication(nil), c.Communications...)
	out.Tasks = append([]model.Task(nil), c.Tasks...)
	return &out
}

// fakeStore is an in-memory ComplaintStore. Transitions run on a deep copy of
// the stored aggregate and commit only on success, mirroring the rollback
// behavior of the real transactional store.
type fakeStore struct {
	mu         sync.Mutex
	complaints map[uuid.UUID]*model.Complaint
	events     []model.ComplaintEvent

	// createFailures forces the next N Create calls to report a duplicate
	// reference.
	createFailures int
}

func newFakeStore() *fakeStore {
	return &fakeStore{complaints: map[uuid.UUID]*model.Complaint{}}
}

func (s *fakeStore) Create(ctx context.Context, c *model.Complaint, created *model.ComplaintEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createFailures > 0 {
		s.createFailures--
		return repository.ErrDuplicateReference
	}
	for _, existing := range s.complaints {
		if existing.Reference == c.Reference {
			return repository.ErrDuplicateReference
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.complaints[c.ID] = cloneComplaint(c)
	created.ComplaintID = c.ID
	s.appendEventLocked(created)
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneComplaint(c), nil
}

func (s *fakeStore) List(ctx context.Context, filter repository.ComplaintFilter) ([]model.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Complaint, 0, len(s.complaints))
	for _, c := range s.complaints {
		out = append(out, *cloneComplaint(c))
	}
	return out, nil
}

func (s *fakeStore) Transition(ctx context.Context, id uuid.UUID, fn func(tx repository.ComplaintTx, c *model.Complaint) error) (*model.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.complaints[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	working := cloneComplaint(stored)
	tx := &fakeTx{store: s, complaint: working}
	if err := fn(tx, working); err != nil {
		return nil, err
	}
	s.complaints[id] = working
	for i := range tx.events {
		s.appendEventLocked(&tx.events[i])
	}
	return cloneComplaint(working), nil
}

func (s *fakeStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.complaints[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.complaints, id)
	return nil
}

func (s *fakeStore) appendEventLocked(e *model.ComplaintEvent) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now().UTC()
	s.events = append(s.events, *e)
}

func (s *fakeStore) eventTypes(complaintID uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var types []string
	for _, e := range s.events {
		if e.ComplaintID == complaintID {
			types = append(types, e.EventType)
		}
	}
	return types
}

// fakeTx buffers events until the transition commits; child records mutate
// the working aggregate directly.
type fakeTx struct {
	store     *fakeStore
	complaint *model.Complaint
	events    []model.ComplaintEvent
}

func (t *fakeTx) UpsertOutcome(o *model.Outcome) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (t *fakeTx) CreateRedress(p *model.RedressPayment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	t.complaint.RedressPayments = append(t.complaint.RedressPayments, *p)
	return nil
}

func (t *fakeTx) SaveRedress(p *model.RedressPayment) error {
	for i := range t.complaint.RedressPayments {
		if t.complaint.RedressPayments[i].ID == p.ID {
			t.complaint.RedressPayments[i] = *p
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (t *fakeTx) CreateTask(task *model.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	t.complaint.Tasks = append(t.complaint.Tasks, *task)
	return nil
}

func (t *fakeTx) CreateCommunication(cm *model.Communication) error {
	if cm.ID == uuid.Nil {
		cm.ID = uuid.New()
	}
	t.complaint.Communications = append(t.complaint.Communications, *cm)
	return nil
}

func (t *fakeTx) AppendEvent(e *model.ComplaintEvent) error {
	t.events = append(t.events, *e)
	return nil
}

type fakeAllocator struct {
	mu       sync.Mutex
	counters map[int]int
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{counters: map[int]int{}}
}

func (a *fakeAllocator) NextSequence(ctx context.Context, year int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters[year]++
	return a.counters[year], nil
}

type fakeEventStore struct {
	store *fakeStore
}

func (s *fakeEventStore) ListByComplaintID(ctx context.Context, complaintID uuid.UUID) ([]model.ComplaintEvent, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	var out []model.ComplaintEvent
	for _, e := range s.store.events {
		if e.ComplaintID == complaintID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeUserStore struct {
	users map[uuid.UUID]*model.User
}

func (s *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

type fixture struct {
	svc   *ComplaintService
	store *fakeStore
	users *fakeUserStore
}

func newFixture() *fixture {
	store := newFakeStore()
	users := &fakeUserStore{users: map[uuid.UUID]*model.User{}}
	svc := NewComplaintService(store, newFakeAllocator(), &fakeEventStore{store: store}, users, 2, 8)
	return &fixture{svc: svc, store: store, users: users}
}

func (f *fixture) addUser(role model.UserRole, name string) *model.User {
	u := &model.User{ID: uuid.New(), FullName: name, Email: name + "@example.com", Role: role}
	f.users.users[u.ID] = u
	return u
}

func handlerPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), FullName: "Case Handler", Role: model.UserRoleHandler}
}

func adminPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), FullName: "Admin", Role: model.UserRoleAdmin}
}

func validInput(receivedAt time.Time) CreateComplaintInput {
	return CreateComplaintInput{
		Source:      "phone",
		Description: "Claim handling delay on motor policy",
		Category:    "Claims Handling",
		ReceivedAt:  receivedAt,
		Complainant: ComplainantInput{FullName: "Jordan Smith"},
		Policy:      PolicyInput{PolicyNumber: "POL-100", Product: "Motor"},
	}
}

func (f *fixture) createComplaint(t *testing.T, principal model.Principal) *model.Complaint {
	t.Helper()
	c, err := f.svc.Create(context.Background(), principal, validInput(time.Now().UTC()))
	require.NoError(t, err)
	return c
}

func TestCreateComplaint(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	received := time.Date(2026, time.January, 2, 9, 0, 0, 0, time.UTC) // Friday

	c, err := f.svc.Create(context.Background(), principal, validInput(received))
	require.NoError(t, err)

	year := time.Now().UTC().Year()
	assert.Equal(t, fmt.Sprintf("CMP-%d-000001", year), c.Reference)
	assert.Equal(t, model.ComplaintStatusNew, c.Status)
	assert.Equal(t, time.Date(2026, time.January, 6, 9, 0, 0, 0, time.UTC), c.AckDueAt)
	assert.Equal(t, received.AddDate(0, 0, 56), c.FinalDueAt)
	require.NotNil(t, c.Complainant)
	assert.Equal(t, "Jordan Smith", c.Complainant.FullName)
	assert.Equal(t, []string{model.EventCreated}, f.store.eventTypes(c.ID))

	second, err := f.svc.Create(context.Background(), principal, validInput(received))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("CMP-%d-000002", year), second.Reference)
}

func TestCreateComplaintValidation(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	ctx := context.Background()

	input := validInput(time.Now().UTC())
	input.Source = ""
	_, err := f.svc.Create(ctx, principal, input)
	assert.Equal(t, KindValidation, KindOf(err))

	input = validInput(time.Now().UTC())
	input.Category = model.CategoryOtherUnclassified
	input.Reason = "  "
	_, err = f.svc.Create(ctx, principal, input)
	assert.Equal(t, KindValidation, KindOf(err))

	input.Reason = "misdirected query"
	c, err := f.svc.Create(ctx, principal, input)
	require.NoError(t, err)
	assert.False(t, c.VulnerabilityFlag)

	input = validInput(time.Now().UTC())
	input.Category = model.CategoryVulnerability
	c, err = f.svc.Create(ctx, principal, input)
	require.NoError(t, err)
	assert.True(t, c.VulnerabilityFlag)
}

func TestCreateComplaintReadOnlyDenied(t *testing.T) {
	f := newFixture()
	principal := model.Principal{UserID: uuid.New(), Role: model.UserRoleReadOnly}

	_, err := f.svc.Create(context.Background(), principal, validInput(time.Now().UTC()))
	assert.Equal(t, KindAuthorization, KindOf(err))
}

func TestCreateComplaintRetriesDuplicateReference(t *testing.T) {
	f := newFixture()
	f.store.createFailures = 2

	c := f.createComplaint(t, handlerPrincipal())

	year := time.Now().UTC().Year()
	assert.Equal(t, fmt.Sprintf("CMP-%d-000003", year), c.Reference)
}

func TestCreateComplaintRetryExhausted(t *testing.T) {
	f := newFixture()
	f.store.createFailures = 3

	_, err := f.svc.Create(context.Background(), handlerPrincipal(), validInput(time.Now().UTC()))
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestConcurrentCreatesAllocateDistinctReferences(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()

	const n = 50
	refs := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := f.svc.Create(context.Background(), principal, validInput(time.Now().UTC()))
			if assert.NoError(t, err) {
				refs <- c.Reference
			}
		}()
	}
	wg.Wait()
	close(refs)

	seen := map[string]bool{}
	for ref := range refs {
		assert.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
	assert.Len(t, seen, n)
}

func TestAcknowledge(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	c := f.createComplaint(t, principal)

	updated, err := f.svc.Acknowledge(context.Background(), principal, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStatusAcknowledged, updated.Status)
	require.NotNil(t, updated.AcknowledgedAt)
	assert.False(t, updated.AckBreached)
	assert.Contains(t, f.store.eventTypes(c.ID), model.EventAcknowledged)
}

func TestAcknowledgeIsNoOpOutsideTriggerStates(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	c := f.createComplaint(t, principal)

	_, err := f.svc.Acknowledge(context.Background(), principal, c.ID)
	require.NoError(t, err)
	_, err = f.svc.StartInvestigation(context.Background(), principal, c.ID)
	require.NoError(t, err)

	updated, err := f.svc.Acknowledge(context.Background(), principal, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStatusInInvestigation, updated.Status)

	types := f.store.eventTypes(c.ID)
	count := 0
	for _, et := range types {
		if et == model.EventAcknowledged {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestAcknowledgeLogsBreachWhenOverdue(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	received := time.Now().UTC().AddDate(0, 0, -30)
	c, err := f.svc.Create(context.Background(), principal, validInput(received))
	require.NoError(t, err)

	updated, err := f.svc.Acknowledge(context.Background(), principal, c.ID)
	require.NoError(t, err)

	assert.False(t, updated.AckBreached)
	assert.Contains(t, f.store.eventTypes(c.ID), model.EventAckSLABreached)
}

func TestDraftResponseTriggerStates(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	ctx := context.Background()
	c := f.createComplaint(t, principal)

	// new is not a trigger state for drafting
	updated, err := f.svc.DraftResponse(ctx, principal, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStatusNew, updated.Status)

	_, err = f.svc.Acknowledge(ctx, principal, c.ID)
	require.NoError(t, err)
	updated, err = f.svc.DraftResponse(ctx, principal, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStatusResponseDrafted, updated.Status)
}

func TestFinalResponseRequiresOutcome(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	ctx := context.Background()
	c := f.createComplaint(t, principal)

	_, err := f.svc.IssueFinalResponse(ctx, principal, c.ID)
	assert.Equal(t, KindPrecondition, KindOf(err))

	_, err = f.svc.RecordOutcome(ctx, principal, c.ID, model.OutcomeUpheld, "service failure confirmed", "")
	require.NoError(t, err)

	updated, err := f.svc.IssueFinalResponse(ctx, principal, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStatusFinalResponseIssued, updated.Status)
	require.NotNil(t, updated.FinalResponseAt)
	assert.False(t, updated.FinalBreached)
}

func TestRecordOutcomeRejectsUnknownType(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	c := f.createComplaint(t, principal)

	_, err := f.svc.RecordOutcome(context.Background(), principal, c.ID, "settled", "", "")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestClosePreconditions(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	ctx := context.Background()
	c := f.createComplaint(t, principal)

	_, err := f.svc.Close(ctx, principal, c.ID, nil, "")
	assert.Equal(t, KindPrecondition, KindOf(err))

	_, err = f.svc.RecordOutcome(ctx, principal, c.ID, model.OutcomeNotUpheld, "no evidence of failure", "")
	require.NoError(t, err)

	_, err = f.svc.Close(ctx, principal, c.ID, nil, "")
	assert.Equal(t, KindPrecondition, KindOf(err))

	_, err = f.svc.IssueFinalResponse(ctx, principal, c.ID)
	require.NoError(t, err)

	updated, err := f.svc.Close(ctx, principal, c.ID, nil, "customer accepted outcome")
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStatusClosed, updated.Status)
	require.NotNil(t, updated.ClosedAt)
}

func TestCloseNonReportableBypassesPreconditions(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	c := f.createComplaint(t, principal)

	updated, err := f.svc.CloseNonReportable(context.Background(), principal, c.ID, nil, "duplicate record")
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStatusClosed, updated.Status)
	assert.True(t, updated.NonReportable)
	assert.Contains(t, f.store.eventTypes(c.ID), model.EventClosedNonReportable)
}

func TestEscalateRequiresManagerTarget(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	ctx := context.Background()
	c := f.createComplaint(t, principal)

	other := f.addUser(model.UserRoleHandler, "Another Handler")
	_, err := f.svc.Escalate(ctx, principal, c.ID, other.ID)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.svc.Escalate(ctx, principal, c.ID, uuid.New())
	assert.Equal(t, KindValidation, KindOf(err))

	manager := f.addUser(model.UserRoleManager, "Casey Manager")
	updated, err := f.svc.Escalate(ctx, principal, c.ID, manager.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsEscalated)
	require.NotNil(t, updated.AssignedHandlerID)
	assert.Equal(t, manager.ID, *updated.AssignedHandlerID)
}

func TestReopenClearsClosureState(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	ctx := context.Background()
	c := f.createComplaint(t, principal)
	received := c.ReceivedAt
	finalDue := c.FinalDueAt

	_, err := f.svc.RecordOutcome(ctx, principal, c.ID, model.OutcomeUpheld, "confirmed", "")
	require.NoError(t, err)
	_, err = f.svc.IssueFinalResponse(ctx, principal, c.ID)
	require.NoError(t, err)
	_, err = f.svc.Close(ctx, principal, c.ID, nil, "")
	require.NoError(t, err)

	updated, err := f.svc.Reopen(ctx, principal, c.ID, "new evidence supplied")
	require.NoError(t, err)

	assert.Equal(t, model.ComplaintStatusReopened, updated.Status)
	assert.Nil(t, updated.ClosedAt)
	require.NotNil(t, updated.ReopenedFromID)
	assert.Equal(t, c.ID, *updated.ReopenedFromID)
	assert.False(t, updated.AckBreached)
	assert.False(t, updated.FinalBreached)
	assert.Equal(t, received, updated.ReceivedAt)
	assert.Equal(t, finalDue, updated.FinalDueAt)
}

func TestReferToFOS(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	ctx := context.Background()
	c := f.createComplaint(t, principal)

	updated, err := f.svc.ReferToFOS(ctx, principal, c.ID, "FOS-2026-777")
	require.NoError(t, err)
	assert.True(t, updated.FOSComplaint)
	assert.Equal(t, "FOS-2026-777", updated.FOSReference)
	require.NotNil(t, updated.FOSReferredAt)

	_, err = f.svc.ReferToFOS(ctx, principal, c.ID, "FOS-2026-778")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestReferToFOSReopensClosedComplaint(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	ctx := context.Background()
	c := f.createComplaint(t, principal)

	_, err := f.svc.CloseNonReportable(ctx, principal, c.ID, nil, "")
	require.NoError(t, err)

	updated, err := f.svc.ReferToFOS(ctx, principal, c.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStatusReopened, updated.Status)
	assert.Nil(t, updated.ClosedAt)
	assert.True(t, updated.FOSComplaint)
	assert.Contains(t, f.store.eventTypes(c.ID), model.EventReopened)
}

func TestAssignHandlerRoleMatrix(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	manager := model.Principal{UserID: uuid.New(), FullName: "Casey Manager", Role: model.UserRoleManager}
	handlerUser := f.addUser(model.UserRoleHandler, "Jamie Handler")
	handler := model.Principal{UserID: handlerUser.ID, FullName: handlerUser.FullName, Role: model.UserRoleHandler}
	otherHandler := f.addUser(model.UserRoleHandler, "Robin Handler")

	// handler self-assigns an unassigned complaint
	c := f.createComplaint(t, handler)
	updated, err := f.svc.AssignHandler(ctx, handler, c.ID, handlerUser.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedHandlerID)
	assert.Equal(t, handlerUser.ID, *updated.AssignedHandlerID)

	// handler cannot reassign once assigned
	_, err = f.svc.AssignHandler(ctx, handler, c.ID, handlerUser.ID)
	assert.Equal(t, KindAuthorization, KindOf(err))

	// handler cannot assign someone else
	c2 := f.createComplaint(t, handler)
	_, err = f.svc.AssignHandler(ctx, handler, c2.ID, otherHandler.ID)
	assert.Equal(t, KindAuthorization, KindOf(err))

	// manager assigns anyone, even over an existing assignment
	updated, err = f.svc.AssignHandler(ctx, manager, c.ID, otherHandler.ID)
	require.NoError(t, err)
	assert.Equal(t, otherHandler.ID, *updated.AssignedHandlerID)

	// read_only may not assign at all
	readOnly := model.Principal{UserID: uuid.New(), Role: model.UserRoleReadOnly}
	_, err = f.svc.AssignHandler(ctx, readOnly, c.ID, otherHandler.ID)
	assert.Equal(t, KindAuthorization, KindOf(err))
}

func TestUpdateCategoryAfterFinalResponse(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	ctx := context.Background()
	c := f.createComplaint(t, principal)

	_, err := f.svc.RecordOutcome(ctx, principal, c.ID, model.OutcomeUpheld, "confirmed", "")
	require.NoError(t, err)
	_, err = f.svc.IssueFinalResponse(ctx, principal, c.ID)
	require.NoError(t, err)

	category := "Premium Disputes"
	_, err = f.svc.Update(ctx, principal, c.ID, UpdateComplaintInput{Category: &category})
	require.NoError(t, err)
	assert.Contains(t, f.store.eventTypes(c.ID), model.EventCategoryChangedAfterFinal)
}

func TestUpdateVulnerabilityCategoryForcesFlag(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	c := f.createComplaint(t, principal)

	category := model.CategoryVulnerability
	updated, err := f.svc.Update(context.Background(), principal, c.ID, UpdateComplaintInput{Category: &category})
	require.NoError(t, err)
	assert.True(t, updated.VulnerabilityFlag)
}

func TestUpdateEscalationFlagEmitsEvent(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	c := f.createComplaint(t, principal)

	escalated := true
	updated, err := f.svc.Update(context.Background(), principal, c.ID, UpdateComplaintInput{IsEscalated: &escalated})
	require.NoError(t, err)
	assert.True(t, updated.IsEscalated)
	assert.Contains(t, f.store.eventTypes(c.ID), model.EventEscalationUpdated)
}

func TestAddRedress(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	ctx := context.Background()
	c := f.createComplaint(t, principal)

	amount := 250.0
	payment, err := f.svc.AddRedress(ctx, principal, c.ID, RedressInput{
		PaymentType: "goodwill",
		Amount:      &amount,
		Rationale:   "delay in claim settlement",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RedressGoodwill, payment.PaymentType)
	assert.Equal(t, model.RedressStatusAuthorised, payment.Status)
	assert.True(t, payment.Approved)
	assert.Contains(t, f.store.eventTypes(c.ID), model.EventRedressAdded)

	_, err = f.svc.AddRedress(ctx, principal, c.ID, RedressInput{PaymentType: "financial_loss"})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.svc.AddRedress(ctx, principal, c.ID, RedressInput{PaymentType: "voucher"})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestUpdateRedress(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	ctx := context.Background()
	c := f.createComplaint(t, principal)

	payment, err := f.svc.AddRedress(ctx, principal, c.ID, RedressInput{
		PaymentType:       "apology",
		ActionDescription: "written apology to be sent",
	})
	require.NoError(t, err)

	blank := "  "
	_, err = f.svc.UpdateRedress(ctx, principal, c.ID, payment.ID, RedressUpdateInput{ActionDescription: &blank})
	assert.Equal(t, KindValidation, KindOf(err))

	status := model.ActionCompleted
	updated, err := f.svc.UpdateRedress(ctx, principal, c.ID, payment.ID, RedressUpdateInput{ActionStatus: &status})
	require.NoError(t, err)
	assert.Equal(t, model.ActionCompleted, updated.ActionStatus)
	assert.Equal(t, model.RedressStatusAuthorised, updated.Status)

	_, err = f.svc.UpdateRedress(ctx, principal, c.ID, uuid.New(), RedressUpdateInput{})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestRejectedRedressUpdateLeavesStoredPaymentUntouched(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	ctx := context.Background()
	c := f.createComplaint(t, principal)

	payment, err := f.svc.AddRedress(ctx, principal, c.ID, RedressInput{
		PaymentType:       "remedial",
		ActionDescription: "retrain the claims team",
	})
	require.NoError(t, err)

	blank := "  "
	_, err = f.svc.UpdateRedress(ctx, principal, c.ID, payment.ID, RedressUpdateInput{ActionDescription: &blank})
	require.Equal(t, KindValidation, KindOf(err))

	stored, err := f.store.GetByID(ctx, c.ID)
	require.NoError(t, err)
	p := stored.RedressPaymentByID(payment.ID)
	require.NotNil(t, p)
	assert.Equal(t, "retrain the claims team", p.ActionDescription)

	status := model.ActionInProgress
	updated, err := f.svc.UpdateRedress(ctx, principal, c.ID, payment.ID, RedressUpdateInput{ActionStatus: &status})
	require.NoError(t, err)
	assert.Equal(t, model.ActionInProgress, updated.ActionStatus)
	assert.Equal(t, "retrain the claims team", updated.ActionDescription)
}

func TestAddCommunication(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	ctx := context.Background()
	c := f.createComplaint(t, principal)

	comm, err := f.svc.AddCommunication(ctx, principal, c.ID, CommunicationInput{
		Channel:    model.ChannelEmail,
		Direction:  model.DirectionOutbound,
		Summary:    "requested claim documents",
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.False(t, comm.IsFinalResponse)
	assert.Contains(t, f.store.eventTypes(c.ID), model.EventCommunicationAdded)
}

func TestFinalResponseCommunicationChainsTransition(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	ctx := context.Background()
	c := f.createComplaint(t, principal)

	input := CommunicationInput{
		Channel:         model.ChannelLetter,
		Direction:       model.DirectionOutbound,
		Summary:         "final response letter",
		OccurredAt:      time.Now().UTC(),
		IsFinalResponse: true,
	}

	_, err := f.svc.AddCommunication(ctx, principal, c.ID, input)
	assert.Equal(t, KindPrecondition, KindOf(err))

	// precondition failure must not leave a partial record behind
	current, err := f.store.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, current.Communications)

	_, err = f.svc.RecordOutcome(ctx, principal, c.ID, model.OutcomePartiallyUpheld, "partially justified", "")
	require.NoError(t, err)

	_, err = f.svc.AddCommunication(ctx, principal, c.ID, input)
	require.NoError(t, err)

	current, err = f.store.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStatusFinalResponseIssued, current.Status)
	require.NotNil(t, current.FinalResponseAt)
}

func TestAddTask(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	c := f.createComplaint(t, principal)

	task, err := f.svc.AddTask(context.Background(), principal, c.ID, TaskInput{Title: "request underwriting file"})
	require.NoError(t, err)
	assert.Equal(t, model.TaskOpen, task.Status)
	assert.Contains(t, f.store.eventTypes(c.ID), model.EventTaskAdded)

	_, err = f.svc.AddTask(context.Background(), principal, c.ID, TaskInput{Title: " "})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestDeleteComplaintAdminOnly(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	ctx := context.Background()
	c := f.createComplaint(t, principal)

	err := f.svc.Delete(ctx, principal, c.ID)
	assert.Equal(t, KindAuthorization, KindOf(err))

	admin := adminPrincipal()
	require.NoError(t, f.svc.Delete(ctx, admin, c.ID))

	err = f.svc.Delete(ctx, admin, c.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestGetRecomputesBreachFlags(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	ctx := context.Background()
	received := time.Now().UTC().AddDate(0, 0, -90)
	c, err := f.svc.Create(ctx, principal, validInput(received))
	require.NoError(t, err)
	assert.False(t, c.AckBreached)

	got, err := f.svc.Get(ctx, principal, c.ID)
	require.NoError(t, err)
	assert.True(t, got.AckBreached)
	assert.True(t, got.FinalBreached)
	assert.Contains(t, f.store.eventTypes(c.ID), model.EventAccessed)
}

func TestGetNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Get(context.Background(), handlerPrincipal(), uuid.New())
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestListEvents(t *testing.T) {
	f := newFixture()
	principal := handlerPrincipal()
	ctx := context.Background()
	c := f.createComplaint(t, principal)

	_, err := f.svc.Acknowledge(ctx, principal, c.ID)
	require.NoError(t, err)
	_, err = f.svc.StartInvestigation(ctx, principal, c.ID)
	require.NoError(t, err)

	events, err := f.svc.ListEvents(ctx, principal, c.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, model.EventCreated, events[0].EventType)
	assert.Equal(t, model.EventAcknowledged, events[1].EventType)
	assert.Equal(t, model.EventInvestigationStarted, events[2].EventType)

	_, err = f.svc.ListEvents(ctx, principal, uuid.New())
	assert.Equal(t, KindNotFound, KindOf(err))
}
