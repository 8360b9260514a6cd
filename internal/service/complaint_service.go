package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"complaint-service/internal/model"
	"complaint-service/internal/repository"
	"complaint-service/internal/sla"
)

// maxReferenceAttempts bounds the retry loop around reference allocation. A
// collision on the persisted reference burns the sequence number and tries
// again with a fresh one.
const maxReferenceAttempts = 3

const eventDescriptionLimit = 240

type ComplaintService struct {
	complaints repository.ComplaintStore
	references repository.ReferenceAllocator
	events     repository.EventStore
	users      repository.UserStore

	ackSLADays    int
	finalSLAWeeks int
}

func NewComplaintService(
	complaints repository.ComplaintStore,
	references repository.ReferenceAllocator,
	events repository.EventStore,
	users repository.UserStore,
	ackSLADays int,
	finalSLAWeeks int,
) *ComplaintService {
	return &ComplaintService{
		complaints:    complaints,
		references:    references,
		events:        events,
		users:         users,
		ackSLADays:    ackSLADays,
		finalSLAWeeks: finalSLAWeeks,
	}
}

type ComplainantInput struct {
	FullName               string
	Email                  string
	Phone                  string
	Address                string
	DateOfBirth            *time.Time
	PreferredContactMethod string
}

type PolicyInput struct {
	PolicyNumber string
	Insurer      string
	Broker       string
	Product      string
	Scheme       string
}

type CreateComplaintInput struct {
	Source             string
	Description        string
	Category           string
	Reason             string
	ReceivedAt         time.Time
	FCAComplaint       bool
	FCARationale       string
	VulnerabilityFlag  bool
	VulnerabilityNotes string
	Complainant        ComplainantInput
	Policy             PolicyInput
}

// Create allocates a reference, computes both SLA deadlines from the
// receipt time and persists the full aggregate. Allocation retries up to
// maxReferenceAttempts on a reference collision before surfacing a
// conflict.
func (s *ComplaintService) Create(ctx context.Context, principal model.Principal, input CreateComplaintInput) (*model.Complaint, error) {
	if !principal.CanWrite() {
		return nil, Authorizationf("role %s may not create complaints", principal.Role)
	}
	if strings.TrimSpace(input.Source) == "" {
		return nil, Validationf("source is required")
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, Validationf("description is required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return nil, Validationf("category is required")
	}
	if input.ReceivedAt.IsZero() {
		return nil, Validationf("received_at is required")
	}
	if strings.TrimSpace(input.Complainant.FullName) == "" {
		return nil, Validationf("complainant full name is required")
	}
	if input.Category == model.CategoryOtherUnclassified && strings.TrimSpace(input.Reason) == "" {
		return nil, Validationf("reason is required when category is %s", model.CategoryOtherUnclassified)
	}
	if input.Category == model.CategoryVulnerability {
		input.VulnerabilityFlag = true
	}

	ackDue, finalDue := sla.ComputeDueDates(input.ReceivedAt, s.ackSLADays, s.finalSLAWeeks)
	year := time.Now().UTC().Year()

	var lastErr error
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		seq, err := s.references.NextSequence(ctx, year)
		if err != nil {
			return nil, err
		}

		complaint := &model.Complaint{
			Reference:          model.FormatReference(year, seq),
			Status:             model.ComplaintStatusNew,
			Source:             input.Source,
			Description:        input.Description,
			Category:           input.Category,
			Reason:             input.Reason,
			FCAComplaint:       input.FCAComplaint,
			FCARationale:       input.FCARationale,
			VulnerabilityFlag:  input.VulnerabilityFlag,
			VulnerabilityNotes: input.VulnerabilityNotes,
			PolicyNumber:       input.Policy.PolicyNumber,
			Insurer:            input.Policy.Insurer,
			Broker:             input.Policy.Broker,
			Product:            input.Policy.Product,
			Scheme:             input.Policy.Scheme,
			ReceivedAt:         input.ReceivedAt,
			AckDueAt:           ackDue,
			FinalDueAt:         finalDue,
			Complainant: &model.Complainant{
				FullName:               input.Complainant.FullName,
				Email:                  input.Complainant.Email,
				Phone:                  input.Complainant.Phone,
				Address:                input.Complainant.Address,
				DateOfBirth:            input.Complainant.DateOfBirth,
				PreferredContactMethod: input.Complainant.PreferredContactMethod,
			},
			Policy: &model.Policy{
				PolicyNumber: input.Policy.PolicyNumber,
				Insurer:      input.Policy.Insurer,
				Broker:       input.Policy.Broker,
				Product:      input.Policy.Product,
				Scheme:       input.Policy.Scheme,
			},
		}

		created := s.event(uuid.Nil, model.EventCreated, fmt.Sprintf("Complaint created with ref %s", complaint.Reference), principal)
		err = s.complaints.Create(ctx, complaint, created)
		if err == nil {
			return complaint, nil
		}
		if !errors.Is(err, repository.ErrDuplicateReference) {
			return nil, err
		}
		lastErr = err
	}
	return nil, Conflictf("could not allocate a unique reference after %d attempts: %v", maxReferenceAttempts, lastErr)
}

// Get returns the aggregate with breach flags recomputed against the
// current time. The latest flags are persisted for filtering efficiency and
// the view is recorded in the event log.
func (s *ComplaintService) Get(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Complaint, error) {
	return s.transition(ctx, id, func(tx repository.ComplaintTx, c *model.Complaint) error {
		now := time.Now().UTC()
		c.AckBreached, c.FinalBreached = sla.BreachFlags(c.AckDueAt, c.FinalDueAt, c.AcknowledgedAt, c.FinalResponseAt, now)
		return tx.AppendEvent(s.event(c.ID, model.EventAccessed, "Complaint viewed", principal))
	})
}

type ListComplaintsOptions struct {
	Statuses      []model.ComplaintStatus
	HandlerID     *uuid.UUID
	Product       string
	Outcome       model.OutcomeType
	Vulnerability *bool
	Overdue       *bool
	Search        string
	DateFrom      *time.Time
	DateTo        *time.Time
	Limit         int
	Offset        int
}

// List returns matching complaints with breach flags recomputed live; the
// persisted flags are left untouched on this path.
func (s *ComplaintService) List(ctx context.Context, principal model.Principal, opts ListComplaintsOptions) ([]model.Complaint, error) {
	complaints, err := s.complaints.List(ctx, repository.ComplaintFilter{
		Statuses:      opts.Statuses,
		HandlerID:     opts.HandlerID,
		Product:       opts.Product,
		Outcome:       opts.Outcome,
		Vulnerability: opts.Vulnerability,
		Overdue:       opts.Overdue,
		Search:        opts.Search,
		DateFrom:      opts.DateFrom,
		DateTo:        opts.DateTo,
		Limit:         opts.Limit,
		Offset:        opts.Offset,
	})
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for i := range complaints {
		c := &complaints[i]
		c.AckBreached, c.FinalBreached = sla.BreachFlags(c.AckDueAt, c.FinalDueAt, c.AcknowledgedAt, c.FinalResponseAt, now)
	}
	return complaints, nil
}

func (s *ComplaintService) ListEvents(ctx context.Context, principal model.Principal, id uuid.UUID) ([]model.ComplaintEvent, error) {
	if _, err := s.complaints.GetByID(ctx, id); err != nil {
		return nil, s.mapStoreErr(err)
	}
	return s.events.ListByComplaintID(ctx, id)
}

// Acknowledge moves a new or reopened complaint to acknowledged. Any other
// source state is a silent no-op. An outstanding acknowledgement breach is
// recorded in the event log before the live flag clears.
func (s *ComplaintService) Acknowledge(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Complaint, error) {
	if !principal.CanWrite() {
		return nil, Authorizationf("role %s may not acknowledge complaints", principal.Role)
	}
	return s.transition(ctx, id, func(tx repository.ComplaintTx, c *model.Complaint) error {
		if c.Status != model.ComplaintStatusNew && c.Status != model.ComplaintStatusReopened {
			return nil
		}
		now := time.Now().UTC()
		if ackBreached, _ := sla.BreachFlags(c.AckDueAt, c.FinalDueAt, c.AcknowledgedAt, c.FinalResponseAt, now); ackBreached {
			if err := tx.AppendEvent(s.event(c.ID, model.EventAckSLABreached, "Acknowledgement SLA breached before acknowledgement", principal)); err != nil {
				return err
			}
		}
		c.Status = model.ComplaintStatusAcknowledged
		c.AcknowledgedAt = &now
		c.AckBreached = false
		return tx.AppendEvent(s.event(c.ID, model.EventAcknowledged, "Acknowledgement sent", principal))
	})
}

func (s *ComplaintService) StartInvestigation(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Complaint, error) {
	if !principal.CanWrite() {
		return nil, Authorizationf("role %s may not start investigations", principal.Role)
	}
	return s.transition(ctx, id, func(tx repository.ComplaintTx, c *model.Complaint) error {
		switch c.Status {
		case model.ComplaintStatusNew, model.ComplaintStatusAcknowledged, model.ComplaintStatusReopened:
		default:
			return nil
		}
		c.Status = model.ComplaintStatusInInvestigation
		return tx.AppendEvent(s.event(c.ID, model.EventInvestigationStarted, "Investigation started", principal))
	})
}

func (s *ComplaintService) DraftResponse(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Complaint, error) {
	if !principal.CanWrite() {
		return nil, Authorizationf("role %s may not draft responses", principal.Role)
	}
	return s.transition(ctx, id, func(tx repository.ComplaintTx, c *model.Complaint) error {
		switch c.Status {
		case model.ComplaintStatusInInvestigation, model.ComplaintStatusAcknowledged, model.ComplaintStatusReopened:
		default:
			return nil
		}
		c.Status = model.ComplaintStatusResponseDrafted
		return tx.AppendEvent(s.event(c.ID, model.EventResponseDrafted, "Response drafted", principal))
	})
}

// RecordOutcome upserts the single outcome record. Re-recording replaces
// the previous decision in place; each call appends its own event.
func (s *ComplaintService) RecordOutcome(ctx context.Context, principal model.Principal, id uuid.UUID, outcome model.OutcomeType, rationale, notes string) (*model.Complaint, error) {
	if !principal.CanWrite() {
		return nil, Authorizationf("role %s may not record outcomes", principal.Role)
	}
	if !outcome.Valid() {
		return nil, Validationf("unknown outcome type %q", outcome)
	}
	return s.transition(ctx, id, func(tx repository.ComplaintTx, c *model.Complaint) error {
		record := &model.Outcome{
			ComplaintID:  c.ID,
			Outcome:      outcome,
			Rationale:    rationale,
			Notes:        notes,
			RecordedByID: &principal.UserID,
			RecordedAt:   time.Now().UTC(),
		}
		if c.Outcome != nil {
			record.ID = c.Outcome.ID
		}
		if err := tx.UpsertOutcome(record); err != nil {
			return err
		}
		c.Outcome = record
		return tx.AppendEvent(s.event(c.ID, model.EventOutcomeRecorded, fmt.Sprintf("Outcome set to %s", outcome), principal))
	})
}

// IssueFinalResponse requires a recorded outcome. An outstanding
// final-response breach is logged before the live flag clears.
func (s *ComplaintService) IssueFinalResponse(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Complaint, error) {
	if !principal.CanWrite() {
		return nil, Authorizationf("role %s may not issue final responses", principal.Role)
	}
	return s.transition(ctx, id, func(tx repository.ComplaintTx, c *model.Complaint) error {
		return s.applyFinalResponse(tx, c, principal)
	})
}

func (s *ComplaintService) applyFinalResponse(tx repository.ComplaintTx, c *model.Complaint, principal model.Principal) error {
	if c.Outcome == nil {
		return Preconditionf("outcome required before final response")
	}
	now := time.Now().UTC()
	if _, finalBreached := sla.BreachFlags(c.AckDueAt, c.FinalDueAt, c.AcknowledgedAt, c.FinalResponseAt, now); finalBreached {
		if err := tx.AppendEvent(s.event(c.ID, model.EventFinalSLABreached, "Final response SLA breached before final response", principal)); err != nil {
			return err
		}
	}
	c.Status = model.ComplaintStatusFinalResponseIssued
	c.FinalResponseAt = &now
	c.FinalBreached = false
	return tx.AppendEvent(s.event(c.ID, model.EventFinalResponseIssued, "Final response issued", principal))
}

// Close requires both an outcome and an issued final response.
func (s *ComplaintService) Close(ctx context.Context, principal model.Principal, id uuid.UUID, closedAt *time.Time, comment string) (*model.Complaint, error) {
	if !principal.CanWrite() {
		return nil, Authorizationf("role %s may not close complaints", principal.Role)
	}
	return s.transition(ctx, id, func(tx repository.ComplaintTx, c *model.Complaint) error {
		if c.Outcome == nil {
			return Preconditionf("outcome required before closing complaint")
		}
		if c.FinalResponseAt == nil {
			return Preconditionf("final response required before closing complaint")
		}
		when := time.Now().UTC()
		if closedAt != nil {
			when = closedAt.UTC()
		}
		c.Status = model.ComplaintStatusClosed
		c.ClosedAt = &when
		desc := "Complaint closed"
		if comment != "" {
			desc = desc + ": " + comment
		}
		return tx.AppendEvent(s.event(c.ID, model.EventClosed, truncate(desc, eventDescriptionLimit), principal))
	})
}

// CloseNonReportable is the administrative override: it bypasses the
// outcome and final-response preconditions entirely.
func (s *ComplaintService) CloseNonReportable(ctx context.Context, principal model.Principal, id uuid.UUID, closedAt *time.Time, comment string) (*model.Complaint, error) {
	if !principal.CanWrite() {
		return nil, Authorizationf("role %s may not close complaints", principal.Role)
	}
	return s.transition(ctx, id, func(tx repository.ComplaintTx, c *model.Complaint) error {
		when := time.Now().UTC()
		if closedAt != nil {
			when = closedAt.UTC()
		}
		c.NonReportable = true
		c.Status = model.ComplaintStatusClosed
		c.ClosedAt = &when
		desc := "Closed as non-reportable"
		if comment != "" {
			desc = desc + ": " + comment
		}
		return tx.AppendEvent(s.event(c.ID, model.EventClosedNonReportable, truncate(desc, eventDescriptionLimit), principal))
	})
}

// Escalate reassigns the complaint to a complaints manager and marks it
// escalated. The target must exist and hold the manager role.
func (s *ComplaintService) Escalate(ctx context.Context, principal model.Principal, id, managerID uuid.UUID) (*model.Complaint, error) {
	if !principal.CanWrite() {
		return nil, Authorizationf("role %s may not escalate complaints", principal.Role)
	}
	manager, err := s.users.GetByID(ctx, managerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Validationf("escalation target must be a valid complaints manager")
		}
		return nil, err
	}
	if manager.Role != model.UserRoleManager {
		return nil, Validationf("escalation target must be a valid complaints manager")
	}
	return s.transition(ctx, id, func(tx repository.ComplaintTx, c *model.Complaint) error {
		c.IsEscalated = true
		c.AssignedHandlerID = &manager.ID
		return tx.AppendEvent(s.event(c.ID, model.EventEscalated, fmt.Sprintf("Escalated to %s", manager.FullName), principal))
	})
}

// Reopen clears closure state and both breach flags while preserving the
// original receipt time and due dates. The reopen reason lives in the event
// log; reopened_from_id records the case itself.
func (s *ComplaintService) Reopen(ctx context.Context, principal model.Principal, id uuid.UUID, reason string) (*model.Complaint, error) {
	if !principal.CanWrite() {
		return nil, Authorizationf("role %s may not reopen complaints", principal.Role)
	}
	return s.transition(ctx, id, func(tx repository.ComplaintTx, c *model.Complaint) error {
		s.applyReopen(c)
		desc := reason
		if strings.TrimSpace(desc) == "" {
			desc = "Complaint reopened"
		}
		return tx.AppendEvent(s.event(c.ID, model.EventReopened, truncate(desc, eventDescriptionLimit), principal))
	})
}

func (s *ComplaintService) applyReopen(c *model.Complaint) {
	self := c.ID
	c.Status = model.ComplaintStatusReopened
	c.ReopenedFromID = &self
	c.ClosedAt = nil
	c.AckBreached = false
	c.FinalBreached = false
}

// ReferToFOS records a Financial Ombudsman Service referral. A second
// referral is rejected; a closed complaint reopens first.
func (s *ComplaintService) ReferToFOS(ctx context.Context, principal model.Principal, id uuid.UUID, fosReference string) (*model.Complaint, error) {
	if !principal.CanWrite() {
		return nil, Authorizationf("role %s may not refer complaints to FOS", principal.Role)
	}
	return s.transition(ctx, id, func(tx repository.ComplaintTx, c *model.Complaint) error {
		if c.FOSComplaint {
			return Validationf("complaint already referred to FOS")
		}
		if c.Status == model.ComplaintStatusClosed {
			s.applyReopen(c)
			if err := tx.AppendEvent(s.event(c.ID, model.EventReopened, "Reopened for FOS referral", principal)); err != nil {
				return err
			}
		}
		now := time.Now().UTC()
		c.FOSComplaint = true
		c.FOSReference = fosReference
		c.FOSReferredAt = &now
		return tx.AppendEvent(s.event(c.ID, model.EventFOSReferred, "Referred to Financial Ombudsman Service", principal))
	})
}

// AssignHandler applies the assignment role matrix: admins, reviewers and
// managers assign anyone; a handler may only self-assign, and only while
// the complaint is unassigned.
func (s *ComplaintService) AssignHandler(ctx context.Context, principal model.Principal, id, handlerID uuid.UUID) (*model.Complaint, error) {
	if !principal.CanAssignOthers() && !principal.IsHandler() {
		return nil, Authorizationf("role %s may not assign handlers", principal.Role)
	}
	assignee, err := s.users.GetByID(ctx, handlerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundf("handler not found")
		}
		return nil, err
	}
	return s.transition(ctx, id, func(tx repository.ComplaintTx, c *model.Complaint) error {
		if !principal.CanAssignOthers() {
			if c.AssignedHandlerID != nil {
				return Authorizationf("complaint already assigned")
			}
			if handlerID != principal.UserID {
				return Authorizationf("handlers may only self-assign")
			}
		}
		c.AssignedHandlerID = &assignee.ID
		return tx.AppendEvent(s.event(c.ID, model.EventAssigned, fmt.Sprintf("Assigned to %s", assignee.FullName), principal))
	})
}

type UpdateComplaintInput struct {
	Source             *string
	Description        *string
	Category           *string
	Reason             *string
	FCAComplaint       *bool
	FCARationale       *string
	VulnerabilityFlag  *bool
	VulnerabilityNotes *string
	IsEscalated        *bool
}

// Update patches complaint fields. A category change at or after final
// response gets its own event type so late reclassification stays visible
// in the audit trail.
func (s *ComplaintService) Update(ctx context.Context, principal model.Principal, id uuid.UUID, input UpdateComplaintInput) (*model.Complaint, error) {
	if !principal.CanWrite() {
		return nil, Authorizationf("role %s may not update complaints", principal.Role)
	}
	return s.transition(ctx, id, func(tx repository.ComplaintTx, c *model.Complaint) error {
		originalCategory := c.Category
		originalEscalated := c.IsEscalated

		if input.Source != nil {
			c.Source = *input.Source
		}
		if input.Description != nil {
			c.Description = *input.Description
		}
		if input.Category != nil {
			c.Category = *input.Category
		}
		if input.Reason != nil {
			c.Reason = *input.Reason
		}
		if input.FCAComplaint != nil {
			c.FCAComplaint = *input.FCAComplaint
		}
		if input.FCARationale != nil {
			c.FCARationale = *input.FCARationale
		}
		if input.VulnerabilityFlag != nil {
			c.VulnerabilityFlag = *input.VulnerabilityFlag
		}
		if input.VulnerabilityNotes != nil {
			c.VulnerabilityNotes = *input.VulnerabilityNotes
		}
		if input.IsEscalated != nil {
			c.IsEscalated = *input.IsEscalated
		}

		if c.Category == model.CategoryOtherUnclassified && strings.TrimSpace(c.Reason) == "" {
			return Validationf("reason is required when category is %s", model.CategoryOtherUnclassified)
		}
		if c.Category == model.CategoryVulnerability {
			c.VulnerabilityFlag = true
		}

		afterFinal := c.Status == model.ComplaintStatusFinalResponseIssued || c.Status == model.ComplaintStatusClosed
		if c.Category != originalCategory && afterFinal {
			desc := fmt.Sprintf("Category changed from %s to %s after final response", originalCategory, c.Category)
			if err := tx.AppendEvent(s.event(c.ID, model.EventCategoryChangedAfterFinal, truncate(desc, eventDescriptionLimit), principal)); err != nil {
				return err
			}
		} else {
			if err := tx.AppendEvent(s.event(c.ID, model.EventUpdated, "Complaint updated", principal)); err != nil {
				return err
			}
		}
		if c.IsEscalated != originalEscalated {
			desc := "Escalation removed"
			if c.IsEscalated {
				desc = "Marked as escalated"
			}
			return tx.AppendEvent(s.event(c.ID, model.EventEscalationUpdated, desc, principal))
		}
		return nil
	})
}

type RedressInput struct {
	PaymentType       string
	Amount            *float64
	Rationale         string
	ActionDescription string
	ActionStatus      model.ActionStatus
	Notes             string
	OutcomeID         *uuid.UUID
}

// AddRedress validates and records a redress payment. Status and approval
// are record-only: rows always persist as authorised and approved,
// whatever the caller sent.
func (s *ComplaintService) AddRedress(ctx context.Context, principal model.Principal, id uuid.UUID, input RedressInput) (*model.RedressPayment, error) {
	if !principal.CanWrite() {
		return nil, Authorizationf("role %s may not add redress payments", principal.Role)
	}
	paymentType, err := model.ParseRedressType(input.PaymentType)
	if err != nil {
		return nil, Validationf("%v", err)
	}
	if err := ValidateRedress(paymentType, input.Amount, input.Rationale, input.ActionDescription); err != nil {
		return nil, err
	}
	actionStatus := input.ActionStatus
	if actionStatus == "" {
		actionStatus = model.ActionNotStarted
	}
	if !actionStatus.Valid() {
		return nil, Validationf("unknown action status %q", input.ActionStatus)
	}

	var payment *model.RedressPayment
	_, err = s.transition(ctx, id, func(tx repository.ComplaintTx, c *model.Complaint) error {
		if input.OutcomeID != nil && (c.Outcome == nil || c.Outcome.ID != *input.OutcomeID) {
			return Validationf("outcome does not belong to this complaint")
		}
		payment = &model.RedressPayment{
			ComplaintID:       c.ID,
			OutcomeID:         input.OutcomeID,
			Amount:            input.Amount,
			PaymentType:       paymentType,
			Status:            model.RedressStatusAuthorised,
			Rationale:         input.Rationale,
			ActionDescription: input.ActionDescription,
			ActionStatus:      actionStatus,
			Approved:          true,
			Notes:             input.Notes,
		}
		if err := tx.CreateRedress(payment); err != nil {
			return err
		}
		desc := fmt.Sprintf("Redress %s recorded", paymentType)
		if input.Amount != nil {
			desc = fmt.Sprintf("Redress %.2f %s recorded", *input.Amount, paymentType)
		}
		return tx.AppendEvent(s.event(c.ID, model.EventRedressAdded, desc, principal))
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

type RedressUpdateInput struct {
	Amount            *float64
	Rationale         *string
	ActionDescription *string
	ActionStatus      *model.ActionStatus
	Notes             *string
}

// UpdateRedress patches a payment. Non-monetary payments must keep a
// non-blank action description; status and approval stay forced.
func (s *ComplaintService) UpdateRedress(ctx context.Context, principal model.Principal, id, redressID uuid.UUID, input RedressUpdateInput) (*model.RedressPayment, error) {
	if !principal.CanWrite() {
		return nil, Authorizationf("role %s may not update redress payments", principal.Role)
	}
	var payment *model.RedressPayment
	_, err := s.transition(ctx, id, func(tx repository.ComplaintTx, c *model.Complaint) error {
		p := c.RedressPaymentByID(redressID)
		if p == nil {
			return NotFoundf("redress payment not found")
		}
		if input.Amount != nil {
			p.Amount = input.Amount
		}
		if input.Rationale != nil {
			p.Rationale = *input.Rationale
		}
		if input.ActionDescription != nil {
			p.ActionDescription = *input.ActionDescription
		}
		if input.ActionStatus != nil {
			if !input.ActionStatus.Valid() {
				return Validationf("unknown action status %q", *input.ActionStatus)
			}
			p.ActionStatus = *input.ActionStatus
		}
		if input.Notes != nil {
			p.Notes = *input.Notes
		}
		if !p.PaymentType.Monetary() && strings.TrimSpace(p.ActionDescription) == "" {
			return Validationf("action description required for non-monetary redress")
		}
		p.Status = model.RedressStatusAuthorised
		p.Approved = true
		if err := tx.SaveRedress(p); err != nil {
			return err
		}
		payment = p
		desc := fmt.Sprintf("Redress updated (action_status=%s)", p.ActionStatus)
		return tx.AppendEvent(s.event(c.ID, model.EventRedressUpdated, desc, principal))
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

type CommunicationInput struct {
	Channel         model.CommunicationChannel
	Direction       model.CommunicationDirection
	Summary         string
	OccurredAt      time.Time
	IsFinalResponse bool
}

// AddCommunication records a contact on the case. Marking it as the final
// response chains into the final-response transition, outcome precondition
// included.
func (s *ComplaintService) AddCommunication(ctx context.Context, principal model.Principal, id uuid.UUID, input CommunicationInput) (*model.Communication, error) {
	if !principal.CanWrite() {
		return nil, Authorizationf("role %s may not add communications", principal.Role)
	}
	if !input.Channel.Valid() {
		return nil, Validationf("unknown communication channel %q", input.Channel)
	}
	if !input.Direction.Valid() {
		return nil, Validationf("unknown communication direction %q", input.Direction)
	}
	if strings.TrimSpace(input.Summary) == "" {
		return nil, Validationf("summary is required")
	}
	if input.OccurredAt.IsZero() {
		return nil, Validationf("occurred_at is required")
	}

	var comm *model.Communication
	_, err := s.transition(ctx, id, func(tx repository.ComplaintTx, c *model.Complaint) error {
		if input.IsFinalResponse && c.Outcome == nil {
			return Preconditionf("outcome required before final response")
		}
		userID := principal.UserID
		comm = &model.Communication{
			ComplaintID:     c.ID,
			UserID:          &userID,
			Channel:         input.Channel,
			Direction:       input.Direction,
			Summary:         input.Summary,
			OccurredAt:      input.OccurredAt,
			IsFinalResponse: input.IsFinalResponse,
		}
		if err := tx.CreateCommunication(comm); err != nil {
			return err
		}
		if err := tx.AppendEvent(s.event(c.ID, model.EventCommunicationAdded, truncate(input.Summary, eventDescriptionLimit), principal)); err != nil {
			return err
		}
		if input.IsFinalResponse {
			return s.applyFinalResponse(tx, c, principal)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comm, nil
}

type TaskInput struct {
	Title        string
	Description  string
	Status       model.TaskStatus
	DueDate      *time.Time
	AssignedToID *uuid.UUID
	IsChecklist  bool
}

func (s *ComplaintService) AddTask(ctx context.Context, principal model.Principal, id uuid.UUID, input TaskInput) (*model.Task, error) {
	if !principal.CanWrite() {
		return nil, Authorizationf("role %s may not add tasks", principal.Role)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, Validationf("title is required")
	}
	status := input.Status
	if status == "" {
		status = model.TaskOpen
	}
	if !status.Valid() {
		return nil, Validationf("unknown task status %q", input.Status)
	}

	var task *model.Task
	_, err := s.transition(ctx, id, func(tx repository.ComplaintTx, c *model.Complaint) error {
		task = &model.Task{
			ComplaintID:  c.ID,
			Title:        input.Title,
			Description:  input.Description,
			Status:       status,
			DueDate:      input.DueDate,
			AssignedToID: input.AssignedToID,
			IsChecklist:  input.IsChecklist,
		}
		if err := tx.CreateTask(task); err != nil {
			return err
		}
		return tx.AppendEvent(s.event(c.ID, model.EventTaskAdded, truncate(input.Title, eventDescriptionLimit), principal))
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Delete is the admin-only override that removes a complaint and all owned
// records.
func (s *ComplaintService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if !principal.IsAdmin() {
		return Authorizationf("only admins may delete complaints")
	}
	if err := s.complaints.Delete(ctx, id); err != nil {
		return s.mapStoreErr(err)
	}
	return nil
}

func (s *ComplaintService) transition(ctx context.Context, id uuid.UUID, fn func(tx repository.ComplaintTx, c *model.Complaint) error) (*model.Complaint, error) {
	c, err := s.complaints.Transition(ctx, id, fn)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return c, nil
}

func (s *ComplaintService) mapStoreErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundf("complaint not found")
	}
	return err
}

func (s *ComplaintService) event(complaintID uuid.UUID, eventType, description string, principal model.Principal) *model.ComplaintEvent {
	e := &model.ComplaintEvent{
		ComplaintID: complaintID,
		EventType:   eventType,
		Description: description,
	}
	if principal.UserID != uuid.Nil {
		userID := principal.UserID
		e.CreatedByID = &userID
	}
	return e
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
