package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event types appended by the lifecycle engine.
const (
	EventCreated                   = "created"
	EventAccessed                  = "accessed"
	EventUpdated                   = "updated"
	EventAcknowledged              = "acknowledged"
	EventInvestigationStarted      = "investigation_started"
	EventResponseDrafted           = "response_drafted"
	EventOutcomeRecorded           = "outcome_recorded"
	EventFinalResponseIssued       = "final_response_issued"
	EventClosed                    = "closed"
	EventClosedNonReportable       = "closed_non_reportable"
	EventEscalated                 = "escalated"
	EventEscalationUpdated         = "escalation_updated"
	EventReopened                  = "reopened"
	EventAssigned                  = "assigned"
	EventFOSReferred               = "fos_referred"
	EventRedressAdded              = "redress_added"
	EventRedressUpdated            = "redress_updated"
	EventTaskAdded                 = "task_added"
	EventCommunicationAdded        = "communication_added"
	EventCategoryChangedAfterFinal = "category_changed_after_final"
	EventAckSLABreached            = "ack_sla_breached"
	EventFinalSLABreached          = "final_sla_breached"
)

// ComplaintEvent is append-only. Rows are never updated or deleted except by
// cascade when the parent complaint is deleted.
type ComplaintEvent struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ComplaintID uuid.UUID  `gorm:"type:uuid;not null;index" json:"complaint_id"`
	EventType   string     `gorm:"type:varchar(128);not null" json:"event_type"`
	Description string     `gorm:"type:varchar(1000)" json:"description"`
	CreatedByID *uuid.UUID `gorm:"type:uuid" json:"created_by_id"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (ComplaintEvent) TableName() string {
	return "complaint_events"
}

func (e *ComplaintEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// ReferenceCounter holds the last issued sequence number for one calendar
// year. It is the only cross-case mutable state and is always advanced with
// a single atomic upsert-and-increment statement.
type ReferenceCounter struct {
	Year     int `gorm:"primaryKey" json:"year"`
	LastUsed int `gorm:"not null" json:"last_used"`
}

func (ReferenceCounter) TableName() string {
	return "complaint_reference_counters"
}
