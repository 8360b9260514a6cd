package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ComplaintStatus string

const (
	ComplaintStatusNew                 ComplaintStatus = "new"
	ComplaintStatusAcknowledged        ComplaintStatus = "acknowledged"
	ComplaintStatusInInvestigation     ComplaintStatus = "in_investigation"
	ComplaintStatusResponseDrafted     ComplaintStatus = "response_drafted"
	ComplaintStatusFinalResponseIssued ComplaintStatus = "final_response_issued"
	ComplaintStatusClosed              ComplaintStatus = "closed"
	ComplaintStatusReopened            ComplaintStatus = "reopened"
)

// Categories with special handling at creation and update time.
const (
	CategoryOtherUnclassified = "Other / Unclassified"
	CategoryVulnerability     = "Vulnerability and Customer Treatment"
)

// ReferencePrefix is the fixed prefix of every case reference. The full
// format CMP-<4-digit year>-<6-digit zero-padded sequence> is externally
// visible and must not change.
const ReferencePrefix = "CMP"

func FormatReference(year, sequence int) string {
	return fmt.Sprintf("%s-%04d-%06d", ReferencePrefix, year, sequence)
}

type Complaint struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Reference string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"reference"`
	Status    ComplaintStatus `gorm:"type:complaint_status;not null;default:'new'" json:"status"`

	Source      string `gorm:"type:varchar(64);not null" json:"source"`
	Description string `gorm:"type:text;not null" json:"description"`
	Category    string `gorm:"type:varchar(255);not null" json:"category"`
	Reason      string `gorm:"type:varchar(255)" json:"reason"`

	FCAComplaint       bool   `gorm:"not null;default:false" json:"fca_complaint"`
	FCARationale       string `gorm:"type:varchar(1000)" json:"fca_rationale"`
	VulnerabilityFlag  bool   `gorm:"not null;default:false" json:"vulnerability_flag"`
	VulnerabilityNotes string `gorm:"type:varchar(1000)" json:"vulnerability_notes"`
	NonReportable      bool   `gorm:"not null;default:false" json:"non_reportable"`

	// Denormalized policy summary kept on the complaint row for filtering.
	PolicyNumber string `gorm:"type:varchar(128);index" json:"policy_number"`
	Insurer      string `gorm:"type:varchar(255)" json:"insurer"`
	Broker       string `gorm:"type:varchar(255)" json:"broker"`
	Product      string `gorm:"type:varchar(255)" json:"product"`
	Scheme       string `gorm:"type:varchar(255)" json:"scheme"`

	ReceivedAt      time.Time  `gorm:"not null" json:"received_at"`
	AckDueAt        time.Time  `gorm:"not null" json:"ack_due_at"`
	FinalDueAt      time.Time  `gorm:"not null" json:"final_due_at"`
	AcknowledgedAt  *time.Time `json:"acknowledged_at"`
	FinalResponseAt *time.Time `json:"final_response_at"`
	ClosedAt        *time.Time `json:"closed_at"`
	AckBreached     bool       `gorm:"not null;default:false" json:"ack_breached"`
	FinalBreached   bool       `gorm:"not null;default:false" json:"final_breached"`

	AssignedHandlerID *uuid.UUID `gorm:"type:uuid" json:"assigned_handler_id"`
	ReopenedFromID    *uuid.UUID `gorm:"type:uuid" json:"reopened_from_id"`
	IsEscalated       bool       `gorm:"not null;default:false" json:"is_escalated"`

	FOSComplaint  bool       `gorm:"not null;default:false" json:"fos_complaint"`
	FOSReference  string     `gorm:"type:varchar(64)" json:"fos_reference"`
	FOSReferredAt *time.Time `json:"fos_referred_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Complainant     *Complainant     `gorm:"foreignKey:ComplaintID;constraint:OnDelete:CASCADE" json:"complainant"`
	Policy          *Policy          `gorm:"foreignKey:ComplaintID;constraint:OnDelete:CASCADE" json:"policy"`
	Outcome         *Outcome         `gorm:"foreignKey:ComplaintID;constraint:OnDelete:CASCADE" json:"outcome"`
	Communications  []Communication  `gorm:"foreignKey:ComplaintID;constraint:OnDelete:CASCADE" json:"communications"`
	Tasks           []Task           `gorm:"foreignKey:ComplaintID;constraint:OnDelete:CASCADE" json:"tasks"`
	RedressPayments []RedressPayment `gorm:"foreignKey:ComplaintID;constraint:OnDelete:CASCADE" json:"redress_payments"`
	AssignedHandler *User            `gorm:"foreignKey:AssignedHandlerID" json:"assigned_handler,omitempty"`
}

func (Complaint) TableName() string {
	return "complaints"
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// RedressPaymentByID finds a payment on the loaded aggregate.
func (c *Complaint) RedressPaymentByID(id uuid.UUID) *RedressPayment {
	for i := range c.RedressPayments {
		if c.RedressPayments[i].ID == id {
			return &c.RedressPayments[i]
		}
	}
	return nil
}

type Complainant struct {
	ID                     uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ComplaintID            uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"complaint_id"`
	FullName               string     `gorm:"type:varchar(255);not null" json:"full_name"`
	Email                  string     `gorm:"type:varchar(255)" json:"email"`
	Phone                  string     `gorm:"type:varchar(64)" json:"phone"`
	Address                string     `gorm:"type:varchar(500)" json:"address"`
	DateOfBirth            *time.Time `gorm:"type:date" json:"date_of_birth"`
	PreferredContactMethod string     `gorm:"type:varchar(64)" json:"preferred_contact_method"`
}

func (Complainant) TableName() string {
	return "complainants"
}

func (p *Complainant) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Policy struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ComplaintID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"complaint_id"`
	PolicyNumber string    `gorm:"type:varchar(128);index" json:"policy_number"`
	Insurer      string    `gorm:"type:varchar(255)" json:"insurer"`
	Broker       string    `gorm:"type:varchar(255)" json:"broker"`
	Product      string    `gorm:"type:varchar(255)" json:"product"`
	Scheme       string    `gorm:"type:varchar(255)" json:"scheme"`
}

func (Policy) TableName() string {
	return "policies"
}

func (p *Policy) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
