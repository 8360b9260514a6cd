package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OutcomeType string

const (
	OutcomeUpheld          OutcomeType = "upheld"
	OutcomePartiallyUpheld OutcomeType = "partially_upheld"
	OutcomeNotUpheld       OutcomeType = "not_upheld"
	OutcomeWithdrawn       OutcomeType = "withdrawn"
	OutcomeOutOfScope      OutcomeType = "out_of_scope"
)

func (t OutcomeType) Valid() bool {
	switch t {
	case OutcomeUpheld, OutcomePartiallyUpheld, OutcomeNotUpheld, OutcomeWithdrawn, OutcomeOutOfScope:
		return true
	}
	return false
}

// Outcome is the single decision record per complaint. Re-recording mutates
// it in place, it is not versioned.
type Outcome struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ComplaintID  uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex" json:"complaint_id"`
	Outcome      OutcomeType `gorm:"type:outcome_type;not null" json:"outcome"`
	Rationale    string      `gorm:"type:varchar(2000)" json:"rationale"`
	Notes        string      `gorm:"type:varchar(2000)" json:"notes"`
	RecordedByID *uuid.UUID  `gorm:"type:uuid" json:"recorded_by_id"`
	RecordedAt   time.Time   `gorm:"autoCreateTime" json:"recorded_at"`
}

func (Outcome) TableName() string {
	return "outcomes"
}

func (o *Outcome) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
