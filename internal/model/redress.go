package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RedressType string

const (
	RedressFinancialLoss     RedressType = "financial_loss"
	RedressInterest          RedressType = "interest_on_financial_loss"
	RedressDistress          RedressType = "distress_and_inconvenience"
	RedressConsequentialLoss RedressType = "consequential_loss"
	RedressPremiumRefund     RedressType = "premium_refund_adjustment"
	RedressGoodwill          RedressType = "goodwill_payment"
	RedressThirdParty        RedressType = "third_party_payment"
	RedressApology           RedressType = "apology_or_explanation"
	RedressRemedialAction    RedressType = "remedial_action"
)

var monetaryRedressTypes = map[RedressType]bool{
	RedressFinancialLoss:     true,
	RedressInterest:          true,
	RedressDistress:          true,
	RedressConsequentialLoss: true,
	RedressPremiumRefund:     true,
	RedressGoodwill:          true,
	RedressThirdParty:        true,
}

// Monetary reports whether the type requires an amount and rationale rather
// than an action description.
func (t RedressType) Monetary() bool {
	return monetaryRedressTypes[t]
}

// redressTypeAliases maps legacy and shorthand spellings onto the canonical
// values. Resolution happens once at the boundary; stored values are always
// canonical.
var redressTypeAliases = map[string]RedressType{
	"goodwill":         RedressGoodwill,
	"goodwill_payment": RedressGoodwill,
	"apology":          RedressApology,
	"remedial":         RedressRemedialAction,
	"interest":         RedressInterest,
	"distress":         RedressDistress,
	"premium_refund":   RedressPremiumRefund,
	"third_party":      RedressThirdParty,
	"financial":        RedressFinancialLoss,
}

func ParseRedressType(raw string) (RedressType, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := redressTypeAliases[key]; ok {
		return alias, nil
	}
	t := RedressType(key)
	switch t {
	case RedressFinancialLoss, RedressInterest, RedressDistress, RedressConsequentialLoss,
		RedressPremiumRefund, RedressGoodwill, RedressThirdParty, RedressApology, RedressRemedialAction:
		return t, nil
	}
	return "", fmt.Errorf("unknown redress payment type %q", raw)
}

// RedressPaymentStatus exists for query compatibility. Rows are always
// persisted as authorised; the service does not run an authorisation
// workflow and ignores caller-supplied values.
type RedressPaymentStatus string

const (
	RedressStatusPending    RedressPaymentStatus = "pending"
	RedressStatusAuthorised RedressPaymentStatus = "authorised"
	RedressStatusPaid       RedressPaymentStatus = "paid"
)

type ActionStatus string

const (
	ActionNotStarted ActionStatus = "not_started"
	ActionInProgress ActionStatus = "in_progress"
	ActionCompleted  ActionStatus = "completed"
)

func (s ActionStatus) Valid() bool {
	switch s {
	case ActionNotStarted, ActionInProgress, ActionCompleted:
		return true
	}
	return false
}

type RedressPayment struct {
	ID                uuid.UUID            `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ComplaintID       uuid.UUID            `gorm:"type:uuid;not null;index" json:"complaint_id"`
	OutcomeID         *uuid.UUID           `gorm:"type:uuid;index" json:"outcome_id"`
	Amount            *float64             `gorm:"type:numeric(12,2)" json:"amount"`
	PaymentType       RedressType          `gorm:"type:redress_type;not null" json:"payment_type"`
	Status            RedressPaymentStatus `gorm:"type:redress_payment_status;not null;default:'authorised'" json:"status"`
	Rationale         string               `gorm:"type:varchar(2000)" json:"rationale"`
	ActionDescription string               `gorm:"type:varchar(1000)" json:"action_description"`
	ActionStatus      ActionStatus         `gorm:"type:action_status;not null;default:'not_started'" json:"action_status"`
	Approved          bool                 `gorm:"not null;default:true" json:"approved"`
	Notes             string               `gorm:"type:varchar(1000)" json:"notes"`
	PaidAt            *time.Time           `json:"paid_at"`
	CreatedAt         time.Time            `gorm:"autoCreateTime" json:"created_at"`
}

func (RedressPayment) TableName() string {
	return "redress_payments"
}

func (p *RedressPayment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
