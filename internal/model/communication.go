package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommunicationChannel string

const (
	ChannelPhone      CommunicationChannel = "phone"
	ChannelEmail      CommunicationChannel = "email"
	ChannelLetter     CommunicationChannel = "letter"
	ChannelWeb        CommunicationChannel = "web"
	ChannelThirdParty CommunicationChannel = "third_party"
	ChannelOther      CommunicationChannel = "other"
)

func (c CommunicationChannel) Valid() bool {
	switch c {
	case ChannelPhone, ChannelEmail, ChannelLetter, ChannelWeb, ChannelThirdParty, ChannelOther:
		return true
	}
	return false
}

type CommunicationDirection string

const (
	DirectionInbound  CommunicationDirection = "inbound"
	DirectionOutbound CommunicationDirection = "outbound"
)

func (d CommunicationDirection) Valid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

type Communication struct {
	ID              uuid.UUID              `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ComplaintID     uuid.UUID              `gorm:"type:uuid;not null;index" json:"complaint_id"`
	UserID          *uuid.UUID             `gorm:"type:uuid" json:"user_id"`
	Channel         CommunicationChannel   `gorm:"type:communication_channel;not null" json:"channel"`
	Direction       CommunicationDirection `gorm:"type:communication_direction;not null" json:"direction"`
	Summary         string                 `gorm:"type:varchar(1000);not null" json:"summary"`
	OccurredAt      time.Time              `gorm:"not null" json:"occurred_at"`
	IsFinalResponse bool                   `gorm:"not null;default:false" json:"is_final_response"`
	CreatedAt       time.Time              `gorm:"autoCreateTime" json:"created_at"`
}

func (Communication) TableName() string {
	return "communications"
}

func (c *Communication) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type TaskStatus string

const (
	TaskOpen       TaskStatus = "open"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskOpen, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

type Task struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ComplaintID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"complaint_id"`
	Title        string     `gorm:"type:varchar(255);not null" json:"title"`
	Description  string     `gorm:"type:varchar(1000)" json:"description"`
	Status       TaskStatus `gorm:"type:task_status;not null;default:'open'" json:"status"`
	DueDate      *time.Time `json:"due_date"`
	AssignedToID *uuid.UUID `gorm:"type:uuid" json:"assigned_to_id"`
	IsChecklist  bool       `gorm:"not null;default:false" json:"is_checklist"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
