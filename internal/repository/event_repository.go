package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"complaint-service/internal/model"
)

// EventRepository reads the append-only event log. Appends happen only
// inside lifecycle transitions, through the transaction view.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) ListByComplaintID(ctx context.Context, complaintID uuid.UUID) ([]model.ComplaintEvent, error) {
	var events []model.ComplaintEvent
	err := r.db.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
