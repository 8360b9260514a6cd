package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"complaint-service/internal/model"
)

// ErrDuplicateReference reports a uniqueness violation on the complaint
// reference. Callers treat it as retryable, not fatal.
var ErrDuplicateReference = errors.New("complaint reference already exists")

// ComplaintTx is the write surface available inside one lifecycle
// transition. Everything done through it commits atomically with the
// complaint row itself.
type ComplaintTx interface {
	UpsertOutcome(o *model.Outcome) error
	CreateRedress(p *model.RedressPayment) error
	SaveRedress(p *model.RedressPayment) error
	CreateTask(t *model.Task) error
	CreateCommunication(cm *model.Communication) error
	AppendEvent(e *model.ComplaintEvent) error
}

type ComplaintStore interface {
	Create(ctx context.Context, c *model.Complaint, created *model.ComplaintEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Complaint, error)
	List(ctx context.Context, filter ComplaintFilter) ([]model.Complaint, error)
	Transition(ctx context.Context, id uuid.UUID, fn func(tx ComplaintTx, c *model.Complaint) error) (*model.Complaint, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReferenceAllocator issues per-year sequence numbers. Implementations must
// serialize increments to the same year at the storage layer.
type ReferenceAllocator interface {
	NextSequence(ctx context.Context, year int) (int, error)
}

type EventStore interface {
	ListByComplaintID(ctx context.Context, complaintID uuid.UUID) ([]model.ComplaintEvent, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}
