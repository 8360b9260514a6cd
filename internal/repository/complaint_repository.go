package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"complaint-service/internal/model"
)

type ComplaintRepository struct {
	db *gorm.DB
}

func NewComplaintRepository(db *gorm.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

type ComplaintFilter struct {
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

var complaintPreloads = []string{
	"Complainant",
	"Policy",
	"Outcome",
	"RedressPayments",
	"Communications",
	"Tasks",
	"AssignedHandler",
}

func withPreloads(query *gorm.DB) *gorm.DB {
	for _, assoc := range complaintPreloads {
		query = query.Preload(assoc)
	}
	return query
}

// Create persists the complaint aggregate (complainant and policy included)
// and its created event in one transaction. A uniqueness violation on the
// reference surfaces as ErrDuplicateReference so the caller can retry with
// a fresh sequence number.
func (r *ComplaintRepository) Create(ctx context.Context, c *model.Complaint, created *model.ComplaintEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateReference
			}
			return err
		}
		created.ComplaintID = c.ID
		return tx.Create(created).Error
	})
}

func (r *ComplaintRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Complaint, error) {
	var c model.Complaint
	query := withPreloads(r.db.WithContext(ctx).Model(&model.Complaint{}))
	if err := query.First(&c, "complaints.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ComplaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]model.Complaint, error) {
	query := r.db.WithContext(ctx).Model(&model.Complaint{})

	if len(filter.Statuses) > 0 {
		query = query.Where("complaints.status IN ?", filter.Statuses)
	}
	if filter.HandlerID != nil {
		query = query.Where("complaints.assigned_handler_id = ?", *filter.HandlerID)
	}
	if filter.Product != "" {
		query = query.Where("complaints.product = ?", filter.Product)
	}
	if filter.Outcome != "" {
		query = query.Joins("JOIN outcomes o ON o.complaint_id = complaints.id").
			Where("o.outcome = ?", filter.Outcome)
	}
	if filter.Vulnerability != nil {
		query = query.Where("complaints.vulnerability_flag = ?", *filter.Vulnerability)
	}
	if filter.Overdue != nil && *filter.Overdue {
		now := time.Now().UTC()
		query = query.Where(
			"(complaints.acknowledged_at IS NULL AND complaints.ack_due_at < ?) OR (complaints.final_response_at IS NULL AND complaints.final_due_at < ?)",
			now, now,
		)
	}
	if filter.DateFrom != nil {
		query = query.Where("complaints.received_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("complaints.received_at <= ?", *filter.DateTo)
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Joins("LEFT JOIN complainants cp ON cp.complaint_id = complaints.id").
			Where("(complaints.reference ILIKE ? OR complaints.description ILIKE ? OR cp.full_name ILIKE ?)", search, search, search)
	}

	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	} else {
		query = query.Limit(200)
	}

	var complaints []model.Complaint
	if err := withPreloads(query).
		Order("complaints.received_at DESC").
		Find(&complaints).Error; err != nil {
		return nil, err
	}
	return complaints, nil
}

// Transition runs one lifecycle step inside a single storage transaction.
// The complaint row is locked FOR UPDATE for the duration, so concurrent
// transitions on the same complaint serialize at the storage layer. The
// callback mutates the loaded aggregate and appends events/children through
// the transaction view; the complaint's own columns are saved afterwards.
func (r *ComplaintRepository) Transition(ctx context.Context, id uuid.UUID, fn func(tx ComplaintTx, c *model.Complaint) error) (*model.Complaint, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.Complaint
		query := withPreloads(tx.Clauses(clause.Locking{Strength: "UPDATE"}))
		if err := query.First(&c, "complaints.id = ?", id).Error; err != nil {
			return err
		}
		if err := fn(&complaintTx{db: tx}, &c); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes the complaint; owned children go with it via the schema's
// ON DELETE CASCADE constraints.
func (r *ComplaintRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Complaint{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type complaintTx struct {
	db *gorm.DB
}

func (t *complaintTx) UpsertOutcome(o *model.Outcome) error {
	return t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "complaint_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"outcome", "rationale", "notes", "recorded_by_id", "recorded_at"}),
	}).Create(o).Error
}

func (t *complaintTx) CreateRedress(p *model.RedressPayment) error {
	return t.db.Create(p).Error
}

func (t *complaintTx) SaveRedress(p *model.RedressPayment) error {
	return t.db.Save(p).Error
}

func (t *complaintTx) CreateTask(task *model.Task) error {
	return t.db.Create(task).Error
}

func (t *complaintTx) CreateCommunication(cm *model.Communication) error {
	return t.db.Create(cm).Error
}

func (t *complaintTx) AppendEvent(e *model.ComplaintEvent) error {
	return t.db.Create(e).Error
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
