package repository

import (
	"context"

	"gorm.io/gorm"
)

// ReferenceRepository issues per-year complaint sequence numbers from the
// counter table. The increment is a single atomic upsert-and-return
// statement, never a read followed by a write, so arbitrarily many
// concurrent callers each observe a distinct, strictly increasing value.
// Numbers are not reclaimed: a creation that fails after allocation simply
// burns its sequence number.
type ReferenceRepository struct {
	db *gorm.DB
}

func NewReferenceRepository(db *gorm.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

func (r *ReferenceRepository) NextSequence(ctx context.Context, year int) (int, error) {
	var seq int
	err := r.db.WithContext(ctx).Raw(
		`INSERT INTO complaint_reference_counters (year, last_used)
		 VALUES (?, 1)
		 ON CONFLICT (year) DO UPDATE
		 SET last_used = complaint_reference_counters.last_used + 1
		 RETURNING last_used`,
		year,
	).Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	return seq, nil
}
