package emailqueue

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/swissvfg/bauprodukt-backend/pkg/db/models"
)

// Repository persists queued notifications with duplicate-ignore semantics.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, entry *models.EmailQueueEntry) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an email queue repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert inserts the entry unless one already exists for the same order,
// recipient and email type. A duplicate is silently ignored, which is what
// makes repeated dispatch safe.
func (r *repository) Upsert(ctx context.Context, entry *models.EmailQueueEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "order_id"},
				{Name: "recipient_email"},
				{Name: "email_type"},
			},
			DoNothing: true,
		}).
		Create(entry).Error
}
