package infoniqa

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swissvfg/bauprodukt-backend/pkg/db/models"
	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
)

// Repository reads and advances the accounting sync flag on orders. The
// status only ever moves forward: both Mark methods are guarded on the
// pending state, so a concurrent worker or a replayed webhook cannot undo a
// finished sync.
type Repository interface {
	ListPendingSync(ctx context.Context, limit int) ([]models.Order, error)
	MarkSynced(ctx context.Context, orderID uuid.UUID, transactionID string) (bool, error)
	MarkSyncFailed(ctx context.Context, orderID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an accounting sync repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListPendingSync(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("infoniqa_sync_status = ?", enums.InfoniqaSyncStatusPending).
		Order("paid_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) MarkSynced(ctx context.Context, orderID uuid.UUID, transactionID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND infoniqa_sync_status = ?", orderID, enums.InfoniqaSyncStatusPending).
		Updates(map[string]any{
			"infoniqa_sync_status":    enums.InfoniqaSyncStatusSuccess,
			"infoniqa_transaction_id": transactionID,
		})
	return result.RowsAffected > 0, result.Error
}

func (r *repository) MarkSyncFailed(ctx context.Context, orderID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND infoniqa_sync_status = ?", orderID, enums.InfoniqaSyncStatusPending).
		Update("infoniqa_sync_status", enums.InfoniqaSyncStatusFailed)
	return result.RowsAffected > 0, result.Error
}
