package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swissvfg/bauprodukt-backend/pkg/db/models"
)

// Repository exposes the catalog reads and the stock mutation the checkout
// flow depends on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// DecrementStock applies a guarded decrement. Returns false without error when
// the row exists but holds less stock than requested, so callers can report
// insufficiency instead of racing a re-read.
func (r *repository) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET stock_quantity = stock_quantity - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_quantity >= ?
	`, qty, productID, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
