package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swissvfg/bauprodukt-backend/pkg/db/models"
	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
)

// Repository persists session correlation data.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	SetOrderSession(ctx context.Context, orderID uuid.UUID, provider enums.PaymentProvider, sessionID string) error
	CreateSessionRecord(ctx context.Context, session *models.PaymentSession) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SetOrderSession stamps the provider and session id on the order and
// re-opens payment_status, so a session created after a failed payment lets
// the eventual paid webhook through the transition guard.
func (r *repository) SetOrderSession(ctx context.Context, orderID uuid.UUID, provider enums.PaymentProvider, sessionID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"payment_provider":    provider,
			"provider_session_id": sessionID,
			"payment_status":      enums.PaymentStatusPending,
		}).Error
}

func (r *repository) CreateSessionRecord(ctx context.Context, session *models.PaymentSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}
