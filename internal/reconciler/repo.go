package reconciler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swissvfg/bauprodukt-backend/pkg/db/models"
	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
)

// Repository is the reconciler's persistence surface. Lookup methods return
// (nil, nil) when no order matches so the resolution chain can fall through
// without error plumbing. State transitions are single conditional UPDATEs;
// the bool result reports whether the guard matched a row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	FindBySessionID(ctx context.Context, provider enums.PaymentProvider, sessionID string) (*models.Order, error)
	FindByPaymentID(ctx context.Context, provider enums.PaymentProvider, paymentID string) (*models.Order, error)
	ListRecentPendingWithSession(ctx context.Context, provider enums.PaymentProvider, limit int) ([]models.Order, error)

	BackfillPaymentID(ctx context.Context, orderID uuid.UUID, paymentID string) error
	MarkPaid(ctx context.Context, orderID uuid.UUID, paymentID string, paidAt time.Time) (bool, error)
	MarkProcessing(ctx context.Context, orderID uuid.UUID, paymentID string) (bool, error)
	MarkFailure(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) (bool, error)
	MarkInfoniqaPending(ctx context.Context, orderID uuid.UUID) error

	CreateEvent(ctx context.Context, event *models.PaymentEvent) error
	CreateError(ctx context.Context, payErr *models.PaymentError) error
	ListEventsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.PaymentEvent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reconciler repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// openStatuses is the guard for every transition out of a live payment: once
// an order reaches a terminal payment status, no webhook may move it again.
var openStatuses = []enums.PaymentStatus{
	enums.PaymentStatusPending,
	enums.PaymentStatusProcessing,
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error
	return dropNotFound(&order, err)
}

func (r *repository) FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		First(&order).Error
	return dropNotFound(&order, err)
}

func (r *repository) FindBySessionID(ctx context.Context, provider enums.PaymentProvider, sessionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("payment_provider = ? AND provider_session_id = ?", provider, sessionID).
		First(&order).Error
	return dropNotFound(&order, err)
}

func (r *repository) FindByPaymentID(ctx context.Context, provider enums.PaymentProvider, paymentID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("payment_provider = ? AND provider_payment_id = ?", provider, paymentID).
		First(&order).Error
	return dropNotFound(&order, err)
}

func (r *repository) ListRecentPendingWithSession(ctx context.Context, provider enums.PaymentProvider, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("payment_provider = ? AND payment_status = ? AND provider_session_id IS NOT NULL",
			provider, enums.PaymentStatusPending).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) BackfillPaymentID(ctx context.Context, orderID uuid.UUID, paymentID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND provider_payment_id IS NULL", orderID).
		Update("provider_payment_id", paymentID).Error
}

func (r *repository) MarkPaid(ctx context.Context, orderID uuid.UUID, paymentID string, paidAt time.Time) (bool, error) {
	updates := map[string]any{
		"payment_status": enums.PaymentStatusPaid,
		"status":         enums.OrderStatusConfirmed,
		"paid_at":        paidAt,
	}
	if paymentID != "" {
		updates["provider_payment_id"] = paymentID
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status IN ?", orderID, openStatuses).
		Updates(updates)
	return result.RowsAffected > 0, result.Error
}

func (r *repository) MarkProcessing(ctx context.Context, orderID uuid.UUID, paymentID string) (bool, error) {
	updates := map[string]any{
		"payment_status": enums.PaymentStatusProcessing,
	}
	if paymentID != "" {
		updates["provider_payment_id"] = paymentID
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, enums.PaymentStatusPending).
		Updates(updates)
	return result.RowsAffected > 0, result.Error
}

func (r *repository) MarkFailure(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status IN ?", orderID, openStatuses).
		Update("payment_status", status)
	return result.RowsAffected > 0, result.Error
}

func (r *repository) MarkInfoniqaPending(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND infoniqa_sync_status IS NULL", orderID).
		Update("infoniqa_sync_status", enums.InfoniqaSyncStatusPending).Error
}

func (r *repository) CreateEvent(ctx context.Context, event *models.PaymentEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) CreateError(ctx context.Context, payErr *models.PaymentError) error {
	return r.db.WithContext(ctx).Create(payErr).Error
}

func (r *repository) ListEventsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.PaymentEvent, error) {
	var events []models.PaymentEvent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func dropNotFound(order *models.Order, err error) (*models.Order, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}
