package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
)

// PaymentSession logs every hosted-payment session created for an order.
type PaymentSession struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index:idx_payment_sessions_order"`
	Provider  enums.PaymentProvider `gorm:"column:provider;type:text;not null"`
	SessionID string                `gorm:"column:session_id;not null"`
	Amount    decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency  string                `gorm:"column:currency;not null;default:'CHF'"`
	ExpiresAt *time.Time            `gorm:"column:expires_at"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
}
