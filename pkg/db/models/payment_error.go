package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
	"github.com/swissvfg/bauprodukt-backend/pkg/types"
)

// PaymentError records a structured provider failure for operator review.
type PaymentError struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index:idx_payment_errors_order"`
	Provider      enums.PaymentProvider `gorm:"column:provider;type:text;not null"`
	ErrorType     string                `gorm:"column:error_type;not null"`
	ErrorCode     string                `gorm:"column:error_code;not null"`
	ErrorMessage  string                `gorm:"column:error_message;not null"`
	Severity      string                `gorm:"column:severity;not null;default:'error'"`
	Context       types.JSONMap         `gorm:"column:context;type:jsonb;serializer:json"`
	CorrelationID *string               `gorm:"column:correlation_id"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
}
