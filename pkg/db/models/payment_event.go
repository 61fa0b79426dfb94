package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
	"github.com/swissvfg/bauprodukt-backend/pkg/types"
)

// PaymentEvent is the append-only audit trail of every normalized webhook
// processed, written whether or not the event changed order state.
type PaymentEvent struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index:idx_payment_events_order"`
	Provider      enums.PaymentProvider `gorm:"column:provider;type:text;not null"`
	EventType     string                `gorm:"column:event_type;not null"`
	StatusBefore  *enums.PaymentStatus  `gorm:"column:status_before;type:text"`
	StatusAfter   *enums.PaymentStatus  `gorm:"column:status_after;type:text"`
	Code          *string               `gorm:"column:code"`
	Message       string                `gorm:"column:message;not null;default:''"`
	RawPayload    types.JSONMap         `gorm:"column:raw_payload;type:jsonb;serializer:json"`
	CorrelationID *string               `gorm:"column:correlation_id"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
}
