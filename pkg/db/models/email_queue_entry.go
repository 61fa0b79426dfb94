package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
)

// EmailQueueEntry is one queued notification. The unique index on
// (order, recipient, email type) gives the queue its duplicate-ignore
// upsert semantics.
type EmailQueueEntry struct {
	ID             uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID                `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_email_queue_dedup"`
	RecipientEmail string                   `gorm:"column:recipient_email;not null;uniqueIndex:idx_email_queue_dedup"`
	RecipientType  enums.EmailRecipientType `gorm:"column:recipient_type;type:text;not null"`
	EmailType      enums.EmailType          `gorm:"column:email_type;type:text;not null;uniqueIndex:idx_email_queue_dedup"`
	Subject        string                   `gorm:"column:subject;not null"`
	BodyHTML       string                   `gorm:"column:body_html;not null"`
	BodyText       string                   `gorm:"column:body_text;not null;default:''"`
	Status         enums.EmailStatus        `gorm:"column:status;type:text;not null;default:'pending'"`
	SentAt         *time.Time               `gorm:"column:sent_at"`
	CreatedAt      time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (EmailQueueEntry) TableName() string {
	return "email_queue"
}
