package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is the immutable snapshot of one purchased line. Product name and
// slug are denormalized so later catalog edits cannot alter order history.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index:idx_order_items_order"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName string          `gorm:"column:product_name;not null"`
	ProductSlug string          `gorm:"column:product_slug;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
