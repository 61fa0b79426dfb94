package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product carries the slice of the catalog the checkout core depends on:
// the authoritative price and the stock counter. Catalog CRUD lives
// elsewhere; this core only reads price/stock and decrements stock.
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string          `gorm:"column:name;not null"`
	Slug          string          `gorm:"column:slug;not null;uniqueIndex:idx_products_slug"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	StockQuantity int             `gorm:"column:stock_quantity;not null;default:0"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
