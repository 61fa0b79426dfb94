package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
)

// Order is the durable record of one checkout. Customer and address fields
// are immutable snapshots taken at creation time; the payment columns are
// mutated only by the webhook reconciler.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber string    `gorm:"column:order_number;not null;uniqueIndex:idx_orders_order_number"`

	CustomerName  string `gorm:"column:customer_name;not null"`
	CustomerEmail string `gorm:"column:customer_email;not null"`
	CustomerPhone string `gorm:"column:customer_phone;not null"`

	ShippingProvince   string `gorm:"column:shipping_province;not null"`
	ShippingDistrict   string `gorm:"column:shipping_district;not null"`
	ShippingPostalCode string `gorm:"column:shipping_postal_code;not null"`
	ShippingAddress    string `gorm:"column:shipping_address;not null"`
	BillingProvince    string `gorm:"column:billing_province;not null"`
	BillingDistrict    string `gorm:"column:billing_district;not null"`
	BillingPostalCode  string `gorm:"column:billing_postal_code;not null"`
	BillingAddress     string `gorm:"column:billing_address;not null"`

	Notes       string              `gorm:"column:notes;not null;default:''"`
	Currency    string              `gorm:"column:currency;not null;default:'CHF'"`
	TotalAmount decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status      enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`

	PaymentStatus     enums.PaymentStatus    `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentProvider   *enums.PaymentProvider `gorm:"column:payment_provider;type:text"`
	ProviderSessionID *string                `gorm:"column:provider_session_id;index:idx_orders_provider_session"`
	ProviderPaymentID *string                `gorm:"column:provider_payment_id;index:idx_orders_provider_payment"`
	PaidAt            *time.Time             `gorm:"column:paid_at"`

	InfoniqaSyncStatus    *enums.InfoniqaSyncStatus `gorm:"column:infoniqa_sync_status;type:text"`
	InfoniqaTransactionID *string                   `gorm:"column:infoniqa_transaction_id"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
