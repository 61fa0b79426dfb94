package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
)

// Address carries one postal address block as submitted at checkout.
type Address struct {
	Province   string `json:"province" validate:"required"`
	District   string `json:"district" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Street     string `json:"street" validate:"required"`
}

// CreateInput is everything the checkout endpoint collects. Cart contents are
// read server-side from the session; the client never submits prices.
type CreateInput struct {
	CartSessionID string  `json:"cart_session_id" validate:"required"`
	CustomerName  string  `json:"customer_name" validate:"required"`
	CustomerEmail string  `json:"customer_email" validate:"required,email"`
	CustomerPhone string  `json:"customer_phone" validate:"required"`
	Shipping      Address `json:"shipping" validate:"required"`
	Billing       Address `json:"billing" validate:"required"`
	Notes         string  `json:"notes"`
}

// ItemDetail is one line of a created or fetched order.
type ItemDetail struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSlug string          `json:"product_slug"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// Detail is the order representation returned to callers. Payment progress is
// exposed so the post-redirect poll can watch payment_status flip.
type Detail struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	CustomerName  string              `json:"customer_name"`
	CustomerEmail string              `json:"customer_email"`
	Currency      string              `json:"currency"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
	Items         []ItemDetail        `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
}

// InsufficientLine describes one cart line that asked for more than the shelf
// holds. All offending lines are reported together.
type InsufficientLine struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
}
