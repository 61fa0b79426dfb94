package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
	"github.com/swissvfg/bauprodukt-backend/pkg/types"
)

// WebhookEvent is the provider-agnostic form every inbound webhook is reduced
// to at the adapter boundary. Untyped provider fields never travel past it;
// the original payload is kept only for the audit log.
type WebhookEvent struct {
	Provider enums.PaymentProvider
	// EventType is the raw provider event name, kept for audit.
	EventType string
	// Status is nil for informational events that carry no order-status
	// implication.
	Status *enums.PaymentStatus
	// OrderReference is the order number or id echoed back by the provider,
	// when the provider supports metadata.
	OrderReference string
	SessionID      string
	PaymentID      string
	// ErrorCode is set on failure events when the provider supplied one.
	ErrorCode string
	// ErrorMessage is the provider's human-readable failure description,
	// when supplied.
	ErrorMessage string
	// CorrelationID is the provider's event id. Used for log correlation
	// only, never for dedup.
	CorrelationID string
	RawPayload    types.JSONMap
}

// SessionRequest carries what an adapter needs to open a hosted payment
// session for an order.
type SessionRequest struct {
	OrderID       uuid.UUID
	OrderNumber   string
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
}

// Session is the adapter's result: where to send the customer, and the
// provider-side identifier webhooks will later be matched against.
type Session struct {
	SessionID   string
	RedirectURL string
	ExpiresAt   *time.Time
}

// Adapter is the provider-specific integration surface. ParseWebhook verifies
// the signature and normalizes the payload in one step so unverified payloads
// never reach the reconciler unflagged.
type Adapter interface {
	Provider() enums.PaymentProvider
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	ParseWebhook(ctx context.Context, body []byte, signatureHeader string) (*WebhookEvent, error)
	// SessionPaymentID re-fetches the session from the provider and returns
	// the payment id attached to it. Used by the bounded fallback resolution.
	SessionPaymentID(ctx context.Context, sessionID string) (string, error)
}

// StatusOf is a convenience for building the normalized status pointer.
func StatusOf(s enums.PaymentStatus) *enums.PaymentStatus {
	return &s
}
