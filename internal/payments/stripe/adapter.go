package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	stripesdk "github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/swissvfg/bauprodukt-backend/internal/payments"
	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
	pkgerrors "github.com/swissvfg/bauprodukt-backend/pkg/errors"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
	stripeclient "github.com/swissvfg/bauprodukt-backend/pkg/stripe"
	"github.com/swissvfg/bauprodukt-backend/pkg/types"
)

// Options controls redirect targets and session lifetime.
type Options struct {
	SuccessURL    string
	CancelURL     string
	SessionExpiry time.Duration
}

// Adapter implements the Stripe Checkout integration: hosted sessions out,
// signed webhook events in.
type Adapter struct {
	client *stripeclient.Client
	logger *logger.Logger
	opts   Options
}

// NewAdapter wires the adapter around the shared Stripe client.
func NewAdapter(client *stripeclient.Client, logg *logger.Logger, opts Options) (*Adapter, error) {
	if client == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.SessionExpiry <= 0 {
		opts.SessionExpiry = 30 * time.Minute
	}
	return &Adapter{client: client, logger: logg, opts: opts}, nil
}

func (a *Adapter) Provider() enums.PaymentProvider {
	return enums.PaymentProviderStripe
}

// CreateSession opens a Stripe Checkout session for the order total. The
// order id and number ride along as metadata so webhooks resolve directly.
func (a *Adapter) CreateSession(ctx context.Context, req payments.SessionRequest) (*payments.Session, error) {
	amountCents := req.Amount.Mul(decimal.NewFromInt(100)).IntPart()
	expiresAt := time.Now().Add(a.opts.SessionExpiry)

	params := &stripesdk.CheckoutSessionCreateParams{
		Mode:   stripesdk.String(string(stripesdk.CheckoutSessionModePayment)),
		Locale: stripesdk.String("de"),
		LineItems: []*stripesdk.CheckoutSessionCreateLineItemParams{
			{
				Quantity: stripesdk.Int64(1),
				PriceData: &stripesdk.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripesdk.String(req.Currency),
					UnitAmount: stripesdk.Int64(amountCents),
					ProductData: &stripesdk.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripesdk.String(fmt.Sprintf("Bestellung %s", req.OrderNumber)),
					},
				},
			},
		},
		CustomerEmail: stripesdk.String(req.CustomerEmail),
		SuccessURL:    stripesdk.String(a.opts.SuccessURL),
		CancelURL:     stripesdk.String(a.opts.CancelURL),
		ExpiresAt:     stripesdk.Int64(expiresAt.Unix()),
		Metadata: map[string]string{
			"order_id":     req.OrderID.String(),
			"order_number": req.OrderNumber,
		},
	}

	session, err := a.client.API().V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating stripe checkout session")
	}

	return &payments.Session{
		SessionID:   session.ID,
		RedirectURL: session.URL,
		ExpiresAt:   &expiresAt,
	}, nil
}

// ParseWebhook verifies the Stripe-Signature header and normalizes the event.
// Stripe always signs; a missing or invalid signature is a hard reject.
func (a *Adapter) ParseWebhook(ctx context.Context, body []byte, signatureHeader string) (*payments.WebhookEvent, error) {
	if signatureHeader == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing")
	}

	event, err := webhook.ConstructEvent(body, signatureHeader, a.client.SigningSecret())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "verifying stripe signature")
	}

	return a.normalize(ctx, &event)
}

func (a *Adapter) normalize(ctx context.Context, event *stripesdk.Event) (*payments.WebhookEvent, error) {
	out := &payments.WebhookEvent{
		Provider:      enums.PaymentProviderStripe,
		EventType:     string(event.Type),
		CorrelationID: event.ID,
		RawPayload:    rawPayload(event),
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.expired":
		var session stripesdk.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing checkout session payload")
		}
		out.SessionID = session.ID
		if session.PaymentIntent != nil {
			out.PaymentID = session.PaymentIntent.ID
		}
		out.OrderReference = session.Metadata["order_number"]
		if out.OrderReference == "" {
			out.OrderReference = session.Metadata["order_id"]
		}
		if event.Type == "checkout.session.completed" {
			out.Status = payments.StatusOf(enums.PaymentStatusPaid)
		} else {
			out.Status = payments.StatusOf(enums.PaymentStatusExpired)
		}

	case "payment_intent.succeeded", "payment_intent.payment_failed", "payment_intent.canceled":
		var intent stripesdk.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing payment intent payload")
		}
		out.PaymentID = intent.ID
		out.OrderReference = intent.Metadata["order_number"]
		if out.OrderReference == "" {
			out.OrderReference = intent.Metadata["order_id"]
		}
		switch event.Type {
		case "payment_intent.succeeded":
			out.Status = payments.StatusOf(enums.PaymentStatusPaid)
		case "payment_intent.payment_failed":
			out.Status = payments.StatusOf(enums.PaymentStatusFailed)
			if intent.LastPaymentError != nil {
				out.ErrorCode = string(intent.LastPaymentError.Code)
				out.ErrorMessage = intent.LastPaymentError.Msg
			}
		case "payment_intent.canceled":
			out.Status = payments.StatusOf(enums.PaymentStatusCancelled)
		}

	default:
		// Informational events (charge.succeeded, charge.updated,
		// payment_intent.created, ...) carry no status implication but are
		// still logged and audited.
		a.logger.Info(a.logger.WithProvider(ctx, "stripe"),
			fmt.Sprintf("informational stripe event %s", event.Type))
	}

	return out, nil
}

// SessionPaymentID re-fetches a checkout session and returns its payment
// intent id. Used by the reconciler's fallback resolution.
func (a *Adapter) SessionPaymentID(ctx context.Context, sessionID string) (string, error) {
	session, err := a.client.API().V1CheckoutSessions.Retrieve(ctx, sessionID, nil)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieving stripe checkout session")
	}
	if session.PaymentIntent == nil {
		return "", nil
	}
	return session.PaymentIntent.ID, nil
}

func rawPayload(event *stripesdk.Event) types.JSONMap {
	var payload map[string]any
	if err := json.Unmarshal(event.Data.Raw, &payload); err != nil {
		return types.JSONMap{"event_id": event.ID, "type": string(event.Type)}
	}
	return types.JSONMap{
		"event_id": event.ID,
		"type":     string(event.Type),
		"object":   payload,
	}
}
