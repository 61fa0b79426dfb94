package datatrans

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/swissvfg/bauprodukt-backend/internal/payments"
	datatransclient "github.com/swissvfg/bauprodukt-backend/pkg/datatrans"
	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
	pkgerrors "github.com/swissvfg/bauprodukt-backend/pkg/errors"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
	"github.com/swissvfg/bauprodukt-backend/pkg/types"
)

// Options controls redirect targets for the hosted payment page.
type Options struct {
	SuccessURL string
	ErrorURL   string
	CancelURL  string
}

// Adapter implements the DataTrans (TWINT) integration.
type Adapter struct {
	client *datatransclient.Client
	logger *logger.Logger
	opts   Options
}

// NewAdapter wires the adapter around the shared DataTrans client.
func NewAdapter(client *datatransclient.Client, logg *logger.Logger, opts Options) (*Adapter, error) {
	if client == nil {
		return nil, fmt.Errorf("datatrans client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Adapter{client: client, logger: logg, opts: opts}, nil
}

func (a *Adapter) Provider() enums.PaymentProvider {
	return enums.PaymentProviderDataTrans
}

// CreateSession initializes a hosted-payment-page transaction. The order
// number rides along as refno, which DataTrans echoes in every webhook.
func (a *Adapter) CreateSession(ctx context.Context, req payments.SessionRequest) (*payments.Session, error) {
	transactionID, err := a.client.InitTransaction(ctx, datatransclient.InitRequest{
		RefNo:       req.OrderNumber,
		Currency:    req.Currency,
		AmountCents: req.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
		AutoSettle:  true,
		SuccessURL:  a.opts.SuccessURL,
		ErrorURL:    a.opts.ErrorURL,
		CancelURL:   a.opts.CancelURL,
	})
	if err != nil {
		return nil, err
	}

	return &payments.Session{
		SessionID:   transactionID,
		RedirectURL: a.client.PaymentPageURL(transactionID),
	}, nil
}

// ParseWebhook normalizes a DataTrans notification. DataTrans omits the
// signature on some legitimate callbacks, so a missing or invalid signature
// is logged and processing continues on the payload alone.
func (a *Adapter) ParseWebhook(ctx context.Context, body []byte, signatureHeader string) (*payments.WebhookEvent, error) {
	if !a.verifySignature(body, signatureHeader) {
		a.logger.Warn(a.logger.WithProvider(ctx, "datatrans"),
			"datatrans signature verification failed, continuing on payload")
	}

	payload, err := parsePayload(body)
	if err != nil {
		return nil, err
	}

	transactionID := firstNonEmpty(payload["transactionId"], payload["uppTransactionId"])
	status := strings.ToLower(strings.TrimSpace(payload["status"]))

	event := &payments.WebhookEvent{
		Provider:       enums.PaymentProviderDataTrans,
		EventType:      status,
		OrderReference: payload["refno"],
		SessionID:      transactionID,
		PaymentID:      transactionID,
		CorrelationID:  transactionID,
		RawPayload:     rawPayload(payload),
	}

	switch status {
	case "settled":
		event.Status = payments.StatusOf(enums.PaymentStatusPaid)
	case "authorized":
		event.Status = payments.StatusOf(enums.PaymentStatusProcessing)
	case "failed", "declined":
		event.Status = payments.StatusOf(enums.PaymentStatusFailed)
		event.ErrorCode = firstNonEmpty(payload["errorCode"], status)
		event.ErrorMessage = payload["errorMessage"]
	case "cancelled", "canceled":
		event.Status = payments.StatusOf(enums.PaymentStatusCancelled)
	case "expired":
		event.Status = payments.StatusOf(enums.PaymentStatusExpired)
	default:
		// Unknown statuses stay informational; the audit trail keeps them.
	}

	return event, nil
}

// SessionPaymentID confirms a transaction still exists provider-side and
// returns its id. DataTrans uses one identifier for session and payment.
func (a *Adapter) SessionPaymentID(ctx context.Context, sessionID string) (string, error) {
	tx, err := a.client.GetTransaction(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return tx.TransactionID, nil
}

// verifySignature checks the Datatrans-Signature header:
// "t=<ts>,s0=<hex hmac-sha256(key, ts || body)>".
func (a *Adapter) verifySignature(body []byte, header string) bool {
	key := a.client.SignKey()
	if key == "" {
		// Verification not configured; nothing to check.
		return true
	}
	if strings.TrimSpace(header) == "" {
		return false
	}

	var ts, sig string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "s0":
			sig = v
		}
	}
	if sig == "" {
		// Some callbacks carry the bare hex digest of the body.
		sig = strings.TrimSpace(header)
	}

	expected, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(ts))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

func parsePayload(body []byte) (map[string]string, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty webhook body")
	}

	if strings.HasPrefix(trimmed, "{") {
		var raw map[string]any
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing datatrans json payload")
		}
		out := make(map[string]string, len(raw))
		for k, v := range raw {
			switch val := v.(type) {
			case string:
				out[k] = val
			case float64:
				out[k] = strings.TrimSuffix(fmt.Sprintf("%v", val), ".0")
			default:
				b, _ := json.Marshal(val)
				out[k] = string(b)
			}
		}
		return out, nil
	}

	values, err := url.ParseQuery(trimmed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing datatrans form payload")
	}
	out := make(map[string]string, len(values))
	for k := range values {
		out[k] = values.Get(k)
	}
	return out, nil
}

func rawPayload(payload map[string]string) types.JSONMap {
	out := make(types.JSONMap, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
