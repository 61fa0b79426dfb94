package datatrans

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/swissvfg/bauprodukt-backend/pkg/config"
	pkgerrors "github.com/swissvfg/bauprodukt-backend/pkg/errors"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
)

const (
	sandboxAPIURL = "https://api.sandbox.datatrans.com/v1"
	sandboxPayURL = "https://pay.sandbox.datatrans.com/v1/start"
	livePayURL    = "https://pay.datatrans.com/v1/start"
)

var (
	errMerchantIDRequired = errors.New("datatrans merchant id is required")
	errPasswordRequired   = errors.New("datatrans password is required")
	errLoggerRequired     = errors.New("datatrans logger is required")
)

// Client wraps the DataTrans JSON API with centralized auth, logging, and
// error mapping. DataTrans has no official Go SDK, so the wrapper speaks
// the REST surface directly.
type Client struct {
	http       *http.Client
	apiURL     string
	payPageURL string
	merchantID string
	password   string
	signKey    string
	logger     *logger.Logger
}

// InitRequest describes a hosted-payment-page transaction to initialize.
type InitRequest struct {
	RefNo          string
	Currency       string
	AmountCents    int64
	PaymentMethods []string
	SuccessURL     string
	ErrorURL       string
	CancelURL      string
	AutoSettle     bool
}

// Transaction is the subset of the DataTrans transaction resource the
// reconciler and session flow consume.
type Transaction struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	RefNo         string `json:"refno"`
	Currency      string `json:"currency"`
	PaymentMethod string `json:"paymentMethod"`
}

// NewClient initializes the DataTrans wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.DataTransConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	merchantID := strings.TrimSpace(cfg.MerchantID)
	if merchantID == "" {
		return nil, errMerchantIDRequired
	}
	password := strings.TrimSpace(cfg.Password)
	if password == "" {
		return nil, errPasswordRequired
	}

	apiURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if apiURL == "" {
		apiURL = sandboxAPIURL
	}

	payPageURL := sandboxPayURL
	if !strings.Contains(apiURL, "sandbox") {
		payPageURL = livePayURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		http:       &http.Client{Timeout: timeout},
		apiURL:     apiURL,
		payPageURL: payPageURL,
		merchantID: merchantID,
		password:   password,
		signKey:    strings.TrimSpace(cfg.SignKey),
		logger:     logg,
	}

	logg.Info(ctx, "datatrans client initialized")
	return c, nil
}

// SignKey returns the HMAC key used to verify webhook signatures. Empty when
// signature verification is not configured.
func (c *Client) SignKey() string {
	if c == nil {
		return ""
	}
	return c.signKey
}

// PaymentPageURL builds the redirect URL for an initialized transaction.
func (c *Client) PaymentPageURL(transactionID string) string {
	return fmt.Sprintf("%s/%s", c.payPageURL, transactionID)
}

// InitTransaction creates a hosted-payment-page transaction and returns its id.
func (c *Client) InitTransaction(ctx context.Context, req InitRequest) (string, error) {
	methods := req.PaymentMethods
	if len(methods) == 0 {
		methods = []string{"TWI"}
	}

	body := map[string]any{
		"currency":       req.Currency,
		"refno":          req.RefNo,
		"amount":         req.AmountCents,
		"paymentMethods": methods,
		"autoSettle":     req.AutoSettle,
		"redirect": map[string]string{
			"successUrl": req.SuccessURL,
			"errorUrl":   req.ErrorURL,
			"cancelUrl":  req.CancelURL,
		},
	}

	c.log(ctx, "request", "init_transaction", map[string]any{
		"refno":    req.RefNo,
		"currency": req.Currency,
		"amount":   req.AmountCents,
	})

	var out struct {
		TransactionID string `json:"transactionId"`
	}
	if err := c.do(ctx, http.MethodPost, "/transactions", body, &out); err != nil {
		c.log(ctx, "error", "init_transaction", map[string]any{"error": err.Error()})
		return "", err
	}
	if out.TransactionID == "" {
		err := pkgerrors.New(pkgerrors.CodeDependency, "datatrans init returned no transaction id")
		c.log(ctx, "error", "init_transaction", map[string]any{"error": err.Error()})
		return "", err
	}

	c.log(ctx, "response", "init_transaction", map[string]any{"transaction_id": out.TransactionID})
	return out.TransactionID, nil
}

// GetTransaction fetches the current state of a transaction.
func (c *Client) GetTransaction(ctx context.Context, transactionID string) (*Transaction, error) {
	c.log(ctx, "request", "get_transaction", map[string]any{"transaction_id": transactionID})

	var out Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions/"+transactionID, nil, &out); err != nil {
		c.log(ctx, "error", "get_transaction", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "get_transaction", map[string]any{
		"transaction_id": out.TransactionID,
		"status":         out.Status,
	})
	return &out, nil
}

// CancelTransaction cancels an initialized or authorized transaction.
func (c *Client) CancelTransaction(ctx context.Context, transactionID string) error {
	c.log(ctx, "request", "cancel_transaction", map[string]any{"transaction_id": transactionID})

	if err := c.do(ctx, http.MethodPost, "/transactions/"+transactionID+"/cancel", struct{}{}, nil); err != nil {
		c.log(ctx, "error", "cancel_transaction", map[string]any{"error": err.Error()})
		return err
	}

	c.log(ctx, "response", "cancel_transaction", map[string]any{"transaction_id": transactionID})
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding datatrans request")
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building datatrans request")
	}
	req.SetBasicAuth(c.merchantID, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling datatrans")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading datatrans response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapAPIError(resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding datatrans response")
		}
	}
	return nil
}

func (c *Client) mapAPIError(status int, raw []byte) error {
	var apiErr struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	detail := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
		detail = fmt.Sprintf("%s: %s", apiErr.Error.Code, apiErr.Error.Message)
	}

	code := pkgerrors.CodeDependency
	switch {
	case status == http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case status == http.StatusBadRequest:
		code = pkgerrors.CodeValidation
	case status == http.StatusConflict:
		code = pkgerrors.CodeConflict
	}
	return pkgerrors.New(code, fmt.Sprintf("datatrans responded %d", status)).WithDetails(detail)
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
		"provider":  "datatrans",
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("datatrans %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("datatrans %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"password", "secret", "sign", "card", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
