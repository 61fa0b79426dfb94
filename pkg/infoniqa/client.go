package infoniqa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/swissvfg/bauprodukt-backend/pkg/config"
	pkgerrors "github.com/swissvfg/bauprodukt-backend/pkg/errors"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
)

var (
	errAPIBaseRequired = errors.New("infoniqa api base is required")
	errAuth0Required   = errors.New("infoniqa auth0 token url, client id and secret are required")
	errLoggerRequired  = errors.New("infoniqa logger is required")
)

// Client talks to the Infoniqa ONE accounting API. Access tokens come from
// an Auth0 client-credentials grant and are cached until shortly before
// expiry.
type Client struct {
	http    *http.Client
	apiBase string
	logger  *logger.Logger

	tokenURL     string
	clientID     string
	clientSecret string
	audience     string
	gracePeriod  time.Duration

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
	now         func() time.Time
}

// Voucher is one accounting booking posted for a paid order.
type Voucher struct {
	ExternalRef string  `json:"externalRef"`
	Text        string  `json:"text"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Date        string  `json:"date"`
}

// NewClient validates the configuration and prepares the token cache.
func NewClient(ctx context.Context, cfg config.InfoniqaConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	apiBase := strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	if apiBase == "" {
		return nil, errAPIBaseRequired
	}
	if strings.TrimSpace(cfg.Auth0TokenURL) == "" ||
		strings.TrimSpace(cfg.Auth0ClientID) == "" ||
		strings.TrimSpace(cfg.Auth0Secret) == "" {
		return nil, errAuth0Required
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	grace := cfg.TokenGracePeriod
	if grace <= 0 {
		grace = 5 * time.Minute
	}

	c := &Client{
		http:         &http.Client{Timeout: timeout},
		apiBase:      apiBase,
		logger:       logg,
		tokenURL:     strings.TrimSpace(cfg.Auth0TokenURL),
		clientID:     strings.TrimSpace(cfg.Auth0ClientID),
		clientSecret: strings.TrimSpace(cfg.Auth0Secret),
		audience:     strings.TrimSpace(cfg.Auth0Audience),
		gracePeriod:  grace,
		now:          time.Now,
	}

	logg.Info(ctx, "infoniqa client initialized")
	return c, nil
}

// CreateVoucher posts a booking and returns the transaction id assigned by
// Infoniqa.
func (c *Client) CreateVoucher(ctx context.Context, v Voucher) (string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return "", err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding infoniqa voucher")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/vouchers", bytes.NewReader(raw))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building infoniqa request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling infoniqa")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading infoniqa response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("infoniqa responded %d", resp.StatusCode)).
			WithDetails(strings.TrimSpace(string(body)))
	}

	var out struct {
		TransactionID string `json:"transactionId"`
		ID            string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding infoniqa response")
	}

	id := out.TransactionID
	if id == "" {
		id = out.ID
	}
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "infoniqa returned no transaction id")
	}
	return id, nil
}

// token returns a cached access token, refreshing it when it is within the
// grace period of expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.now().Before(c.tokenExpiry.Add(-c.gracePeriod)) {
		return c.accessToken, nil
	}

	payload := map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
	}
	if c.audience != "" {
		payload["audience"] = c.audience
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding token request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, bytes.NewReader(raw))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building token request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching infoniqa token")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading token response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("auth0 responded %d", resp.StatusCode)).
			WithDetails(strings.TrimSpace(string(body)))
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding token response")
	}
	if out.AccessToken == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "auth0 returned no access token")
	}

	c.accessToken = out.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(out.ExpiresIn) * time.Second)
	c.logger.Info(ctx, "infoniqa access token refreshed")
	return c.accessToken, nil
}
