package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swissvfg/bauprodukt-backend/internal/payments"
	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
	pkgerrors "github.com/swissvfg/bauprodukt-backend/pkg/errors"
)

type fakeParser struct {
	event    *payments.WebhookEvent
	err      error
	payloads [][]byte
	sigs     []string
}

func (p *fakeParser) ParseWebhook(_ context.Context, body []byte, sigHeader string) (*payments.WebhookEvent, error) {
	p.payloads = append(p.payloads, body)
	p.sigs = append(p.sigs, sigHeader)
	if p.err != nil {
		return nil, p.err
	}
	return p.event, nil
}

type fakeReconciler struct {
	events []*payments.WebhookEvent
	err    error
}

func (r *fakeReconciler) Process(_ context.Context, event *payments.WebhookEvent) error {
	r.events = append(r.events, event)
	return r.err
}

func postWebhook(handler http.HandlerFunc, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestStripeWebhookMissingSignature(t *testing.T) {
	parser := &fakeParser{}
	recon := &fakeReconciler{}
	handler := StripeWebhook(parser, recon, nil)

	rec := postWebhook(handler, "/api/v1/webhooks/stripe", `{}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, parser.payloads)
	assert.Empty(t, recon.events)
}

func TestStripeWebhookInvalidSignature(t *testing.T) {
	parser := &fakeParser{err: pkgerrors.New(pkgerrors.CodeValidation, "signature verification failed")}
	recon := &fakeReconciler{}
	handler := StripeWebhook(parser, recon, nil)

	rec := postWebhook(handler, "/api/v1/webhooks/stripe", `{}`,
		map[string]string{"Stripe-Signature": "t=1,v1=bad"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, recon.events)
}

func TestStripeWebhookProcessed(t *testing.T) {
	event := &payments.WebhookEvent{
		Provider:  enums.PaymentProviderStripe,
		EventType: "checkout.session.completed",
		Status:    payments.StatusOf(enums.PaymentStatusPaid),
	}
	parser := &fakeParser{event: event}
	recon := &fakeReconciler{}
	handler := StripeWebhook(parser, recon, nil)

	rec := postWebhook(handler, "/api/v1/webhooks/stripe", `{"type":"checkout.session.completed"}`,
		map[string]string{"Stripe-Signature": "t=1,v1=good"})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, recon.events, 1)
	assert.Equal(t, event, recon.events[0])

	var ack map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.True(t, ack["received"])
}

func TestStripeWebhookProcessingFailureStillAcks(t *testing.T) {
	parser := &fakeParser{event: &payments.WebhookEvent{Provider: enums.PaymentProviderStripe}}
	recon := &fakeReconciler{err: fmt.Errorf("database down")}
	handler := StripeWebhook(parser, recon, nil)

	rec := postWebhook(handler, "/api/v1/webhooks/stripe", `{}`,
		map[string]string{"Stripe-Signature": "t=1,v1=good"})

	assert.Equal(t, http.StatusOK, rec.Code)

	var ack map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.True(t, ack["received"])
}
