package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swissvfg/bauprodukt-backend/internal/payments"
	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
	pkgerrors "github.com/swissvfg/bauprodukt-backend/pkg/errors"
)

type stubPaymentsAPI struct {
	session   *payments.Session
	err       error
	orderIDs  []uuid.UUID
	providers []enums.PaymentProvider
}

func (s *stubPaymentsAPI) CreateSession(_ context.Context, orderID uuid.UUID, provider enums.PaymentProvider) (*payments.Session, error) {
	s.orderIDs = append(s.orderIDs, orderID)
	s.providers = append(s.providers, provider)
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func TestCreatePaymentSession(t *testing.T) {
	svc := &stubPaymentsAPI{session: &payments.Session{
		SessionID:   "cs_test_1",
		RedirectURL: "https://checkout.stripe.com/c/pay/cs_test_1",
	}}
	orderID := uuid.New()

	rec := postJSON(CreatePaymentSession(svc, nil), "/api/v1/payments/sessions", map[string]any{
		"order_id": orderID,
		"provider": "stripe",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.orderIDs, 1)
	assert.Equal(t, orderID, svc.orderIDs[0])
	assert.Equal(t, enums.PaymentProviderStripe, svc.providers[0])

	var envelope struct {
		Data paymentSessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "cs_test_1", envelope.Data.SessionID)
	assert.Contains(t, envelope.Data.RedirectURL, "checkout.stripe.com")
}

func TestCreatePaymentSessionUnknownProvider(t *testing.T) {
	svc := &stubPaymentsAPI{}

	rec := postJSON(CreatePaymentSession(svc, nil), "/api/v1/payments/sessions", map[string]any{
		"order_id": uuid.New(),
		"provider": "paypal",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.orderIDs)
}

func TestCreatePaymentSessionTerminalOrder(t *testing.T) {
	svc := &stubPaymentsAPI{err: pkgerrors.New(pkgerrors.CodeStateConflict, "order already paid")}

	rec := postJSON(CreatePaymentSession(svc, nil), "/api/v1/payments/sessions", map[string]any{
		"order_id": uuid.New(),
		"provider": "datatrans",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
