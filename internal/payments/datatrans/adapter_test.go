package datatrans

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swissvfg/bauprodukt-backend/pkg/config"
	datatransclient "github.com/swissvfg/bauprodukt-backend/pkg/datatrans"
	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
)

const testSignKey = "0011223344556677"

func newTestAdapter(t *testing.T, signKey string) *Adapter {
	t.Helper()
	client, err := datatransclient.NewClient(context.Background(), config.DataTransConfig{
		APIURL:     "https://api.sandbox.datatrans.com/v1",
		MerchantID: "1100000000",
		Password:   "topsecret",
		SignKey:    signKey,
		Timeout:    2 * time.Second,
	}, logger.New(logger.Options{ServiceName: "datatrans-test"}))
	require.NoError(t, err)

	adapter, err := NewAdapter(client, logger.New(logger.Options{ServiceName: "datatrans-test"}), Options{
		SuccessURL: "https://shop.example/checkout/success",
		ErrorURL:   "https://shop.example/checkout/error",
		CancelURL:  "https://shop.example/checkout/cancel",
	})
	require.NoError(t, err)
	return adapter
}

func signBody(ts string, body []byte, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(ts))
	mac.Write(body)
	return fmt.Sprintf("t=%s,s0=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestParseWebhookJSONStatusMap(t *testing.T) {
	a := newTestAdapter(t, "")
	ctx := context.Background()

	cases := []struct {
		status string
		want   *enums.PaymentStatus
	}{
		{"settled", statusPtr(enums.PaymentStatusPaid)},
		{"authorized", statusPtr(enums.PaymentStatusProcessing)},
		{"failed", statusPtr(enums.PaymentStatusFailed)},
		{"declined", statusPtr(enums.PaymentStatusFailed)},
		{"cancelled", statusPtr(enums.PaymentStatusCancelled)},
		{"expired", statusPtr(enums.PaymentStatusExpired)},
		{"initialized", nil},
	}

	for _, tc := range cases {
		body := []byte(fmt.Sprintf(
			`{"transactionId":"250901000000000001","status":%q,"refno":"BP000042"}`, tc.status))
		event, err := a.ParseWebhook(ctx, body, "")
		require.NoError(t, err, tc.status)

		assert.Equal(t, enums.PaymentProviderDataTrans, event.Provider, tc.status)
		assert.Equal(t, "250901000000000001", event.SessionID, tc.status)
		assert.Equal(t, "250901000000000001", event.PaymentID, tc.status)
		assert.Equal(t, "BP000042", event.OrderReference, tc.status)
		if tc.want == nil {
			assert.Nil(t, event.Status, tc.status)
		} else {
			require.NotNil(t, event.Status, tc.status)
			assert.Equal(t, *tc.want, *event.Status, tc.status)
		}
	}
}

func TestParseWebhookFormEncoded(t *testing.T) {
	a := newTestAdapter(t, "")
	body := []byte("uppTransactionId=250901000000000002&status=settled&refno=BP000043")

	event, err := a.ParseWebhook(context.Background(), body, "")
	require.NoError(t, err)

	assert.Equal(t, "250901000000000002", event.SessionID)
	assert.Equal(t, "BP000043", event.OrderReference)
	require.NotNil(t, event.Status)
	assert.Equal(t, enums.PaymentStatusPaid, *event.Status)
}

func TestParseWebhookFailedCarriesErrorCode(t *testing.T) {
	a := newTestAdapter(t, "")
	body := []byte(`{"transactionId":"1","status":"failed","refno":"BP000044","errorCode":"TWINT_TIMEOUT","errorMessage":"TWINT authorization timed out"}`)

	event, err := a.ParseWebhook(context.Background(), body, "")
	require.NoError(t, err)
	assert.Equal(t, "TWINT_TIMEOUT", event.ErrorCode)
	assert.Equal(t, "TWINT authorization timed out", event.ErrorMessage)
}

func TestParseWebhookInvalidSignatureStillProcessed(t *testing.T) {
	// Signature failures are logged, not rejected: DataTrans omits the header
	// on some legitimate callbacks.
	a := newTestAdapter(t, testSignKey)
	body := []byte(`{"transactionId":"1","status":"settled","refno":"BP000045"}`)

	event, err := a.ParseWebhook(context.Background(), body, "t=1,s0=deadbeef")
	require.NoError(t, err)
	require.NotNil(t, event.Status)
	assert.Equal(t, enums.PaymentStatusPaid, *event.Status)
}

func TestVerifySignature(t *testing.T) {
	a := newTestAdapter(t, testSignKey)
	body := []byte(`{"transactionId":"1","status":"settled"}`)

	assert.True(t, a.verifySignature(body, signBody("1725148800", body, testSignKey)))
	assert.False(t, a.verifySignature(body, signBody("1725148800", body, "wrongkey")))
	assert.False(t, a.verifySignature(body, ""))

	// No key configured: verification short-circuits to accepted.
	unsigned := newTestAdapter(t, "")
	assert.True(t, unsigned.verifySignature(body, ""))
}

func TestParseWebhookRejectsGarbage(t *testing.T) {
	a := newTestAdapter(t, "")
	_, err := a.ParseWebhook(context.Background(), []byte("{not json"), "")
	require.Error(t, err)

	_, err = a.ParseWebhook(context.Background(), []byte("   "), "")
	require.Error(t, err)
}

func statusPtr(s enums.PaymentStatus) *enums.PaymentStatus {
	return &s
}
