package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/swissvfg/bauprodukt-backend/pkg/db/models"
	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
	pkgerrors "github.com/swissvfg/bauprodukt-backend/pkg/errors"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
)

type stubPaymentsRepo struct {
	orders       map[uuid.UUID]*models.Order
	sessionSet   map[uuid.UUID]string
	providerSet  map[uuid.UUID]enums.PaymentProvider
	records      []*models.PaymentSession
	setSessionAt int
	recordAt     int
	callSeq      int
}

func (s *stubPaymentsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPaymentsRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if o, ok := s.orders[orderID]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPaymentsRepo) SetOrderSession(ctx context.Context, orderID uuid.UUID, provider enums.PaymentProvider, sessionID string) error {
	if s.sessionSet == nil {
		s.sessionSet = map[uuid.UUID]string{}
		s.providerSet = map[uuid.UUID]enums.PaymentProvider{}
	}
	s.callSeq++
	s.setSessionAt = s.callSeq
	s.sessionSet[orderID] = sessionID
	s.providerSet[orderID] = provider
	return nil
}

func (s *stubPaymentsRepo) CreateSessionRecord(ctx context.Context, session *models.PaymentSession) error {
	s.callSeq++
	s.recordAt = s.callSeq
	s.records = append(s.records, session)
	return nil
}

type stubAdapter struct {
	provider enums.PaymentProvider
	session  *Session
	err      error
	requests []SessionRequest
}

func (a *stubAdapter) Provider() enums.PaymentProvider { return a.provider }

func (a *stubAdapter) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	a.requests = append(a.requests, req)
	if a.err != nil {
		return nil, a.err
	}
	return a.session, nil
}

func (a *stubAdapter) ParseWebhook(ctx context.Context, body []byte, sig string) (*WebhookEvent, error) {
	return nil, nil
}

func (a *stubAdapter) SessionPaymentID(ctx context.Context, sessionID string) (string, error) {
	return "", nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func pendingOrder(id uuid.UUID) *models.Order {
	return &models.Order{
		ID:            id,
		OrderNumber:   "BP000042",
		CustomerEmail: "mara@example.ch",
		Currency:      "CHF",
		TotalAmount:   decimal.RequireFromString("46.40"),
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
	}
}

func TestCreateSessionPersistsSessionSynchronously(t *testing.T) {
	orderID := uuid.New()
	repo := &stubPaymentsRepo{orders: map[uuid.UUID]*models.Order{orderID: pendingOrder(orderID)}}
	adapter := &stubAdapter{
		provider: enums.PaymentProviderStripe,
		session:  &Session{SessionID: "cs_test_42", RedirectURL: "https://checkout.stripe.com/pay/cs_test_42"},
	}
	svc, err := NewService(repo, []Adapter{adapter}, stubTxRunner{},
		logger.New(logger.Options{ServiceName: "payments-test"}))
	require.NoError(t, err)

	session, err := svc.CreateSession(context.Background(), orderID, enums.PaymentProviderStripe)
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_42", session.RedirectURL)

	// Session id is written before the call returns.
	assert.Equal(t, "cs_test_42", repo.sessionSet[orderID])
	assert.Equal(t, enums.PaymentProviderStripe, repo.providerSet[orderID])

	require.Len(t, repo.records, 1)
	assert.Equal(t, "cs_test_42", repo.records[0].SessionID)
	assert.True(t, repo.records[0].Amount.Equal(decimal.RequireFromString("46.40")))

	require.Len(t, adapter.requests, 1)
	assert.Equal(t, "BP000042", adapter.requests[0].OrderNumber)
	assert.Equal(t, "CHF", adapter.requests[0].Currency)
}

func TestCreateSessionUnknownProvider(t *testing.T) {
	repo := &stubPaymentsRepo{orders: map[uuid.UUID]*models.Order{}}
	adapter := &stubAdapter{provider: enums.PaymentProviderStripe}
	svc, err := NewService(repo, []Adapter{adapter}, stubTxRunner{},
		logger.New(logger.Options{ServiceName: "payments-test"}))
	require.NoError(t, err)

	_, err = svc.CreateSession(context.Background(), uuid.New(), enums.PaymentProvider("paypal"))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateSessionOrderNotFound(t *testing.T) {
	repo := &stubPaymentsRepo{orders: map[uuid.UUID]*models.Order{}}
	adapter := &stubAdapter{provider: enums.PaymentProviderDataTrans}
	svc, err := NewService(repo, []Adapter{adapter}, stubTxRunner{},
		logger.New(logger.Options{ServiceName: "payments-test"}))
	require.NoError(t, err)

	_, err = svc.CreateSession(context.Background(), uuid.New(), enums.PaymentProviderDataTrans)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCreateSessionAllowsRetryAfterFailure(t *testing.T) {
	orderID := uuid.New()
	order := pendingOrder(orderID)
	order.PaymentStatus = enums.PaymentStatusFailed
	repo := &stubPaymentsRepo{orders: map[uuid.UUID]*models.Order{orderID: order}}
	adapter := &stubAdapter{
		provider: enums.PaymentProviderStripe,
		session:  &Session{SessionID: "cs_test_retry", RedirectURL: "https://checkout.stripe.com/pay/cs_test_retry"},
	}
	svc, err := NewService(repo, []Adapter{adapter}, stubTxRunner{},
		logger.New(logger.Options{ServiceName: "payments-test"}))
	require.NoError(t, err)

	session, err := svc.CreateSession(context.Background(), orderID, enums.PaymentProviderStripe)
	require.NoError(t, err)

	assert.Equal(t, "cs_test_retry", session.SessionID)
	assert.Equal(t, "cs_test_retry", repo.sessionSet[orderID])
	require.Len(t, adapter.requests, 1)
}

func TestCreateSessionRejectsClosedOrder(t *testing.T) {
	for _, status := range []enums.PaymentStatus{
		enums.PaymentStatusPaid,
		enums.PaymentStatusProcessing,
		enums.PaymentStatusCancelled,
	} {
		t.Run(status.String(), func(t *testing.T) {
			orderID := uuid.New()
			order := pendingOrder(orderID)
			order.PaymentStatus = status
			repo := &stubPaymentsRepo{orders: map[uuid.UUID]*models.Order{orderID: order}}
			adapter := &stubAdapter{provider: enums.PaymentProviderStripe}
			svc, err := NewService(repo, []Adapter{adapter}, stubTxRunner{},
				logger.New(logger.Options{ServiceName: "payments-test"}))
			require.NoError(t, err)

			_, err = svc.CreateSession(context.Background(), orderID, enums.PaymentProviderStripe)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
			assert.Empty(t, adapter.requests)
		})
	}
}
