package infoniqa

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swissvfg/bauprodukt-backend/pkg/db/models"
	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
	infoniqaapi "github.com/swissvfg/bauprodukt-backend/pkg/infoniqa"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
)

type stubSyncRepo struct {
	pending []models.Order
	synced  map[uuid.UUID]string
	failed  []uuid.UUID
}

func (r *stubSyncRepo) ListPendingSync(_ context.Context, limit int) ([]models.Order, error) {
	if len(r.pending) > limit {
		return r.pending[:limit], nil
	}
	return r.pending, nil
}

func (r *stubSyncRepo) MarkSynced(_ context.Context, orderID uuid.UUID, transactionID string) (bool, error) {
	if r.synced == nil {
		r.synced = map[uuid.UUID]string{}
	}
	r.synced[orderID] = transactionID
	return true, nil
}

func (r *stubSyncRepo) MarkSyncFailed(_ context.Context, orderID uuid.UUID) (bool, error) {
	r.failed = append(r.failed, orderID)
	return true, nil
}

type stubVoucherClient struct {
	vouchers []infoniqaapi.Voucher
	failRefs map[string]bool
}

func (c *stubVoucherClient) CreateVoucher(_ context.Context, v infoniqaapi.Voucher) (string, error) {
	if c.failRefs[v.ExternalRef] {
		return "", fmt.Errorf("infoniqa responded 502")
	}
	c.vouchers = append(c.vouchers, v)
	return "inq_" + v.ExternalRef, nil
}

func paidOrderForSync(number string) models.Order {
	paidAt := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	status := enums.InfoniqaSyncStatusPending
	return models.Order{
		ID:                 uuid.New(),
		OrderNumber:        number,
		Currency:           "CHF",
		TotalAmount:        decimal.RequireFromString("46.40"),
		PaymentStatus:      enums.PaymentStatusPaid,
		PaidAt:             &paidAt,
		InfoniqaSyncStatus: &status,
	}
}

func TestSyncPendingBooksEachOrder(t *testing.T) {
	orderA := paidOrderForSync("BP000601")
	orderB := paidOrderForSync("BP000602")
	repo := &stubSyncRepo{pending: []models.Order{orderA, orderB}}
	client := &stubVoucherClient{}

	svc, err := NewService(repo, client, 20, logger.New(logger.Options{ServiceName: "sync-test"}))
	require.NoError(t, err)

	result, err := svc.SyncPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 0, result.Failed)

	require.Len(t, client.vouchers, 2)
	voucher := client.vouchers[0]
	assert.Equal(t, "BP000601", voucher.ExternalRef)
	assert.Equal(t, "Bestellung BP000601", voucher.Text)
	assert.InDelta(t, 46.40, voucher.Amount, 0.001)
	assert.Equal(t, "CHF", voucher.Currency)
	assert.Equal(t, "2026-02-10", voucher.Date)

	assert.Equal(t, "inq_BP000601", repo.synced[orderA.ID])
	assert.Equal(t, "inq_BP000602", repo.synced[orderB.ID])
}

func TestSyncPendingContinuesPastFailures(t *testing.T) {
	orderA := paidOrderForSync("BP000603")
	orderB := paidOrderForSync("BP000604")
	repo := &stubSyncRepo{pending: []models.Order{orderA, orderB}}
	client := &stubVoucherClient{failRefs: map[string]bool{"BP000603": true}}

	svc, err := NewService(repo, client, 20, logger.New(logger.Options{ServiceName: "sync-test"}))
	require.NoError(t, err)

	result, err := svc.SyncPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)
	assert.Equal(t, 1, result.Failed)

	assert.Equal(t, []uuid.UUID{orderA.ID}, repo.failed)
	assert.Equal(t, "inq_BP000604", repo.synced[orderB.ID])
}

func TestSyncPendingRespectsBatchSize(t *testing.T) {
	repo := &stubSyncRepo{pending: []models.Order{
		paidOrderForSync("BP000605"),
		paidOrderForSync("BP000606"),
		paidOrderForSync("BP000607"),
	}}
	client := &stubVoucherClient{}

	svc, err := NewService(repo, client, 2, logger.New(logger.Options{ServiceName: "sync-test"}))
	require.NoError(t, err)

	result, err := svc.SyncPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Synced)
	assert.Len(t, client.vouchers, 2)
}
