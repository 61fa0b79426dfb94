package emailqueue

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/swissvfg/bauprodukt-backend/pkg/db/models"
	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
)

func setupEmailQueueTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS email_queue (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  recipient_email TEXT NOT NULL,
  recipient_type TEXT NOT NULL,
  email_type TEXT NOT NULL,
  subject TEXT NOT NULL,
  body_html TEXT NOT NULL,
  body_text TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending',
  sent_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_email_queue_dedup
  ON email_queue(order_id, recipient_email, email_type);`
	require.NoError(t, gdb.Exec(schema).Error)
	return gdb
}

// idUpsertRepo assigns ids app-side, since the sqlite test schema has no
// uuid default.
type idUpsertRepo struct {
	Repository
}

func (r *idUpsertRepo) Upsert(ctx context.Context, entry *models.EmailQueueEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.Repository.Upsert(ctx, entry)
}

func paidOrder() *models.Order {
	return &models.Order{
		ID:               uuid.New(),
		OrderNumber:      "BP000042",
		CustomerName:     "Mara Keller",
		CustomerEmail:    "mara@example.ch",
		ShippingDistrict: "Zürich",
		Currency:         "CHF",
		TotalAmount:      decimal.RequireFromString("46.40"),
	}
}

func TestEnqueueOrderPaid(t *testing.T) {
	gdb := setupEmailQueueTestDB(t)
	svc, err := NewService(&idUpsertRepo{Repository: NewRepository(gdb)}, "fulfillment@swissvfg.ch")
	require.NoError(t, err)

	order := paidOrder()
	require.NoError(t, svc.EnqueueOrderPaid(context.Background(), order))

	var entries []models.EmailQueueEntry
	require.NoError(t, gdb.Order("recipient_type").Find(&entries).Error)
	require.Len(t, entries, 2)

	byType := map[enums.EmailRecipientType]models.EmailQueueEntry{}
	for _, e := range entries {
		byType[e.RecipientType] = e
	}

	customer := byType[enums.EmailRecipientCustomer]
	assert.Equal(t, "mara@example.ch", customer.RecipientEmail)
	assert.Equal(t, enums.EmailTypeOrderConfirmation, customer.EmailType)
	assert.Equal(t, "Bestellbestätigung - BP000042", customer.Subject)
	assert.Equal(t, enums.EmailStatusPending, customer.Status)

	partner := byType[enums.EmailRecipientSwissVFG]
	assert.Equal(t, "fulfillment@swissvfg.ch", partner.RecipientEmail)
	assert.Equal(t, enums.EmailTypeOrderFulfillment, partner.EmailType)
	assert.Equal(t, "Neue Bestellung - BP000042", partner.Subject)
}

func TestEnqueueOrderPaidIgnoresDuplicates(t *testing.T) {
	gdb := setupEmailQueueTestDB(t)
	svc, err := NewService(&idUpsertRepo{Repository: NewRepository(gdb)}, "fulfillment@swissvfg.ch")
	require.NoError(t, err)

	order := paidOrder()
	require.NoError(t, svc.EnqueueOrderPaid(context.Background(), order))
	require.NoError(t, svc.EnqueueOrderPaid(context.Background(), order))
	require.NoError(t, svc.EnqueueOrderPaid(context.Background(), order))

	var count int64
	require.NoError(t, gdb.Model(&models.EmailQueueEntry{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}
