package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/swissvfg/bauprodukt-backend/internal/cart"
	"github.com/swissvfg/bauprodukt-backend/internal/catalog"
	"github.com/swissvfg/bauprodukt-backend/pkg/db/models"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

func TestCreateAtomicRollback(t *testing.T) {
	gdb := setupOrdersTestDB(t)
	require.NoError(t, gdb.Exec(`
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  price NUMERIC NOT NULL,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)

	product := models.Product{
		ID:            uuid.New(),
		Name:          "Zement 25kg",
		Slug:          "zement-25kg",
		Price:         decimal.RequireFromString("12.50"),
		StockQuantity: 5,
	}
	require.NoError(t, gdb.Create(&product).Error)

	// Dropping order_items makes the item insert fail after the order row
	// was created, exercising the transactional rollback.
	require.NoError(t, gdb.Exec(`DROP TABLE order_items`).Error)

	carts := &stubCarts{lines: map[string][]cart.Line{
		"sess-1": {{ProductID: product.ID, Quantity: 2}},
	}}
	svc, err := NewService(
		newRepoWithIDs(gdb),
		catalog.NewRepository(gdb),
		carts,
		gormTxRunner{db: gdb},
		&seqNumbers{numbers: []string{"BP000500"}},
		logger.New(logger.Options{ServiceName: "orders-test"}),
		1,
	)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validInput("sess-1"))
	require.Error(t, err)

	var orderCount int64
	require.NoError(t, gdb.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)

	var got models.Product
	require.NoError(t, gdb.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, 5, got.StockQuantity)

	assert.Empty(t, carts.cleared)
}

// idAssigningRepo wraps the real repository and assigns ids app-side, since
// the sqlite test schema has no uuid default.
type idAssigningRepo struct {
	Repository
}

func newRepoWithIDs(db *gorm.DB) Repository {
	return &idAssigningRepo{Repository: NewRepository(db)}
}

func (r *idAssigningRepo) WithTx(tx *gorm.DB) Repository {
	return &idAssigningRepo{Repository: r.Repository.WithTx(tx)}
}

func (r *idAssigningRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.Repository.Create(ctx, order)
}

func (r *idAssigningRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
	}
	return r.Repository.CreateItems(ctx, items)
}
