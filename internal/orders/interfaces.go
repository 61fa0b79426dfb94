package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swissvfg/bauprodukt-backend/pkg/db/models"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListByEmail(ctx context.Context, email string) ([]models.Order, error)
}

// Service is the order-creation and lookup surface consumed by the API layer.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*Detail, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Detail, error)
	GetByNumberAndEmail(ctx context.Context, orderNumber, email string) (*Detail, error)
	ListByEmail(ctx context.Context, email string) ([]Detail, error)
}
