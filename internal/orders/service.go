package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/swissvfg/bauprodukt-backend/internal/cart"
	"github.com/swissvfg/bauprodukt-backend/internal/catalog"
	"github.com/swissvfg/bauprodukt-backend/pkg/db"
	"github.com/swissvfg/bauprodukt-backend/pkg/db/models"
	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
	pkgerrors "github.com/swissvfg/bauprodukt-backend/pkg/errors"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

const defaultNumberAttempts = 5

type service struct {
	repo           Repository
	catalog        catalog.Repository
	carts          cart.Store
	tx             txRunner
	numbers        NumberGenerator
	logger         *logger.Logger
	numberAttempts int
}

// NewService builds the order service with its collaborators.
func NewService(
	repo Repository,
	catalogRepo catalog.Repository,
	carts cart.Store,
	tx txRunner,
	numbers NumberGenerator,
	logg *logger.Logger,
	numberAttempts int,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if numbers == nil {
		numbers = NewNumberGenerator()
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if numberAttempts <= 0 {
		numberAttempts = defaultNumberAttempts
	}
	return &service{
		repo:           repo,
		catalog:        catalogRepo,
		carts:          carts,
		tx:             tx,
		numbers:        numbers,
		logger:         logg,
		numberAttempts: numberAttempts,
	}, nil
}

// Create converts the session's cart into a persisted order. Order row, line
// items, and stock decrements commit atomically; the cart is cleared only
// after the transaction commits.
func (s *service) Create(ctx context.Context, input CreateInput) (*Detail, error) {
	if strings.TrimSpace(input.CartSessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session id required")
	}

	lines, err := s.carts.Lines(ctx, input.CartSessionID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	// Validate every line before touching anything, collecting all failures
	// so the caller can show a single combined correction message.
	var insufficient []InsufficientLine
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %s no longer exists", l.ProductID))
		}
		if l.Quantity > p.StockQuantity {
			insufficient = append(insufficient, InsufficientLine{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   l.Quantity,
				Available:   p.StockQuantity,
			})
		}
	}
	if len(insufficient) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
			WithDetails(insufficient)
	}

	order, items := s.buildOrder(input, lines, byID)

	var created *models.Order
	for attempt := 0; attempt < s.numberAttempts; attempt++ {
		number, err := s.numbers.Next()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating order number")
		}
		order.OrderNumber = number

		created, err = s.createTx(ctx, order, items, lines)
		if err == nil {
			break
		}
		if db.IsUniqueViolation(err, "order_number") {
			continue
		}
		return nil, err
	}
	if created == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order number generation exhausted")
	}

	// Best effort: a surviving cart is an annoyance, a lost order is not.
	if err := s.carts.Clear(ctx, input.CartSessionID); err != nil {
		s.logger.Warn(s.logger.WithOrderID(ctx, created.ID.String()), "clearing cart after checkout failed")
	}

	return toDetail(created), nil
}

func (s *service) createTx(ctx context.Context, order *models.Order, items []models.OrderItem, lines []cart.Line) (*models.Order, error) {
	clone := *order
	clone.ID = uuid.Nil
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		catalogRepo := s.catalog.WithTx(tx)

		created, err := repo.Create(ctx, &clone)
		if err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = created.ID
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order items")
		}

		// Re-checked inside the transaction against the live counter, so a
		// concurrent checkout that raced past the earlier validation still
		// cannot oversell.
		var insufficient []InsufficientLine
		for _, l := range lines {
			ok, err := catalogRepo.DecrementStock(ctx, l.ProductID, l.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrementing stock")
			}
			if !ok {
				insufficient = append(insufficient, InsufficientLine{
					ProductID: l.ProductID,
					Requested: l.Quantity,
				})
			}
		}
		if len(insufficient) > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(insufficient)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	clone.Items = items
	return &clone, nil
}

func (s *service) buildOrder(input CreateInput, lines []cart.Line, byID map[uuid.UUID]models.Product) (*models.Order, []models.OrderItem) {
	items := make([]models.OrderItem, 0, len(lines))
	total := decimal.Zero
	for _, l := range lines {
		p := byID[l.ProductID]
		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		items = append(items, models.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			ProductSlug: p.Slug,
			Quantity:    l.Quantity,
			UnitPrice:   p.Price,
			TotalPrice:  lineTotal,
		})
		total = total.Add(lineTotal)
	}

	order := &models.Order{
		CustomerName:       input.CustomerName,
		CustomerEmail:      strings.ToLower(strings.TrimSpace(input.CustomerEmail)),
		CustomerPhone:      input.CustomerPhone,
		ShippingProvince:   input.Shipping.Province,
		ShippingDistrict:   input.Shipping.District,
		ShippingPostalCode: input.Shipping.PostalCode,
		ShippingAddress:    input.Shipping.Street,
		BillingProvince:    input.Billing.Province,
		BillingDistrict:    input.Billing.District,
		BillingPostalCode:  input.Billing.PostalCode,
		BillingAddress:     input.Billing.Street,
		Notes:              input.Notes,
		Currency:           "CHF",
		TotalAmount:        total,
		Status:             enums.OrderStatusPending,
		PaymentStatus:      enums.PaymentStatusPending,
	}
	return order, items
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Detail, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	return toDetail(order), nil
}

// GetByNumberAndEmail is the guest lookup: order number alone is guessable,
// so the customer email must match as well.
func (s *service) GetByNumberAndEmail(ctx context.Context, orderNumber, email string) (*Detail, error) {
	if strings.TrimSpace(orderNumber) == "" || strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number and email required")
	}
	order, err := s.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	if !strings.EqualFold(order.CustomerEmail, strings.TrimSpace(email)) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return toDetail(order), nil
}

// ListByEmail returns every order placed under the given email, newest
// first. Backs the account-less order history view.
func (s *service) ListByEmail(ctx context.Context, email string) ([]Detail, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	found, err := s.repo.ListByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}
	details := make([]Detail, 0, len(found))
	for i := range found {
		details = append(details, *toDetail(&found[i]))
	}
	return details, nil
}

func toDetail(order *models.Order) *Detail {
	items := make([]ItemDetail, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, ItemDetail{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ProductSlug: it.ProductSlug,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		})
	}
	return &Detail{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Currency:      order.Currency,
		TotalAmount:   order.TotalAmount,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		PaidAt:        order.PaidAt,
		Items:         items,
		CreatedAt:     order.CreatedAt,
	}
}
