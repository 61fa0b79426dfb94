package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swissvfg/bauprodukt-backend/pkg/db/models"
	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
	pkgerrors "github.com/swissvfg/bauprodukt-backend/pkg/errors"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
)

// Service opens hosted payment sessions.
type Service interface {
	CreateSession(ctx context.Context, orderID uuid.UUID, provider enums.PaymentProvider) (*Session, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     Repository
	adapters map[enums.PaymentProvider]Adapter
	tx       txRunner
	logger   *logger.Logger
}

// NewService wires the session initiator with one adapter per provider.
func NewService(repo Repository, adapters []Adapter, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if len(adapters) == 0 {
		return nil, fmt.Errorf("at least one payment adapter required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	byProvider := make(map[enums.PaymentProvider]Adapter, len(adapters))
	for _, a := range adapters {
		if a == nil {
			continue
		}
		byProvider[a.Provider()] = a
	}

	return &service{
		repo:     repo,
		adapters: byProvider,
		tx:       tx,
		logger:   logg,
	}, nil
}

// CreateSession asks the selected provider for a hosted session and persists
// the session id on the order before returning, so a webhook racing the HTTP
// response can still resolve.
func (s *service) CreateSession(ctx context.Context, orderID uuid.UUID, provider enums.PaymentProvider) (*Session, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	adapter, ok := s.adapters[provider]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unsupported payment provider %q", provider))
	}

	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	switch order.PaymentStatus {
	case enums.PaymentStatusPending, enums.PaymentStatusFailed:
		// A failed payment may be retried with a fresh session.
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order payment already %s", order.PaymentStatus))
	}

	session, err := adapter.CreateSession(ctx, SessionRequest{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Amount:        order.TotalAmount,
		Currency:      order.Currency,
		CustomerEmail: order.CustomerEmail,
	})
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.SetOrderSession(ctx, order.ID, provider, session.SessionID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing session id")
		}
		record := &models.PaymentSession{
			OrderID:   order.ID,
			Provider:  provider,
			SessionID: session.SessionID,
			Amount:    order.TotalAmount,
			Currency:  order.Currency,
			ExpiresAt: session.ExpiresAt,
		}
		if err := repo.CreateSessionRecord(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording session")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logger.WithProvider(s.logger.WithOrderID(ctx, order.ID.String()), provider.String())
	s.logger.Info(logCtx, "payment session created")

	return session, nil
}
