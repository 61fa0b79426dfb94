package infoniqa

import (
	"context"
	"fmt"
	"time"

	"github.com/swissvfg/bauprodukt-backend/pkg/db/models"
	infoniqaapi "github.com/swissvfg/bauprodukt-backend/pkg/infoniqa"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
)

// voucherCreator is the slice of the accounting client the sync needs.
type voucherCreator interface {
	CreateVoucher(ctx context.Context, v infoniqaapi.Voucher) (string, error)
}

// Result summarizes one sync pass.
type Result struct {
	Synced int
	Failed int
}

// Service pushes paid orders into the accounting system.
type Service interface {
	// SyncPending posts a booking for every order flagged pending and flips
	// the flag to success or failed per order. One bad order does not stop
	// the batch.
	SyncPending(ctx context.Context) (Result, error)
}

type service struct {
	repo      Repository
	client    voucherCreator
	logger    *logger.Logger
	batchSize int
}

const defaultBatchSize = 20

// NewService wires the accounting sync.
func NewService(repo Repository, client voucherCreator, batchSize int, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("infoniqa repository required")
	}
	if client == nil {
		return nil, fmt.Errorf("infoniqa client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &service{repo: repo, client: client, logger: logg, batchSize: batchSize}, nil
}

func (s *service) SyncPending(ctx context.Context) (Result, error) {
	orders, err := s.repo.ListPendingSync(ctx, s.batchSize)
	if err != nil {
		return Result{}, fmt.Errorf("list pending orders: %w", err)
	}

	var result Result
	for i := range orders {
		order := &orders[i]
		orderCtx := s.logger.WithOrderID(ctx, order.ID.String())

		transactionID, err := s.client.CreateVoucher(orderCtx, voucherFor(order))
		if err != nil {
			s.logger.Error(orderCtx, "create accounting voucher", err)
			if _, markErr := s.repo.MarkSyncFailed(orderCtx, order.ID); markErr != nil {
				s.logger.Error(orderCtx, "mark accounting sync failed", markErr)
			}
			result.Failed++
			continue
		}

		applied, err := s.repo.MarkSynced(orderCtx, order.ID, transactionID)
		if err != nil {
			s.logger.Error(orderCtx, "mark accounting sync done", err)
			result.Failed++
			continue
		}
		if applied {
			result.Synced++
			s.logger.Info(s.logger.WithField(orderCtx, "transaction_id", transactionID),
				"order booked in accounting")
		}
	}
	return result, nil
}

func voucherFor(order *models.Order) infoniqaapi.Voucher {
	date := time.Now().UTC()
	if order.PaidAt != nil {
		date = order.PaidAt.UTC()
	}
	return infoniqaapi.Voucher{
		ExternalRef: order.OrderNumber,
		Text:        fmt.Sprintf("Bestellung %s", order.OrderNumber),
		Amount:      order.TotalAmount.InexactFloat64(),
		Currency:    order.Currency,
		Date:        date.Format("2006-01-02"),
	}
}
