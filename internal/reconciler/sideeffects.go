package reconciler

import (
	"context"
	"fmt"

	"github.com/swissvfg/bauprodukt-backend/internal/emailqueue"
	"github.com/swissvfg/bauprodukt-backend/pkg/db/models"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
)

// Dispatcher fires the follow-up actions of an applied paid transition.
// Every failure is logged and swallowed: a lost notification must never turn
// an acknowledged webhook into a provider retry.
type Dispatcher struct {
	emails emailqueue.Service
	repo   Repository
	logger *logger.Logger
}

// NewDispatcher wires the paid-order side effects.
func NewDispatcher(emails emailqueue.Service, repo Repository, logg *logger.Logger) (*Dispatcher, error) {
	if emails == nil {
		return nil, fmt.Errorf("email queue service required")
	}
	if repo == nil {
		return nil, fmt.Errorf("reconciler repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{emails: emails, repo: repo, logger: logg}, nil
}

// OrderPaid enqueues the paid-order notifications and flags the order for
// the accounting sync. Both actions are idempotent at the storage layer.
func (d *Dispatcher) OrderPaid(ctx context.Context, order *models.Order) {
	if err := d.emails.EnqueueOrderPaid(ctx, order); err != nil {
		d.logger.Error(ctx, "enqueue paid-order notifications", err)
	}
	if err := d.repo.MarkInfoniqaPending(ctx, order.ID); err != nil {
		d.logger.Error(ctx, "flag order for accounting sync", err)
	}
}
