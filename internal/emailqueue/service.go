package emailqueue

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/swissvfg/bauprodukt-backend/pkg/db/models"
	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
)

// Service enqueues order notifications.
type Service interface {
	WithTx(tx *gorm.DB) Service
	EnqueueOrderPaid(ctx context.Context, order *models.Order) error
}

type service struct {
	repo               Repository
	fulfillmentAddress string
}

// NewService builds the email queue service. fulfillmentAddress receives the
// partner notification for every paid order.
func NewService(repo Repository, fulfillmentAddress string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("email queue repository required")
	}
	if fulfillmentAddress == "" {
		return nil, fmt.Errorf("fulfillment address required")
	}
	return &service{repo: repo, fulfillmentAddress: fulfillmentAddress}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx), fulfillmentAddress: s.fulfillmentAddress}
}

// EnqueueOrderPaid queues the customer confirmation and the fulfillment
// notice. Both upserts are duplicate-ignoring, so invoking this twice for the
// same order yields at most one entry per recipient type.
func (s *service) EnqueueOrderPaid(ctx context.Context, order *models.Order) error {
	confirmation := &models.EmailQueueEntry{
		OrderID:        order.ID,
		RecipientEmail: order.CustomerEmail,
		RecipientType:  enums.EmailRecipientCustomer,
		EmailType:      enums.EmailTypeOrderConfirmation,
		Subject:        fmt.Sprintf("Bestellbestätigung - %s", order.OrderNumber),
		BodyHTML:       customerConfirmationHTML(order),
		BodyText:       customerConfirmationText(order),
	}
	if err := s.repo.Upsert(ctx, confirmation); err != nil {
		return fmt.Errorf("enqueue customer confirmation: %w", err)
	}

	fulfillment := &models.EmailQueueEntry{
		OrderID:        order.ID,
		RecipientEmail: s.fulfillmentAddress,
		RecipientType:  enums.EmailRecipientSwissVFG,
		EmailType:      enums.EmailTypeOrderFulfillment,
		Subject:        fmt.Sprintf("Neue Bestellung - %s", order.OrderNumber),
		BodyHTML:       fulfillmentNoticeHTML(order),
		BodyText:       fulfillmentNoticeText(order),
	}
	if err := s.repo.Upsert(ctx, fulfillment); err != nil {
		return fmt.Errorf("enqueue fulfillment notice: %w", err)
	}

	return nil
}

func customerConfirmationHTML(order *models.Order) string {
	return fmt.Sprintf(
		"<p>Guten Tag %s</p><p>Vielen Dank für Ihre Bestellung <strong>%s</strong>. "+
			"Wir haben Ihre Zahlung über %s %s erhalten.</p>",
		order.CustomerName, order.OrderNumber, order.Currency, order.TotalAmount.StringFixed(2))
}

func customerConfirmationText(order *models.Order) string {
	return fmt.Sprintf(
		"Guten Tag %s\n\nVielen Dank für Ihre Bestellung %s. Wir haben Ihre Zahlung über %s %s erhalten.\n",
		order.CustomerName, order.OrderNumber, order.Currency, order.TotalAmount.StringFixed(2))
}

func fulfillmentNoticeHTML(order *models.Order) string {
	return fmt.Sprintf(
		"<p>Neue bezahlte Bestellung <strong>%s</strong> (%s %s) von %s, %s.</p>",
		order.OrderNumber, order.Currency, order.TotalAmount.StringFixed(2),
		order.CustomerName, order.ShippingDistrict)
}

func fulfillmentNoticeText(order *models.Order) string {
	return fmt.Sprintf(
		"Neue bezahlte Bestellung %s (%s %s) von %s, %s.\n",
		order.OrderNumber, order.Currency, order.TotalAmount.StringFixed(2),
		order.CustomerName, order.ShippingDistrict)
}
