package reconciler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swissvfg/bauprodukt-backend/internal/payments"
	"github.com/swissvfg/bauprodukt-backend/pkg/db/models"
	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
	pkgerrors "github.com/swissvfg/bauprodukt-backend/pkg/errors"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
)

// Service applies normalized webhook events to orders.
type Service interface {
	// Process resolves the event to an order, applies the payment transition,
	// and appends the audit record. An event that matches no order is logged
	// and dropped; the nil return lets the controller acknowledge it.
	Process(ctx context.Context, event *payments.WebhookEvent) error
	// EventsForOrder returns the audit trail for operator diagnosis.
	EventsForOrder(ctx context.Context, orderID uuid.UUID) ([]models.PaymentEvent, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

const (
	defaultFallbackLimit   = 10
	defaultFallbackTimeout = 5 * time.Second
)

type service struct {
	repo            Repository
	adapters        map[enums.PaymentProvider]payments.Adapter
	effects         *Dispatcher
	tx              txRunner
	logger          *logger.Logger
	fallbackLimit   int
	fallbackTimeout time.Duration
	now             func() time.Time
}

// NewService wires the reconciler. The adapters are consulted only for the
// bounded fallback resolution; parsing happens upstream.
func NewService(repo Repository, adapters []payments.Adapter, effects *Dispatcher, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reconciler repository required")
	}
	if effects == nil {
		return nil, fmt.Errorf("side-effect dispatcher required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	byProvider := make(map[enums.PaymentProvider]payments.Adapter, len(adapters))
	for _, adapter := range adapters {
		if adapter == nil {
			return nil, fmt.Errorf("nil payment adapter")
		}
		byProvider[adapter.Provider()] = adapter
	}
	return &service{
		repo:            repo,
		adapters:        byProvider,
		effects:         effects,
		tx:              tx,
		logger:          logg,
		fallbackLimit:   defaultFallbackLimit,
		fallbackTimeout: defaultFallbackTimeout,
		now:             time.Now,
	}, nil
}

func (s *service) Process(ctx context.Context, event *payments.WebhookEvent) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook event required")
	}
	ctx = s.logger.WithProvider(ctx, event.Provider.String())
	if event.CorrelationID != "" {
		ctx = s.logger.WithField(ctx, "correlation_id", event.CorrelationID)
	}

	order, err := s.resolve(ctx, event)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve webhook order")
	}
	if order == nil {
		s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
			"event_type": event.EventType,
			"session_id": event.SessionID,
			"payment_id": event.PaymentID,
		}), "webhook matched no order")
		return nil
	}
	ctx = s.logger.WithOrderID(ctx, order.ID.String())

	statusBefore := order.PaymentStatus
	applied := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if event.Status != nil {
			var txErr error
			applied, txErr = s.applyTransition(ctx, repo, order.ID, event)
			if txErr != nil {
				return txErr
			}
		}

		statusAfter := statusBefore
		if applied {
			statusAfter = *event.Status
		}
		message := event.ErrorMessage
		if message == "" {
			message = fmt.Sprintf("%s webhook: %s", event.Provider, event.EventType)
		}
		record := &models.PaymentEvent{
			OrderID:      order.ID,
			Provider:     event.Provider,
			EventType:    event.EventType,
			StatusBefore: &statusBefore,
			StatusAfter:  &statusAfter,
			Message:      message,
			RawPayload:   event.RawPayload,
		}
		if event.ErrorCode != "" {
			code := event.ErrorCode
			record.Code = &code
		}
		if event.CorrelationID != "" {
			correlationID := event.CorrelationID
			record.CorrelationID = &correlationID
		}
		if err := repo.CreateEvent(ctx, record); err != nil {
			return err
		}

		if applied && isFailureStatus(*event.Status) && event.ErrorCode != "" {
			errorMessage := event.ErrorMessage
			if errorMessage == "" {
				errorMessage = fmt.Sprintf("payment reported %s", *event.Status)
			}
			payErr := &models.PaymentError{
				OrderID:      order.ID,
				Provider:     event.Provider,
				ErrorType:    event.EventType,
				ErrorCode:    event.ErrorCode,
				ErrorMessage: errorMessage,
				Context:      event.RawPayload,
			}
			if record.CorrelationID != nil {
				payErr.CorrelationID = record.CorrelationID
			}
			if err := repo.CreateError(ctx, payErr); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply webhook transition")
	}

	if applied && *event.Status == enums.PaymentStatusPaid {
		s.effects.OrderPaid(ctx, order)
	}

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"event_type":    event.EventType,
		"status_before": statusBefore,
		"applied":       applied,
	}), "webhook processed")
	return nil
}

func (s *service) EventsForOrder(ctx context.Context, orderID uuid.UUID) ([]models.PaymentEvent, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	events, err := s.repo.ListEventsByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payment events")
	}
	return events, nil
}

// applyTransition issues the conditional UPDATE for the event's status. A
// zero-row result means the order already left the guarded statuses; the
// event is then recorded without changing the order.
func (s *service) applyTransition(ctx context.Context, repo Repository, orderID uuid.UUID, event *payments.WebhookEvent) (bool, error) {
	switch *event.Status {
	case enums.PaymentStatusPaid:
		return repo.MarkPaid(ctx, orderID, event.PaymentID, s.now().UTC())
	case enums.PaymentStatusProcessing:
		return repo.MarkProcessing(ctx, orderID, event.PaymentID)
	case enums.PaymentStatusFailed, enums.PaymentStatusCancelled, enums.PaymentStatusExpired:
		return repo.MarkFailure(ctx, orderID, *event.Status)
	default:
		// pending never arrives from a provider; record only.
		return false, nil
	}
}

// resolve walks the match priority: order reference, session id, payment id,
// then the bounded provider round-trip. nil/nil means unmatched.
func (s *service) resolve(ctx context.Context, event *payments.WebhookEvent) (*models.Order, error) {
	if ref := strings.TrimSpace(event.OrderReference); ref != "" {
		if id, err := uuid.Parse(ref); err == nil {
			if order, err := s.repo.FindByID(ctx, id); err != nil || order != nil {
				return order, err
			}
		}
		if order, err := s.repo.FindByNumber(ctx, ref); err != nil || order != nil {
			return order, err
		}
	}
	if event.SessionID != "" {
		if order, err := s.repo.FindBySessionID(ctx, event.Provider, event.SessionID); err != nil || order != nil {
			return order, err
		}
	}
	if event.PaymentID != "" {
		if order, err := s.repo.FindByPaymentID(ctx, event.Provider, event.PaymentID); err != nil || order != nil {
			return order, err
		}
	}
	return s.resolveByFallback(ctx, event)
}

// resolveByFallback asks the provider for the payment id behind each of the
// newest pending sessions and matches it against the event. Lookups are
// individually time-bounded; a failed lookup degrades to unmatched rather
// than erroring the webhook.
func (s *service) resolveByFallback(ctx context.Context, event *payments.WebhookEvent) (*models.Order, error) {
	if event.PaymentID == "" {
		return nil, nil
	}
	adapter, ok := s.adapters[event.Provider]
	if !ok {
		return nil, nil
	}
	candidates, err := s.repo.ListRecentPendingWithSession(ctx, event.Provider, s.fallbackLimit)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		candidate := &candidates[i]
		if candidate.ProviderSessionID == nil {
			continue
		}
		lookupCtx, cancel := context.WithTimeout(ctx, s.fallbackTimeout)
		paymentID, err := adapter.SessionPaymentID(lookupCtx, *candidate.ProviderSessionID)
		cancel()
		if err != nil {
			s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
				"session_id": *candidate.ProviderSessionID,
				"error":      err.Error(),
			}), "fallback session lookup failed")
			continue
		}
		if paymentID == "" || paymentID != event.PaymentID {
			continue
		}
		if err := s.repo.BackfillPaymentID(ctx, candidate.ID, paymentID); err != nil {
			return nil, err
		}
		return candidate, nil
	}
	return nil, nil
}

func isFailureStatus(status enums.PaymentStatus) bool {
	switch status {
	case enums.PaymentStatusFailed, enums.PaymentStatusCancelled, enums.PaymentStatusExpired:
		return true
	default:
		return false
	}
}
