package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/swissvfg/bauprodukt-backend/api/responses"
	"github.com/swissvfg/bauprodukt-backend/pkg/db/models"
	pkgerrors "github.com/swissvfg/bauprodukt-backend/pkg/errors"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
)

type paymentEventReader interface {
	EventsForOrder(ctx context.Context, orderID uuid.UUID) ([]models.PaymentEvent, error)
}

// AdminPaymentEvents exposes an order's webhook audit trail for diagnosis.
func AdminPaymentEvents(svc paymentEventReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciler service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		events, err := svc.EventsForOrder(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, events)
	}
}
