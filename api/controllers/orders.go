package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/swissvfg/bauprodukt-backend/api/responses"
	"github.com/swissvfg/bauprodukt-backend/api/validators"
	"github.com/swissvfg/bauprodukt-backend/internal/orders"
	pkgerrors "github.com/swissvfg/bauprodukt-backend/pkg/errors"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
)

// OrderDetail returns one order by id, items included. Clients poll it after
// the payment redirect to watch payment_status flip.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		detail, err := svc.GetByID(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// OrderLookup finds orders by customer email. With order_number set it
// returns that single order, and both values must match; a wrong email is
// indistinguishable from a missing order. Without order_number it returns
// the email's order history, newest first.
func OrderLookup(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		email, err := validators.RequireQuery(r, "email")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if orderNumber := r.URL.Query().Get("order_number"); orderNumber != "" {
			detail, err := svc.GetByNumberAndEmail(ctx, orderNumber, email)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			responses.WriteSuccess(w, detail)
			return
		}

		details, err := svc.ListByEmail(ctx, email)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, details)
	}
}
