package controllers

import (
	"context"
	"net/http"

	"github.com/swissvfg/bauprodukt-backend/api/responses"
	"github.com/swissvfg/bauprodukt-backend/api/validators"
	"github.com/swissvfg/bauprodukt-backend/internal/orders"
	pkgerrors "github.com/swissvfg/bauprodukt-backend/pkg/errors"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
)

// CheckoutService is the slice of the orders service the endpoint needs.
type CheckoutService interface {
	Create(ctx context.Context, input orders.CreateInput) (*orders.Detail, error)
}

// Checkout turns the caller's cart into an order. Stock problems come back
// as a conflict listing every offending line.
func Checkout(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var input orders.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		detail, err := svc.Create(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}
