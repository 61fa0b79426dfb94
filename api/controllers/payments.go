package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/swissvfg/bauprodukt-backend/api/responses"
	"github.com/swissvfg/bauprodukt-backend/api/validators"
	"github.com/swissvfg/bauprodukt-backend/internal/payments"
	"github.com/swissvfg/bauprodukt-backend/pkg/enums"
	pkgerrors "github.com/swissvfg/bauprodukt-backend/pkg/errors"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
)

type createPaymentSessionRequest struct {
	OrderID  uuid.UUID `json:"order_id" validate:"required"`
	Provider string    `json:"provider" validate:"required"`
}

type paymentSessionResponse struct {
	SessionID   string     `json:"session_id"`
	RedirectURL string     `json:"redirect_url"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// CreatePaymentSession opens a hosted payment session for an order and hands
// the redirect URL back to the storefront.
func CreatePaymentSession(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var req createPaymentSessionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		provider, err := enums.ParsePaymentProvider(req.Provider)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown payment provider"))
			return
		}

		session, err := svc.CreateSession(ctx, req.OrderID, provider)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, paymentSessionResponse{
			SessionID:   session.SessionID,
			RedirectURL: session.RedirectURL,
			ExpiresAt:   session.ExpiresAt,
		})
	}
}
