package webhooks

import (
	"io"
	"net/http"

	"github.com/swissvfg/bauprodukt-backend/api/responses"
	pkgerrors "github.com/swissvfg/bauprodukt-backend/pkg/errors"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
)

// StripeWebhook verifies and applies Stripe payment events. A missing or
// invalid signature is rejected; once the payload is verified, processing
// failures are logged and the event is acknowledged anyway so Stripe does
// not retry into the same failure.
func StripeWebhook(adapter webhookParser, recon Reconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if adapter == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe adapter unavailable"))
			return
		}
		if recon == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciler unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing"))
			return
		}

		event, err := adapter.ParseWebhook(ctx, payload, sigHeader)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if event != nil {
			if err := recon.Process(ctx, event); err != nil && logg != nil {
				logg.Error(ctx, "stripe webhook processing failed", err)
			}
		}
		writeAck(w, map[string]bool{"received": true})
	}
}
