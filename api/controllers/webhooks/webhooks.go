package webhooks

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/swissvfg/bauprodukt-backend/internal/payments"
)

// Reconciler consumes normalized webhook events.
type Reconciler interface {
	Process(ctx context.Context, event *payments.WebhookEvent) error
}

// webhookParser is the adapter slice webhook endpoints depend on.
type webhookParser interface {
	ParseWebhook(ctx context.Context, body []byte, signatureHeader string) (*payments.WebhookEvent, error)
}

// writeAck sends the provider-specific acknowledgment body. Providers retry
// on anything but a 2xx, so the ack bypasses the API envelope.
func writeAck(w http.ResponseWriter, body map[string]bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(body)
}
