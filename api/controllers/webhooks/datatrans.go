package webhooks

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/swissvfg/bauprodukt-backend/api/responses"
	pkgerrors "github.com/swissvfg/bauprodukt-backend/pkg/errors"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
)

// DataTransWebhook applies DataTrans payment callbacks. The provider sends
// JSON webhooks, form-encoded redirect callbacks, and occasionally XML; once
// the body is read, the response is always an acknowledgment. Signature
// problems and parse failures are logged, never bounced.
func DataTransWebhook(adapter webhookParser, recon Reconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if adapter == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "datatrans adapter unavailable"))
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

		if isXMLPayload(r.Header.Get("Content-Type"), payload) {
			if logg != nil {
				logg.Warn(ctx, "datatrans xml webhook acknowledged without parsing")
			}
			writeAck(w, map[string]bool{"success": true})
			return
		}

		event, err := adapter.ParseWebhook(ctx, payload, r.Header.Get("Datatrans-Signature"))
		if err != nil {
			if logg != nil {
				logg.Error(ctx, "datatrans webhook rejected by parser", err)
			}
			writeAck(w, map[string]bool{"success": true})
			return
		}

		if event != nil {
			if err := recon.Process(ctx, event); err != nil && logg != nil {
				logg.Error(ctx, "datatrans webhook processing failed", err)
			}
		}
		writeAck(w, map[string]bool{"success": true})
	}
}

func isXMLPayload(contentType string, payload []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "xml") {
		return true
	}
	trimmed := bytes.TrimSpace(payload)
	return len(trimmed) > 0 && trimmed[0] == '<'
}
