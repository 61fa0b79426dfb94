package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/swissvfg/bauprodukt-backend/api/controllers"
	webhookcontrollers "github.com/swissvfg/bauprodukt-backend/api/controllers/webhooks"
	"github.com/swissvfg/bauprodukt-backend/api/middleware"
	"github.com/swissvfg/bauprodukt-backend/internal/orders"
	"github.com/swissvfg/bauprodukt-backend/internal/payments"
	"github.com/swissvfg/bauprodukt-backend/internal/reconciler"
	"github.com/swissvfg/bauprodukt-backend/pkg/config"
	"github.com/swissvfg/bauprodukt-backend/pkg/db"
	"github.com/swissvfg/bauprodukt-backend/pkg/logger"
	"github.com/swissvfg/bauprodukt-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database *db.Client,
	cache *redis.Client,
	ordersService orders.Service,
	paymentsService payments.Service,
	reconcilerService reconciler.Service,
	stripeAdapter payments.Adapter,
	datatransAdapter payments.Adapter,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	var dbPing, cachePing controllers.Pinger
	if database != nil {
		dbPing = database
	}
	if cache != nil {
		cachePing = cache
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbPing, cachePing))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/checkout", controllers.Checkout(ordersService, logg))
		r.Post("/payments/sessions", controllers.CreatePaymentSession(paymentsService, logg))
		r.Get("/orders/{orderID}", controllers.OrderDetail(ordersService, logg))
		r.Get("/orders", controllers.OrderLookup(ordersService, logg))

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeAdapter, reconcilerService, logg))
			r.Post("/datatrans", webhookcontrollers.DataTransWebhook(datatransAdapter, reconcilerService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Get("/orders/{orderID}/payment-events", controllers.AdminPaymentEvents(reconcilerService, logg))
	})

	return r
}
